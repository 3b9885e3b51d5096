//go:build linux

package v4l2

// DeviceInfo contains information about a V4L2 capture device.
type DeviceInfo struct {
	DevicePath string
	DeviceName string
	DeviceID   string // Stable identifier (from /dev/v4l/by-id/ or synthetic)
	BusInfo    string
	Caps       uint32
}

// FormatInfo contains information about a supported pixel format.
type FormatInfo struct {
	PixelFormat uint32
	FormatName  string
	Emulated    bool
}

// Resolution represents a supported video resolution.
type Resolution struct {
	Width  uint32
	Height uint32
}

// ControlInfo describes a device control as reported by VIDIOC_QUERYCTRL.
type ControlInfo struct {
	ID      uint32
	Name    string
	Type    uint32
	Minimum int32
	Maximum int32
	Step    int32
	Default int32
	Flags   uint32
}

// Usable reports whether the control can currently be written.
func (c ControlInfo) Usable() bool {
	return c.Flags&(ctrlFlagDisabled|ctrlFlagReadOnly|ctrlFlagInactive) == 0
}

// Clamp limits v to the control range, snapped to its step.
func (c ControlInfo) Clamp(v int32) int32 {
	if v < c.Minimum {
		return c.Minimum
	}
	if v > c.Maximum {
		return c.Maximum
	}
	if c.Step > 1 {
		v = c.Minimum + (v-c.Minimum)/c.Step*c.Step
	}
	return v
}

// Control IDs.
const (
	CIDFocusAbsolute  uint32 = 0x009a090a
	CIDFocusAuto      uint32 = 0x009a090c
	CIDZoomAbsolute   uint32 = 0x009a090d
	CIDAutoFocusStart uint32 = 0x009a091c
	CIDFlashLEDMode   uint32 = 0x009c0901
)

// Flash LED modes for CIDFlashLEDMode.
const (
	FlashLEDModeNone  int32 = 0
	FlashLEDModeFlash int32 = 1
	FlashLEDModeTorch int32 = 2
)

// Control flags.
const (
	ctrlFlagDisabled = 0x0001
	ctrlFlagReadOnly = 0x0004
	ctrlFlagInactive = 0x0010
)

// Capability flags.
const (
	v4l2CapVideoCapture = 0x00000001
	v4l2CapDeviceCaps   = 0x80000000
)

const (
	v4l2BufTypeVideoCapture = 1
	v4l2FmtFlagEmulated     = 0x0002
)

// Frame size types.
const (
	v4l2FrmsizeTypeDiscrete   = 1
	v4l2FrmsizeTypeContinuous = 2
	v4l2FrmsizeTypeStepwise   = 3
)
