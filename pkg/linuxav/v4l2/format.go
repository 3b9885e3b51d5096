//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// commonResolutions bounds the answer for stepwise or continuous devices.
var commonResolutions = []Resolution{
	{320, 240},
	{640, 480},
	{800, 600},
	{1280, 720},
	{1280, 960},
	{1920, 1080},
	{2560, 1440},
	{3840, 2160},
}

// GetFormats returns all supported pixel formats for a device.
func GetFormats(devicePath string) ([]FormatInfo, error) {
	var formats []FormatInfo
	err := withDevice(devicePath, func(fd int) error {
		for i := uint32(0); ; i++ {
			desc := v4l2Fmtdesc{index: i, typ: v4l2BufTypeVideoCapture}
			if err := ioctl(fd, vidiocEnumFmt, unsafe.Pointer(&desc)); err != nil {
				if errors.Is(err, unix.EINVAL) {
					return nil
				}
				return fmt.Errorf("failed to enumerate format %d: %w", i, err)
			}
			formats = append(formats, FormatInfo{
				PixelFormat: desc.pixelformat,
				FormatName:  cstr(desc.description[:]),
				Emulated:    desc.flags&v4l2FmtFlagEmulated != 0,
			})
		}
	})
	return formats, err
}

// GetResolutions returns the supported resolutions for a device and pixel format.
func GetResolutions(devicePath string, pixelFormat uint32) ([]Resolution, error) {
	var resolutions []Resolution
	err := withDevice(devicePath, func(fd int) error {
		for i := uint32(0); ; i++ {
			size := v4l2Frmsizeenum{index: i, pixelFormat: pixelFormat}
			if err := ioctl(fd, vidiocEnumFramesizes, unsafe.Pointer(&size)); err != nil {
				if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOTTY) {
					return nil
				}
				return fmt.Errorf("failed to enumerate frame size %d: %w", i, err)
			}
			switch size.typ {
			case v4l2FrmsizeTypeDiscrete:
				resolutions = append(resolutions, Resolution{Width: size.union[0], Height: size.union[1]})
			case v4l2FrmsizeTypeContinuous, v4l2FrmsizeTypeStepwise:
				resolutions = append(resolutions, stepwiseResolutions(size.union)...)
				return nil
			}
		}
	})
	return resolutions, err
}

// stepwiseResolutions filters commonResolutions by the stepwise bounds
// {min_w, max_w, step_w, min_h, max_h, step_h}.
func stepwiseResolutions(bounds [6]uint32) []Resolution {
	var out []Resolution
	for _, r := range commonResolutions {
		if r.Width >= bounds[0] && r.Width <= bounds[1] && r.Height >= bounds[3] && r.Height <= bounds[4] {
			out = append(out, r)
		}
	}
	return out
}

// FormatFourCC converts a 4-byte pixel format to a human-readable string.
func FormatFourCC(format uint32) string {
	return string([]byte{byte(format), byte(format >> 8), byte(format >> 16), byte(format >> 24)})
}
