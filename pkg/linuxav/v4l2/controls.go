//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrControlUnsupported is returned when a device does not expose a control.
var ErrControlUnsupported = errors.New("v4l2: control not supported")

// QueryControl returns the description of control id on the device.
func QueryControl(devicePath string, id uint32) (ControlInfo, error) {
	var info ControlInfo
	err := withDevice(devicePath, func(fd int) error {
		var err error
		info, err = queryControl(fd, id)
		return err
	})
	return info, err
}

// GetControl reads the current value of control id.
func GetControl(devicePath string, id uint32) (int32, error) {
	ctrl := v4l2Control{id: id}
	err := withDevice(devicePath, func(fd int) error {
		return controlErr(id, ioctl(fd, vidiocGCtrl, unsafe.Pointer(&ctrl)))
	})
	return ctrl.value, err
}

// SetControl writes value to control id, clamped to the reported range.
func SetControl(devicePath string, id uint32, value int32) error {
	return withDevice(devicePath, func(fd int) error {
		info, err := queryControl(fd, id)
		if err != nil {
			return err
		}
		if !info.Usable() {
			return fmt.Errorf("%w: %s is inactive", ErrControlUnsupported, info.Name)
		}
		ctrl := v4l2Control{id: id, value: info.Clamp(value)}
		return controlErr(id, ioctl(fd, vidiocSCtrl, unsafe.Pointer(&ctrl)))
	})
}

func queryControl(fd int, id uint32) (ControlInfo, error) {
	q := v4l2Queryctrl{id: id}
	if err := ioctl(fd, vidiocQueryctrl, unsafe.Pointer(&q)); err != nil {
		return ControlInfo{}, controlErr(id, err)
	}
	if q.flags&ctrlFlagDisabled != 0 {
		return ControlInfo{}, fmt.Errorf("%w: 0x%08x disabled", ErrControlUnsupported, id)
	}
	return ControlInfo{
		ID:      q.id,
		Name:    cstr(q.name[:]),
		Type:    q.typ,
		Minimum: q.minimum,
		Maximum: q.maximum,
		Step:    q.step,
		Default: q.defaultValue,
		Flags:   q.flags,
	}, nil
}

func controlErr(id uint32, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOTTY) {
		return fmt.Errorf("%w: 0x%08x", ErrControlUnsupported, id)
	}
	return fmt.Errorf("control 0x%08x: %w", id, err)
}
