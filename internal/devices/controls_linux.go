//go:build linux

package devices

import (
	"errors"

	"github.com/smazurov/livecast/pkg/linuxav/v4l2"
)

type v4l2Controls struct{}

func (v4l2Controls) SetTorch(path string, on bool) error {
	mode := v4l2.FlashLEDModeNone
	if on {
		mode = v4l2.FlashLEDModeTorch
	}
	return mapControlErr(v4l2.SetControl(path, v4l2.CIDFlashLEDMode, mode))
}

func (v4l2Controls) ZoomRange(path string) (ControlRange, error) {
	info, err := v4l2.QueryControl(path, v4l2.CIDZoomAbsolute)
	if err != nil {
		return ControlRange{}, mapControlErr(err)
	}
	return ControlRange{Min: int(info.Minimum), Max: int(info.Maximum), Step: int(info.Step)}, nil
}

func (v4l2Controls) Zoom(path string) (int, error) {
	v, err := v4l2.GetControl(path, v4l2.CIDZoomAbsolute)
	return int(v), mapControlErr(err)
}

func (v4l2Controls) SetZoom(path string, value int) error {
	return mapControlErr(v4l2.SetControl(path, v4l2.CIDZoomAbsolute, int32(value)))
}

// Focus triggers a one-shot autofocus sweep. V4L2 has no metering regions,
// so devices without AUTO_FOCUS_START get continuous autofocus instead.
func (v4l2Controls) Focus(path string) error {
	err := v4l2.SetControl(path, v4l2.CIDAutoFocusStart, 1)
	if errors.Is(err, v4l2.ErrControlUnsupported) {
		err = v4l2.SetControl(path, v4l2.CIDFocusAuto, 1)
	}
	return mapControlErr(err)
}

func mapControlErr(err error) error {
	if errors.Is(err, v4l2.ErrControlUnsupported) {
		return errors.Join(ErrUnsupported, err)
	}
	return err
}

func platformControls() deviceControls {
	return v4l2Controls{}
}
