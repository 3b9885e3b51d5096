//go:build !linux

package devices

type unsupportedControls struct{}

func (unsupportedControls) SetTorch(string, bool) error { return ErrUnsupported }

func (unsupportedControls) ZoomRange(string) (ControlRange, error) {
	return ControlRange{}, ErrUnsupported
}

func (unsupportedControls) Zoom(string) (int, error) { return 0, ErrUnsupported }

func (unsupportedControls) SetZoom(string, int) error { return ErrUnsupported }

func (unsupportedControls) Focus(string) error { return ErrUnsupported }

func platformControls() deviceControls {
	return unsupportedControls{}
}
