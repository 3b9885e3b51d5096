package led

import (
	"errors"
	"slices"
)

// ErrNoTorch is returned when the board has no torch LED.
var ErrNoTorch = errors.New("no torch LED")

// Torch is the platform torch: the board's flash LED, used when the camera
// driver has no flash control.
type Torch struct {
	Controller Controller
}

// SetTorch switches the torch LED. The LED is shared by every camera, so
// cameraID only identifies the caller.
func (t Torch) SetTorch(cameraID string, on bool) error {
	if t.Controller == nil || !slices.Contains(t.Controller.Available(), TypeTorch) {
		return ErrNoTorch
	}
	pattern := ""
	if on {
		pattern = PatternSolid
	}
	return t.Controller.Set(TypeTorch, on, pattern)
}
