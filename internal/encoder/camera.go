package encoder

import "github.com/smazurov/livecast/internal/devices"

// cameraControl is the capture source as seen through CameraControl.
type cameraControl struct {
	*devices.Source
	enc *Encoder
}

// OpenCamera binds id and moves a running process onto it.
func (c cameraControl) OpenCamera(id string) error {
	if err := c.Source.OpenCamera(id); err != nil {
		return err
	}
	return c.enc.cameraChanged()
}
