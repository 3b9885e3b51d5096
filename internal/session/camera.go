package session

import (
	"github.com/smazurov/livecast/internal/camera"
	"github.com/smazurov/livecast/internal/events"
)

// SwitchCamera moves to the next camera.
func (c *Controller) SwitchCamera() error {
	return c.do(func() error {
		if c.ep == nil {
			return newError(CodeCameraUnavailable, "no camera bound", nil)
		}
		if err := c.camera.SwitchCamera(); err != nil {
			return newError(classify(err, CodeCameraUnavailable), "camera switch failed", err)
		}
		c.publishCamera()
		return nil
	})
}

// ToggleLantern flips the torch and returns its new state.
func (c *Controller) ToggleLantern() (bool, error) {
	var on bool
	err := c.do(func() error {
		if c.ep == nil {
			return newError(CodeCameraUnavailable, "no camera bound", nil)
		}
		var err error
		if on, err = c.camera.ToggleLantern(); err != nil {
			return newError(classify(err, CodeCameraUnavailable), "torch unavailable", err)
		}
		c.publishCamera()
		return nil
	})
	return on, err
}

// SetZoom applies a zoom gesture.
func (c *Controller) SetZoom(g camera.ZoomGesture) error {
	return c.do(func() error {
		if c.ep == nil {
			return newError(CodeCameraUnavailable, "no camera bound", nil)
		}
		c.camera.SetZoom(g)
		c.publishCamera()
		return nil
	})
}

// TapToFocus focuses at a tapped point.
func (c *Controller) TapToFocus(g camera.FocusGesture) error {
	return c.do(func() error {
		if c.ep == nil {
			return newError(CodeCameraUnavailable, "no camera bound", nil)
		}
		c.camera.TapToFocus(g)
		return nil
	})
}

// Camera returns the bound camera, zero when none is.
func (c *Controller) Camera() (camera.Binding, error) {
	return query(c, c.binding)
}

func (c *Controller) binding() camera.Binding {
	if c.ep == nil {
		return camera.Binding{}
	}
	return c.camera.Binding()
}

func (c *Controller) publishCamera() {
	b := c.camera.Binding()
	c.bus.Publish(events.CameraChangedEvent{
		CameraID:     b.CameraID,
		Facing:       string(b.Facing),
		TorchEnabled: b.TorchEnabled,
		Zoom:         b.ZoomLevel,
		Timestamp:    timestamp(),
	})
}
