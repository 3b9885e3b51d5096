// Package camera coordinates the bound camera against the active endpoint:
// cycling between cameras, the torch with its platform fallback, zoom and
// focus.
package camera

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/smazurov/livecast/internal/devices"
	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/logging"
)

// ErrNoEndpoint is returned when no endpoint is active.
var ErrNoEndpoint = errors.New("no active endpoint")

// TorchFallback switches a torch outside the camera driver, keyed by camera
// ID. led.Torch implements it.
type TorchFallback interface {
	SetTorch(cameraID string, on bool) error
}

// ZoomGesture is a zoom request. A positive Scale multiplies the current
// level (pinch); otherwise Level is applied as an absolute value.
type ZoomGesture struct {
	Level float64 `json:"level,omitempty" doc:"Absolute zoom level in driver units"`
	Scale float64 `json:"scale,omitempty" doc:"Relative pinch scale"`
}

// FocusGesture is a tap at normalized surface coordinates.
type FocusGesture struct {
	X float64 `json:"x" minimum:"0" maximum:"1" doc:"Horizontal position"`
	Y float64 `json:"y" minimum:"0" maximum:"1" doc:"Vertical position"`
}

// Binding is the camera state the controller tracks.
type Binding struct {
	CameraID     string         `json:"camera_id"`
	Facing       devices.Facing `json:"facing"`
	ZoomLevel    float64        `json:"zoom_level"`
	TorchEnabled bool           `json:"torch_enabled"`
}

// Controller drives the camera of the endpoint returned by its provider.
type Controller struct {
	endpoint func() endpoint.Endpoint
	torch    TorchFallback
	logger   *slog.Logger

	mu            sync.Mutex
	ids           []string
	index         int
	fallbackIndex int
	torchOn       bool
	zoom          float64
}

// New creates a controller. current returns the active endpoint or nil;
// torch may be nil.
func New(current func() endpoint.Endpoint, torch TorchFallback) *Controller {
	return &Controller{
		endpoint: current,
		torch:    torch,
		logger:   logging.GetLogger("camera"),
	}
}

// Reset forgets the camera list and torch state, for a new endpoint.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = nil
	c.index = 0
	c.torchOn = false
	c.zoom = 0
}

// SwitchCamera binds the next camera in the cyclic list. Without camera
// control it toggles between two logical cameras through the endpoint.
func (c *Controller) SwitchCamera() error {
	ep := c.endpoint()
	if ep == nil {
		return ErrNoEndpoint
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cc, ok := ep.CameraControl()
	if !ok {
		if err := ep.SwitchCamera(); err != nil {
			return err
		}
		c.fallbackIndex = 1 - c.fallbackIndex
		c.afterSwitch()
		c.logger.Info("Switched camera", "index", c.fallbackIndex)
		return nil
	}

	if c.ids == nil {
		ids, err := cc.CameraIDs()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return devices.ErrNoCamera
		}
		c.ids = ids
		c.index = max(slices.Index(ids, cc.CurrentCameraID()), 0)
	}

	next := (c.index + 1) % len(c.ids)
	if err := cc.OpenCamera(c.ids[next]); err != nil {
		return err
	}
	c.index = next
	c.afterSwitch()
	c.logger.Info("Switched camera", "camera_id", c.ids[next])
	return nil
}

func (c *Controller) afterSwitch() {
	c.torchOn = false
	c.zoom = 0
}

// ToggleLantern flips the torch. The device torch is tried first, then the
// platform torch keyed by the first camera ID. It returns the resulting
// state.
func (c *Controller) ToggleLantern() (bool, error) {
	ep := c.endpoint()

	c.mu.Lock()
	defer c.mu.Unlock()

	want := !c.torchOn
	var deviceErr error
	if ep == nil {
		deviceErr = ErrNoEndpoint
	} else if want {
		deviceErr = ep.EnableLantern()
	} else {
		deviceErr = ep.DisableLantern()
	}
	if deviceErr == nil {
		c.torchOn = want
		return want, nil
	}

	if c.torch == nil {
		return c.torchOn, deviceErr
	}
	id := c.firstCameraID(ep)
	c.logger.Debug("Device torch unavailable, using platform torch", "camera_id", id, "error", deviceErr)
	if err := c.torch.SetTorch(id, want); err != nil {
		return c.torchOn, errors.Join(deviceErr, err)
	}
	c.torchOn = want
	return want, nil
}

func (c *Controller) firstCameraID(ep endpoint.Endpoint) string {
	if len(c.ids) > 0 {
		return c.ids[0]
	}
	if ep != nil {
		if cc, ok := ep.CameraControl(); ok {
			if ids, err := cc.CameraIDs(); err == nil && len(ids) > 0 {
				return ids[0]
			}
		}
	}
	return "0"
}

// TorchEnabled reports the torch state.
func (c *Controller) TorchEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.torchOn
}

// GetZoom returns the current zoom clamped to the device range. A reading
// outside the range returns the minimum.
func (c *Controller) GetZoom() float64 {
	ep := c.endpoint()
	if ep == nil {
		return 0
	}
	cc, ok := ep.CameraControl()
	if !ok {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.zoom
	}

	minZoom, maxZoom, err := cc.ZoomRange()
	if err != nil {
		return 0
	}
	z, err := cc.Zoom()
	if err != nil || z < minZoom || z > maxZoom {
		return minZoom
	}
	return z
}

// SetZoom applies a zoom gesture, clamped to the device range when known.
func (c *Controller) SetZoom(g ZoomGesture) {
	ep := c.endpoint()
	if ep == nil {
		return
	}

	level := g.Level
	if g.Scale > 0 {
		level = c.GetZoom() * g.Scale
	}
	if cc, ok := ep.CameraControl(); ok {
		if minZoom, maxZoom, err := cc.ZoomRange(); err == nil {
			level = min(max(level, minZoom), maxZoom)
		}
	}

	ep.SetZoom(level)
	c.mu.Lock()
	c.zoom = level
	c.mu.Unlock()
}

// TapToFocus forwards a focus gesture.
func (c *Controller) TapToFocus(g FocusGesture) {
	if ep := c.endpoint(); ep != nil {
		ep.TapToFocus(g.X, g.Y)
	}
}

// Binding returns the tracked camera state.
func (c *Controller) Binding() Binding {
	ep := c.endpoint()

	c.mu.Lock()
	b := Binding{TorchEnabled: c.torchOn, ZoomLevel: c.zoom}
	c.mu.Unlock()

	if ep == nil {
		return b
	}
	if cc, ok := ep.CameraControl(); ok {
		b.CameraID = cc.CurrentCameraID()
		b.Facing = cc.Facing()
	}
	return b
}
