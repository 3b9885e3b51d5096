package session

import (
	"fmt"

	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/settings"
)

// ControlAction is an inbound control event.
type ControlAction string

// Control actions.
const (
	ActionStartStream  ControlAction = "start-stream"
	ActionStopStream   ControlAction = "stop-stream"
	ActionExitApp      ControlAction = "exit-app"
	ActionDismissError ControlAction = "dismiss-error"
)

// ControlActions lists the accepted actions.
var ControlActions = []ControlAction{ActionStartStream, ActionStopStream, ActionExitApp, ActionDismissError}

// HandleControl performs a control action.
func (c *Controller) HandleControl(action ControlAction) error {
	switch action {
	case ActionStartStream:
		return c.StartStream()
	case ActionStopStream:
		return c.StopStream("", "")
	case ActionDismissError:
		return c.do(func() error {
			c.lastErr = nil
			return nil
		})
	case ActionExitApp:
		err := c.do(func() error {
			c.shutdown()
			return nil
		})
		if err == nil && c.onExit != nil {
			c.onExit()
		}
		return err
	default:
		return newError(CodeInvalidState, fmt.Sprintf("unknown control action %q", action), nil)
	}
}

// OnHostBackground is called when the host UI goes away. Without an active
// output the camera is released; otherwise only the preview stops.
func (c *Controller) OnHostBackground() error {
	return c.do(func() error {
		c.background = true
		c.releaseCamera()
		return nil
	})
}

// OnHostForeground restarts the preview on surface, or on the last surface
// when surface is zero.
func (c *Controller) OnHostForeground(surface endpoint.Surface) error {
	return c.do(func() error {
		c.background = false
		if surface.IsZero() && c.surface.IsZero() {
			return nil
		}
		return c.startPreview(surface)
	})
}

// ApplySettings replaces the settings. A protocol change moves the session
// to a new endpoint; other changes apply to the next start.
func (c *Controller) ApplySettings(next settings.Settings) error {
	return c.do(func() error { return c.applySettings(next) })
}

func (c *Controller) applySettings(next settings.Settings) error {
	if err := next.Validate(); err != nil {
		return newError(CodeInvalidState, "invalid settings", err)
	}
	prev := c.settings
	c.settings = next
	if c.ep == nil {
		return nil
	}

	prevConn, nextConn := prev.ConnectionSettings(), next.ConnectionSettings()
	if prevConn.Protocol != nextConn.Protocol {
		return c.switchProtocol(prevConn.Protocol.String(), nextConn.Protocol.String())
	}
	if prevConn != nextConn {
		c.ep.SetAuthorization(nextConn.Username, nextConn.Password)
		c.ep.SetProtocol(nextConn.UseTCP)
	}
	if prev.VideoParams() != next.VideoParams() || prev.AudioParams() != next.AudioParams() {
		c.prepared = false
		c.logger.Info("Encoder settings changed, applying on next start")
	}
	return nil
}

// switchProtocol stops the stream, releases the endpoint and builds one for
// the new protocol, restarting the preview on the same surface.
func (c *Controller) switchProtocol(from, to string) error {
	c.logger.Info("Switching protocol", "from", from, "to", to)
	wasPreviewing := c.ep.IsPreviewing()
	if c.ep.IsStreaming() {
		c.endStream()
		c.publishStopped(Reason{}, "Stream stopped, protocol changed", string(ActionStartStream))
	}
	if c.ep.IsRecording() {
		c.ep.StopRecord()
	}
	c.cancelRetry()
	c.releaseEndpoint()

	if err := c.ensureEndpoint(); err != nil {
		c.refresh()
		return err
	}
	if wasPreviewing && !c.background {
		return c.startPreview(c.surface)
	}
	c.refresh()
	return nil
}
