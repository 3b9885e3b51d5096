package session

import (
	"path/filepath"
	"time"

	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/events"
)

// StartPreview binds the camera and feeds surface. A zero surface reuses the
// last one.
func (c *Controller) StartPreview(surface endpoint.Surface) error {
	return c.do(func() error { return c.startPreview(surface) })
}

// StopPreview stops feeding the surface. The camera stays bound.
func (c *Controller) StopPreview() error {
	return c.do(func() error {
		c.stopPreview()
		return nil
	})
}

// RestartPreview moves the preview to surface.
func (c *Controller) RestartPreview(surface endpoint.Surface) error {
	return c.do(func() error { return c.restartPreview(surface) })
}

// ReleaseCamera frees the camera. While an output runs only the preview
// stops.
func (c *Controller) ReleaseCamera() error {
	return c.do(func() error {
		c.releaseCamera()
		return nil
	})
}

// StartStream publishes to the configured URL.
func (c *Controller) StartStream() error {
	return c.do(c.startStream)
}

// StopStream ends the stream. message and action are passed to the
// notification layer. It is a no-op when not streaming.
func (c *Controller) StopStream(message, action string) error {
	return c.do(func() error {
		c.stopStream(message, action)
		return nil
	})
}

// StartRecord records to a new file in the record directory.
func (c *Controller) StartRecord() error {
	return c.do(c.startRecord)
}

// StopRecord ends the recording.
func (c *Controller) StopRecord() error {
	return c.do(func() error {
		if c.ep != nil && c.ep.IsRecording() {
			c.ep.StopRecord()
			c.refresh()
		}
		return nil
	})
}

// SetMuted mutes or unmutes the microphone.
func (c *Controller) SetMuted(muted bool) error {
	return c.do(func() error {
		c.muted = muted
		if c.ep != nil {
			c.ep.SetAudioEnabled(!muted)
		}
		return nil
	})
}

func (c *Controller) startPreview(surface endpoint.Surface) error {
	if surface.IsZero() {
		surface = c.surface
	}
	if surface.IsZero() {
		return newError(CodeInvalidState, "no preview surface", endpoint.ErrNoSurface)
	}
	if err := c.ensureEndpoint(); err != nil {
		return err
	}
	if c.ep.IsPreviewing() {
		if surface == c.surface {
			return nil
		}
		c.ep.StopPreview()
	}
	if err := c.prepare(); err != nil {
		c.refresh()
		return err
	}

	c.ep.ReplaceView(surface)
	c.surface = surface
	c.background = false
	if err := c.ep.StartPreview(c.facing(), 0); err != nil {
		c.refresh()
		return newError(classify(err, CodeCameraUnavailable), "preview failed to start", err)
	}
	c.publishPreview(true)
	c.refresh()
	return nil
}

func (c *Controller) stopPreview() {
	if c.ep == nil || !c.ep.IsPreviewing() {
		return
	}
	c.ep.StopPreview()
	c.publishPreview(false)
	c.refresh()
}

func (c *Controller) restartPreview(surface endpoint.Surface) error {
	if c.ep == nil || !c.ep.IsPreviewing() {
		return c.startPreview(surface)
	}
	if surface.IsZero() {
		surface = c.surface
	}
	c.ep.StopPreview()
	c.ep.ReplaceView(surface)
	c.surface = surface
	if err := c.ep.StartPreview(c.facing(), 0); err != nil {
		c.publishPreview(false)
		c.refresh()
		return newError(classify(err, CodeCameraUnavailable), "preview failed to restart", err)
	}
	c.publishPreview(true)
	c.refresh()
	return nil
}

func (c *Controller) releaseCamera() {
	if c.ep == nil {
		return
	}
	if c.ep.IsStreaming() || c.ep.IsRecording() {
		c.stopPreview()
		return
	}
	c.releaseEndpoint()
	c.refresh()
}

func (c *Controller) startStream() error {
	if c.derive() == Idle {
		return newError(CodeCameraUnavailable, "no camera bound", nil)
	}
	if c.ep.IsStreaming() {
		c.logger.Info("Stream already running")
		return nil
	}
	url := c.settings.StreamURL()
	if url == "" {
		return newError(CodeEmptyURL, "stream address is empty", nil)
	}
	if err := c.prepare(); err != nil {
		c.refresh()
		return err
	}
	c.userStopped = false
	c.cancelRetry()
	return c.beginStream(url)
}

func (c *Controller) beginStream(url string) error {
	c.logger.Info("Starting stream", "url", c.settings.ConnectionSettings().Redacted())
	if err := c.ep.StartStream(url); err != nil {
		c.refresh()
		return newError(classify(err, CodeConnectionFailed), "stream failed to start", err)
	}
	c.streamLive = true
	c.armConnectTimeout()
	c.refresh()
	return nil
}

func (c *Controller) stopStream(message, action string) {
	c.userStopped = true
	c.cancelRetry()
	if c.ep == nil || !c.ep.IsStreaming() {
		return
	}
	c.endStream()
	c.publishStopped(Reason{}, message, action)
	c.refresh()
}

// endStream stops the stream output and forgets per-stream state.
func (c *Controller) endStream() {
	c.ep.StopStream()
	c.streamLive = false
	c.dropAdapter()
	c.cancelConnectTimeout()
}

func (c *Controller) publishStopped(reason Reason, message, action string) {
	name := "user"
	if reason.Code != "" {
		name = string(reason.Code)
	}
	c.bus.Publish(events.StreamStoppedEvent{
		Reason:    name,
		Message:   message,
		Action:    action,
		Timestamp: timestamp(),
	})
}

func (c *Controller) startRecord() error {
	if c.derive() == Idle {
		return newError(CodeCameraUnavailable, "no camera bound", nil)
	}
	if c.ep.IsRecording() {
		c.logger.Info("Recording already running")
		return nil
	}
	if err := c.prepare(); err != nil {
		c.refresh()
		return err
	}

	name := "REC_" + time.Now().Format("20060102_150405") + ".mp4"
	path := filepath.Join(c.settings.Storage.RecordDir, name)
	if err := c.ep.StartRecord(path, recordListener{c: c, gen: c.epGen}); err != nil {
		c.refresh()
		return newError(classify(err, CodeRecordingIOError), "recording failed to start", err)
	}
	c.refresh()
	return nil
}
