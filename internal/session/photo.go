package session

import (
	"context"
	"time"

	"github.com/smazurov/livecast/internal/capture"
	"github.com/smazurov/livecast/internal/events"
)

// PhotoResult is the outcome of TakePhoto.
type PhotoResult struct {
	Path string
	Err  error
}

// TakePhoto grabs a still from the running preview. The result arrives on
// the returned channel and as a TookPictureEvent.
func (c *Controller) TakePhoto(ctx context.Context) <-chan PhotoResult {
	out := make(chan PhotoResult, 1)

	var req capture.Request
	err := c.do(func() error {
		if c.photos == nil {
			return newError(CodeInvalidState, "photo capture is not configured", nil)
		}
		if c.ep == nil || !c.ep.IsPreviewing() {
			return newError(CodeCameraUnavailable, "preview is not running", nil)
		}
		req = capture.Request{
			Source:     c.surface.Target,
			OutputPath: capture.PhotoPath(c.settings.Storage.PhotoDir, time.Now()),
		}
		return nil
	})
	if err != nil {
		out <- PhotoResult{Err: err}
		close(out)
		return out
	}

	go func() {
		defer close(out)
		res := PhotoResult{Path: req.OutputPath}
		ev := events.TookPictureEvent{Path: req.OutputPath}
		if err := c.photos.Capture(ctx, req); err != nil {
			res = PhotoResult{Err: newError(classify(err, CodeRecordingIOError), "photo capture failed", err)}
			ev = events.TookPictureEvent{Error: res.Err.Error()}
			c.logger.Warn("Photo capture failed", "error", err)
		}
		ev.Timestamp = timestamp()
		c.bus.Publish(ev)
		out <- res
	}()
	return out
}
