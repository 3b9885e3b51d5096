package session

import (
	"fmt"

	"github.com/smazurov/livecast/internal/camera"
	"github.com/smazurov/livecast/internal/endpoint"
)

// StreamInfo describes the configured stream.
type StreamInfo struct {
	Protocol   string `json:"protocol" example:"rtmp" doc:"Publish protocol"`
	URL        string `json:"url,omitempty" doc:"Publish URL with credentials masked"`
	Resolution string `json:"resolution" example:"1280x720" doc:"Encoded resolution"`
	BitrateBps int64  `json:"bitrate_bps" doc:"Current target video bitrate"`
	FPS        int    `json:"fps" doc:"Encoded frame rate"`
}

// ErrorInfo is the last session error.
type ErrorInfo struct {
	Code    Code   `json:"code" example:"AUTH_ERROR" doc:"Error code"`
	Message string `json:"message" doc:"Display text"`
}

// Status is a snapshot of the session.
type Status struct {
	SessionID  string           `json:"session_id" doc:"Session identifier"`
	State      string           `json:"state" example:"preview" doc:"Session state"`
	Streaming  bool             `json:"streaming" doc:"Stream output running"`
	Recording  bool             `json:"recording" doc:"Record output running"`
	Previewing bool             `json:"previewing" doc:"Preview running"`
	Muted      bool             `json:"muted" doc:"Microphone muted"`
	Surface    endpoint.Surface `json:"surface" doc:"Preview surface"`
	Stream     StreamInfo       `json:"stream" doc:"Stream information"`
	Camera     camera.Binding   `json:"camera" doc:"Bound camera"`
	Recordings []string         `json:"recordings,omitempty" doc:"Files recorded this session"`
	LastError  *ErrorInfo       `json:"last_error,omitempty" doc:"Last error until dismissed"`
}

// State returns the current state.
func (c *Controller) State() (State, error) {
	return query(c, func() State { return c.state })
}

// IsStreaming reports whether the stream output is running.
func (c *Controller) IsStreaming() bool {
	v, _ := query(c, func() bool { return c.ep != nil && c.ep.IsStreaming() })
	return v
}

// IsRecording reports whether the record output is running.
func (c *Controller) IsRecording() bool {
	v, _ := query(c, func() bool { return c.ep != nil && c.ep.IsRecording() })
	return v
}

// IsPreviewRunning reports whether the preview is being fed.
func (c *Controller) IsPreviewRunning() bool {
	v, _ := query(c, func() bool { return c.ep != nil && c.ep.IsPreviewing() })
	return v
}

// GetStreamInfo describes the configured stream.
func (c *Controller) GetStreamInfo() (StreamInfo, error) {
	return query(c, c.streamInfo)
}

// LastError returns the last error until dismissed.
func (c *Controller) LastError() (*SessionError, error) {
	return query(c, func() *SessionError { return c.lastErr })
}

// Status returns a snapshot of the session.
func (c *Controller) Status() (Status, error) {
	return query(c, func() Status {
		s := Status{
			SessionID:  c.id,
			State:      c.state.String(),
			Muted:      c.muted,
			Surface:    c.surface,
			Stream:     c.streamInfo(),
			Camera:     c.binding(),
			Recordings: append([]string(nil), c.recordings...),
		}
		if c.ep != nil {
			s.Streaming = c.ep.IsStreaming()
			s.Recording = c.ep.IsRecording()
			s.Previewing = c.ep.IsPreviewing()
		}
		if c.lastErr != nil {
			s.LastError = &ErrorInfo{Code: c.lastErr.Code, Message: c.lastErr.Display()}
		}
		return s
	})
}

func (c *Controller) streamInfo() StreamInfo {
	conn := c.settings.ConnectionSettings()
	video := c.settings.VideoParams()
	bps := video.BitrateBps
	if c.targetBps > 0 {
		bps = c.targetBps
	}
	return StreamInfo{
		Protocol:   conn.Protocol.String(),
		URL:        conn.Redacted(),
		Resolution: fmt.Sprintf("%dx%d", video.Width, video.Height),
		BitrateBps: bps,
		FPS:        video.FPS,
	}
}
