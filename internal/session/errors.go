package session

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/smazurov/livecast/internal/endpoint"
)

// ErrStopped is returned by calls made after the controller loop exited.
var ErrStopped = errors.New("session controller stopped")

// Code classifies a session error.
type Code string

// Error codes.
const (
	CodePrepareFailed     Code = "PREPARE_FAILED"
	CodeAuthError         Code = "AUTH_ERROR"
	CodeConnectionFailed  Code = "CONNECTION_FAILED"
	CodeCameraUnavailable Code = "CAMERA_UNAVAILABLE"
	CodeRecordingIOError  Code = "RECORDING_IO_ERROR"
	CodePermissionDenied  Code = "PERMISSION_DENIED"
	CodeEmptyURL          Code = "EMPTY_URL"
	CodeInvalidState      Code = "INVALID_STATE"
)

// SessionError is returned by controller operations and carried by forced
// stops.
type SessionError struct {
	Code    Code
	Message string
	Cause   error
}

func newError(code Code, message string, cause error) *SessionError {
	return &SessionError{Code: code, Message: message, Cause: cause}
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// Reason returns the stop reason the error stands for.
func (e *SessionError) Reason() Reason {
	return Reason{Code: e.Code, Detail: e.Message}
}

// Display returns text fit for a user notification.
func (e *SessionError) Display() string {
	return e.Reason().Display()
}

// CodeOf returns the code of the SessionError in err's chain, or "".
func CodeOf(err error) Code {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Reason is why the session left a state. An empty Code is a user stop.
type Reason struct {
	Code   Code   `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Display returns text fit for a user notification.
func (r Reason) Display() string {
	var text string
	switch r.Code {
	case "":
		return "Stream stopped"
	case CodePrepareFailed:
		text = "Could not prepare the encoder"
	case CodeAuthError:
		return "Authentication failed, check the username and password"
	case CodeConnectionFailed:
		text = "Connection failed"
	case CodeCameraUnavailable:
		text = "Camera unavailable"
	case CodeRecordingIOError:
		text = "Could not save the recording"
	case CodePermissionDenied:
		return "Permission denied"
	case CodeEmptyURL:
		return "No stream address configured"
	case CodeInvalidState:
		text = "Not possible right now"
	default:
		text = string(r.Code)
	}
	if r.Detail != "" {
		text += ": " + r.Detail
	}
	return text
}

// classify picks the code for an endpoint error, defaulting to fallback.
func classify(err error, fallback Code) Code {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return CodePermissionDenied
	case errors.Is(err, endpoint.ErrReleased), errors.Is(err, endpoint.ErrNotPrepared):
		return CodeInvalidState
	default:
		return fallback
	}
}
