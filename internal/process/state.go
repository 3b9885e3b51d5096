package process

import "time"

// State represents the current state of a supervised process.
type State string

// Process states.
const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateError    State = "error"
)

// Info is a point-in-time view of a Process.
type Info struct {
	ID           string    `json:"id"`
	State        State     `json:"state"`
	PID          int       `json:"pid,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	RestartCount int       `json:"restart_count"`
	LastError    error     `json:"-"`
}
