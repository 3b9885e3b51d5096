package session

// State is the session state. It is derived from what the endpoint is
// running, except for Error which is entered briefly on a forced stop.
type State int

// Session states.
const (
	Idle State = iota
	PreviewOnly
	Streaming
	Recording
	StreamingAndRecording
	Error
)

var stateNames = []string{"idle", "preview", "streaming", "recording", "streaming_recording", "error"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// StateNames lists every state name.
func StateNames() []string {
	return append([]string(nil), stateNames...)
}

// Streaming reports whether the stream output is running in s.
func (s State) Streaming() bool {
	return s == Streaming || s == StreamingAndRecording
}

// Recording reports whether the record output is running in s.
func (s State) Recording() bool {
	return s == Recording || s == StreamingAndRecording
}
