package events

// Event type constants for kelindar/event.
const (
	TypeSessionStateChanged uint32 = iota + 1
	TypeStreamStopped
	TypeAudioLevel
	TypePreviewStatus
	TypeNewBitrate
	TypeTookPicture
	TypeAuthError
	TypeConnectionFailed
	TypeCameraChanged
	TypeDeviceDiscovery
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SessionStateChangedEvent is published on every session state transition.
type SessionStateChangedEvent struct {
	SessionID     string `json:"session_id" doc:"Session identifier"`
	PreviousState string `json:"previous_state" example:"preview" doc:"State before the transition"`
	State         string `json:"state" example:"streaming" doc:"State after the transition"`
	Reason        string `json:"reason,omitempty" example:"auth_error" doc:"Error reason when state is error"`
	Timestamp     string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionStateChangedEvent.
func (e SessionStateChangedEvent) Type() uint32 { return TypeSessionStateChanged }

// StreamStoppedEvent is published when the outgoing stream ends, whether
// requested by the user or forced by a transport failure.
type StreamStoppedEvent struct {
	Reason    string `json:"reason" example:"user" doc:"Why the stream stopped"`
	Message   string `json:"message,omitempty" doc:"Display text for the notification layer"`
	Action    string `json:"action,omitempty" example:"start-stream" doc:"Control action offered to the user"`
	Timestamp string `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for StreamStoppedEvent.
func (e StreamStoppedEvent) Type() uint32 { return TypeStreamStopped }

// AudioLevelEvent carries the microphone RMS level in dBFS.
type AudioLevelEvent struct {
	LevelDB   float64 `json:"level_db" example:"-23.5" doc:"RMS level in dBFS"`
	Timestamp string  `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for AudioLevelEvent.
func (e AudioLevelEvent) Type() uint32 { return TypeAudioLevel }

// PreviewStatusEvent reports whether the preview surface is being fed.
type PreviewStatusEvent struct {
	Running   bool   `json:"running" doc:"Preview running"`
	Target    string `json:"target,omitempty" example:"udp://127.0.0.1:5600" doc:"Preview surface target"`
	Timestamp string `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for PreviewStatusEvent.
func (e PreviewStatusEvent) Type() uint32 { return TypePreviewStatus }

// NewBitrateEvent is published for every measured bitrate report.
type NewBitrateEvent struct {
	MeasuredBps int64  `json:"measured_bps" example:"2457600" doc:"Measured output bitrate"`
	TargetBps   int64  `json:"target_bps,omitempty" doc:"Target bitrate after adaptation"`
	Congested   bool   `json:"congested" doc:"Transport reported congestion"`
	Timestamp   string `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for NewBitrateEvent.
func (e NewBitrateEvent) Type() uint32 { return TypeNewBitrate }

// TookPictureEvent is published when a photo capture completes.
type TookPictureEvent struct {
	Path      string `json:"path,omitempty" example:"/var/lib/livecast/photos/p.jpg" doc:"Saved photo path"`
	Error     string `json:"error,omitempty" doc:"Failure reason"`
	Timestamp string `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for TookPictureEvent.
func (e TookPictureEvent) Type() uint32 { return TypeTookPicture }

// AuthErrorEvent is published when the remote endpoint rejects credentials.
type AuthErrorEvent struct {
	Protocol  string `json:"protocol" example:"rtmp" doc:"Protocol in use"`
	Message   string `json:"message" doc:"Display text"`
	Timestamp string `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for AuthErrorEvent.
func (e AuthErrorEvent) Type() uint32 { return TypeAuthError }

// ConnectionFailedEvent is published when the transport connection fails.
type ConnectionFailedEvent struct {
	Protocol  string `json:"protocol" example:"srt" doc:"Protocol in use"`
	Reason    string `json:"reason" doc:"Failure reason reported by the transport"`
	WillRetry bool   `json:"will_retry" doc:"A reconnect attempt is scheduled"`
	Attempt   int    `json:"attempt,omitempty" doc:"Reconnect attempt number"`
	RetryIn   string `json:"retry_in,omitempty" example:"4s" doc:"Delay before the next attempt"`
	Timestamp string `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConnectionFailedEvent.
func (e ConnectionFailedEvent) Type() uint32 { return TypeConnectionFailed }

// CameraChangedEvent is published after a camera switch or torch toggle.
type CameraChangedEvent struct {
	CameraID     string  `json:"camera_id" example:"/dev/video0" doc:"Bound camera"`
	Facing       string  `json:"facing" example:"back" doc:"Camera facing"`
	TorchEnabled bool    `json:"torch_enabled" doc:"Torch state"`
	Zoom         float64 `json:"zoom" doc:"Current zoom level"`
	Timestamp    string  `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for CameraChangedEvent.
func (e CameraChangedEvent) Type() uint32 { return TypeCameraChanged }

// DeviceDiscoveryEvent represents camera hotplug events.
type DeviceDiscoveryEvent struct {
	DevicePath string `json:"device_path" example:"/dev/video0" doc:"Device node"`
	DeviceName string `json:"device_name" example:"USB Camera" doc:"Device card name"`
	DeviceID   string `json:"device_id" example:"usb-046d_C920-video-index0" doc:"Stable device identifier"`
	Action     string `json:"action" example:"added" doc:"Action type: added, removed"`
	Timestamp  string `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceDiscoveryEvent.
func (e DeviceDiscoveryEvent) Type() uint32 { return TypeDeviceDiscovery }
