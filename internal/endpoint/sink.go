package endpoint

// ConnectionEventSink receives transport events from the active endpoint.
// Implementations must not block: calls arrive on encoder goroutines.
type ConnectionEventSink interface {
	OnConnectionStarted(url string)
	OnConnectionSuccess()
	OnConnectionFailed(reason string)
	OnNewBitrate(bps int64)
	OnDisconnect()
	OnAuthError()
	OnAuthSuccess()
}

// AudioLevelSink is optionally implemented by a ConnectionEventSink that
// wants microphone level readings in dBFS.
type AudioLevelSink interface {
	OnAudioLevel(levelDB float64)
}
