package endpoint

import "github.com/smazurov/livecast/internal/devices"

// Encoder is the capture, encode and transport primitive an endpoint wraps.
type Encoder interface {
	PrepareAudio(AudioParams) error
	PrepareVideo(VideoParams) error

	StartStream(StreamTarget) error
	StopStream()
	StartRecord(path string, listener RecordListener) error
	StopRecord()
	StartPreview(facing devices.Facing, rotationDeg int) error
	StopPreview()
	ReplaceView(Surface)

	SwitchCamera() error
	SetTorch(on bool) error
	SetZoom(level float64)
	TapToFocus(x, y float64)
	CameraControl() (CameraControllable, bool)

	SetVideoBitrate(bps int64)
	SetAudioEnabled(enabled bool)
	HasCongestion() bool

	IsStreaming() bool
	IsRecording() bool
	IsPreviewing() bool
	Release()
}

// EncoderFactory creates an encoder reporting to sink.
type EncoderFactory func(sink ConnectionEventSink) Encoder
