// Package endpoint puts the publish protocols behind one operation set.
//
// Each protocol family has a variant (RTMP, RTSP, SRT, UDP) over a shared
// base. Variants translate the session's publish URL and credentials into an
// encoder output; the capture, encode and transport work is done by the
// Encoder they wrap.
package endpoint

import (
	"github.com/smazurov/livecast/internal/devices"
	"github.com/smazurov/livecast/internal/protocol"
)

// Endpoint is the uniform operation surface over every protocol kind.
type Endpoint interface {
	Kind() protocol.Kind

	PrepareAudio(AudioParams) error
	PrepareVideo(VideoParams) error

	StartStream(url string) error
	StopStream()
	StartRecord(path string, listener RecordListener) error
	StopRecord()
	StartPreview(facing devices.Facing, rotationDeg int) error
	StopPreview()
	ReplaceView(Surface)

	SwitchCamera() error
	EnableLantern() error
	DisableLantern() error
	SetZoom(level float64)
	TapToFocus(x, y float64)
	CameraControl() (CameraControllable, bool)

	SetVideoBitrateOnFly(bps int64)
	SetAudioEnabled(enabled bool)
	SetAuthorization(user, pass string)
	SetProtocol(useTCP bool)
	HasCongestion() bool

	IsStreaming() bool
	IsRecording() bool
	IsPreviewing() bool
	Release()
}

// CameraControllable is implemented by capture sources that expose camera
// enumeration and controls. It is obtained through Endpoint.CameraControl.
type CameraControllable interface {
	CameraIDs() ([]string, error)
	CurrentCameraID() string
	Facing() devices.Facing
	OpenCamera(id string) error
	SetTorch(on bool) error
	TorchEnabled() bool
	ZoomRange() (minZoom, maxZoom float64, err error)
	Zoom() (float64, error)
	SetZoom(level float64) error
	Focus(x, y float64) error
}

// RecordListener follows one recording. A recording that spans encoder
// restarts is split into segments; OnRecordSegment reports each new file
// after the first.
type RecordListener interface {
	OnRecordStarted(path string)
	OnRecordSegment(path string)
	OnRecordStopped(paths []string, err error)
}
