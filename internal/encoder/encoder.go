// Package encoder runs the capture, encode and transport primitive behind
// every endpoint: one supervised ffmpeg process whose outputs (stream,
// record, preview) are slaves of a tee muxer.
//
// Changing the output set restarts the process with the new set; an empty
// set shuts it down. Connection events are derived from the process's
// progress blocks and stderr and delivered to the endpoint's sink.
package encoder

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smazurov/livecast/internal/devices"
	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/ffmpeg"
	"github.com/smazurov/livecast/internal/logging"
	"github.com/smazurov/livecast/internal/metrics"
)

// minBitrateChange is the relative change below which SetVideoBitrate is
// ignored.
const minBitrateChange = 0.10

// defaultPreview is used for a preview started before PrepareVideo.
var defaultPreview = endpoint.VideoParams{Width: 1280, Height: 720, FPS: 30, BitrateBps: 2_500_000}

// Config is the host-level encoder configuration shared by every endpoint.
type Config struct {
	Source           *devices.Source // nil selects a test pattern
	InputFormat      string          // v4l2 input format, e.g. mjpeg
	VideoEncoder     string          // libx264 when empty
	Preset           string
	Options          []ffmpeg.OptionType
	AudioDevice      string // ALSA device such as hw:1,0; empty publishes silence
	EchoCancelSource string // pulse source with echo cancellation applied
	AudioLevelMeter  bool
}

type streamOutput struct {
	target    endpoint.StreamTarget
	withAuth  bool
	blocks    int
	connected bool
	announced bool
}

type recording struct {
	path     string
	current  string
	segment  int
	used     bool
	paths    []string
	listener endpoint.RecordListener
}

// launch pairs a requested tee spec with the outputs it encodes.
type launch struct {
	tee     string
	outputs []ffmpeg.Output
}

// Encoder implements endpoint.Encoder on top of an ffmpeg process.
type Encoder struct {
	cfg       Config
	sink      endpoint.ConnectionEventSink
	logger    *slog.Logger
	newRunner runnerFactory
	probe     func(device string) error

	mu           sync.Mutex
	audio        *endpoint.AudioParams
	video        *endpoint.VideoParams
	audioEnabled bool
	bitrate      int64
	stream       *streamOutput
	record       *recording
	preview      bool
	rotation     int
	surface      endpoint.Surface
	released     bool

	run      runner
	gen      uint64
	launches []launch
	outputs  []ffmpeg.Output // outputs of the running process

	parser        ffmpeg.ProgressParser
	lastFrames    int64
	lastDrops     int64
	slowBlocks    int
	dropping      bool
	pendingAuth   bool
	pendingReason string
	streamFault   bool

	queue []func()
}

var _ endpoint.Encoder = (*Encoder)(nil)

// New creates an encoder reporting to sink.
func New(cfg Config, sink endpoint.ConnectionEventSink) *Encoder {
	return &Encoder{
		cfg:          cfg,
		sink:         sink,
		logger:       logging.GetLogger("encoder"),
		newRunner:    newProcessRunner,
		probe:        probeAudioDevice,
		audioEnabled: true,
	}
}

// Factory returns an endpoint.EncoderFactory building encoders from cfg.
func Factory(cfg Config) endpoint.EncoderFactory {
	return func(sink endpoint.ConnectionEventSink) endpoint.Encoder {
		return New(cfg, sink)
	}
}

// notify queues fn to run once the lock is released. Must hold e.mu.
func (e *Encoder) notify(fn func()) {
	e.queue = append(e.queue, fn)
}

// unlock releases e.mu and runs the queued notifications.
func (e *Encoder) unlock() {
	queued := e.queue
	e.queue = nil
	e.mu.Unlock()
	for _, fn := range queued {
		fn()
	}
}

// PrepareAudio validates p and checks that the microphone is free.
func (e *Encoder) PrepareAudio(p endpoint.AudioParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Enabled && e.cfg.AudioDevice != "" && !e.holdsMicrophone() {
		if err := e.probe(e.cfg.AudioDevice); err != nil {
			return err
		}
	}
	if p.EchoCancel && e.cfg.EchoCancelSource == "" {
		e.logger.Warn("Echo cancellation requested but no echo-cancel source is configured, ignoring")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.audio = &p
	return nil
}

// holdsMicrophone reports whether the running process already captures the
// configured microphone. The kernel reports our own handle as busy.
func (e *Encoder) holdsMicrophone() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run != nil && e.audio != nil && e.audio.Enabled
}

// PrepareVideo validates p and sets the initial bitrate.
func (e *Encoder) PrepareVideo(p endpoint.VideoParams) error {
	if err := p.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.video = &p
	e.bitrate = p.BitrateBps
	metrics.SetTargetBitrate(p.BitrateBps)
	return nil
}

func (e *Encoder) preparedLocked() error {
	if e.released {
		return endpoint.ErrReleased
	}
	if e.audio == nil || e.video == nil {
		return endpoint.ErrNotPrepared
	}
	return nil
}

// StartStream adds the stream output.
func (e *Encoder) StartStream(target endpoint.StreamTarget) error {
	e.mu.Lock()
	defer e.unlock()

	if err := e.preparedLocked(); err != nil {
		return err
	}
	if e.stream != nil {
		return nil
	}
	if err := e.bindCameraLocked(""); err != nil {
		return err
	}

	e.stream = &streamOutput{target: target, withAuth: hasCredentials(target.URL)}
	if err := e.applyLocked(); err != nil {
		e.stream = nil
		return err
	}

	u := target.URL
	e.notify(func() { e.sink.OnConnectionStarted(u) })
	return nil
}

// StopStream removes the stream output. It is idempotent.
func (e *Encoder) StopStream() {
	e.mu.Lock()
	defer e.unlock()

	if e.stream == nil {
		return
	}
	e.stream = nil
	e.applyOrFailLocked()
}

// StartRecord creates path and adds the record output.
func (e *Encoder) StartRecord(path string, listener endpoint.RecordListener) error {
	e.mu.Lock()
	defer e.unlock()

	if err := e.preparedLocked(); err != nil {
		return err
	}
	if e.record != nil {
		return nil
	}
	if err := createRecordFile(path); err != nil {
		return err
	}
	if err := e.bindCameraLocked(""); err != nil {
		return err
	}

	e.record = &recording{path: path, current: path, listener: listener}
	if err := e.applyLocked(); err != nil {
		e.record = nil
		return err
	}
	return nil
}

// StopRecord removes the record output and reports the files written.
func (e *Encoder) StopRecord() {
	e.mu.Lock()
	defer e.unlock()

	rec := e.record
	if rec == nil {
		return
	}
	e.record = nil
	e.applyOrFailLocked()
	e.notifyRecordStopped(rec, nil)
}

// StartPreview adds the preview output on the current surface.
func (e *Encoder) StartPreview(facing devices.Facing, rotationDeg int) error {
	e.mu.Lock()
	defer e.unlock()

	if e.released {
		return endpoint.ErrReleased
	}
	if e.surface.IsZero() {
		return endpoint.ErrNoSurface
	}
	if err := e.bindCameraLocked(facing); err != nil {
		return err
	}

	wasPreviewing, oldRotation := e.preview, e.rotation
	e.preview, e.rotation = true, rotationDeg
	if wasPreviewing && oldRotation == rotationDeg {
		return nil
	}
	if err := e.applyLocked(); err != nil {
		e.preview, e.rotation = wasPreviewing, oldRotation
		return err
	}
	return nil
}

// StopPreview removes the preview output. It is idempotent.
func (e *Encoder) StopPreview() {
	e.mu.Lock()
	defer e.unlock()

	if !e.preview {
		return
	}
	e.preview = false
	e.applyOrFailLocked()
}

// ReplaceView sets the preview surface used by the next StartPreview.
func (e *Encoder) ReplaceView(s endpoint.Surface) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface = s
}

// SwitchCamera binds the next camera and restarts a running process on it.
func (e *Encoder) SwitchCamera() error {
	src := e.cfg.Source
	if src == nil {
		return devices.ErrUnsupported
	}
	if err := src.Next(); err != nil {
		return err
	}
	return e.cameraChanged()
}

// cameraChanged restarts a running process so it captures from the newly
// bound device.
func (e *Encoder) cameraChanged() error {
	e.mu.Lock()
	defer e.unlock()
	if e.run == nil {
		return nil
	}
	return e.applyLocked()
}

// SetTorch switches the bound camera's flash LED.
func (e *Encoder) SetTorch(on bool) error {
	if e.cfg.Source == nil {
		return devices.ErrUnsupported
	}
	return e.cfg.Source.SetTorch(on)
}

// SetZoom sets the zoom level on the bound camera.
func (e *Encoder) SetZoom(level float64) {
	if e.cfg.Source == nil {
		return
	}
	if err := e.cfg.Source.SetZoom(level); err != nil {
		e.logger.Debug("Zoom not applied", "level", level, "error", err)
	}
}

// TapToFocus triggers focus on the bound camera.
func (e *Encoder) TapToFocus(x, y float64) {
	if e.cfg.Source == nil {
		return
	}
	if err := e.cfg.Source.Focus(x, y); err != nil {
		e.logger.Debug("Focus not applied", "x", x, "y", y, "error", err)
	}
}

// CameraControl exposes the capture source. Opening a camera through it
// restarts a running process on the new device.
func (e *Encoder) CameraControl() (endpoint.CameraControllable, bool) {
	if e.cfg.Source == nil {
		return nil, false
	}
	return cameraControl{Source: e.cfg.Source, enc: e}, true
}

// SetVideoBitrate changes the target bitrate. Changes under 10% are ignored;
// others restart a running process.
func (e *Encoder) SetVideoBitrate(bps int64) {
	e.mu.Lock()
	defer e.unlock()

	if bps <= 0 || bps == e.bitrate {
		return
	}
	if e.bitrate > 0 {
		delta := float64(bps-e.bitrate) / float64(e.bitrate)
		if delta < minBitrateChange && delta > -minBitrateChange {
			e.logger.Debug("Ignoring small bitrate change", "current", e.bitrate, "requested", bps)
			return
		}
	}

	e.logger.Info("Changing video bitrate", "from", e.bitrate, "to", bps)
	e.bitrate = bps
	metrics.SetTargetBitrate(bps)
	if e.run != nil {
		e.applyOrFailLocked()
	}
}

// SetAudioEnabled mutes or unmutes the microphone.
func (e *Encoder) SetAudioEnabled(enabled bool) {
	e.mu.Lock()
	defer e.unlock()

	if e.audioEnabled == enabled {
		return
	}
	e.audioEnabled = enabled
	if e.run != nil && e.audio != nil && e.audio.Enabled {
		e.applyOrFailLocked()
	}
}

// HasCongestion reports whether the encoder is falling behind real time or
// dropping frames.
func (e *Encoder) HasCongestion() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.congestedLocked()
}

func (e *Encoder) congestedLocked() bool {
	return e.slowBlocks >= 2 || e.dropping
}

// IsStreaming reports whether the stream output is active.
func (e *Encoder) IsStreaming() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stream != nil
}

// IsRecording reports whether the record output is active.
func (e *Encoder) IsRecording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record != nil
}

// IsPreviewing reports whether the preview output is active.
func (e *Encoder) IsPreviewing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.preview
}

// Release stops every output and unbinds the camera.
func (e *Encoder) Release() {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return
	}
	e.released = true
	rec := e.record
	e.stream, e.record, e.preview = nil, nil, false
	e.shutdownLocked()
	if rec != nil {
		e.notifyRecordStopped(rec, nil)
	}
	e.unlock()

	if e.cfg.Source != nil {
		e.cfg.Source.Close()
	}
}

// bindCameraLocked opens a camera when none is bound, preferring one with
// the requested facing.
func (e *Encoder) bindCameraLocked(facing devices.Facing) error {
	src := e.cfg.Source
	if src == nil {
		return nil
	}
	if !src.Bound() {
		if err := src.OpenCamera(""); err != nil {
			return err
		}
	}
	if facing == "" || src.Facing() == facing {
		return nil
	}

	ids, err := src.CameraIDs()
	if err != nil {
		return err
	}
	start := src.CurrentCameraID()
	for range ids {
		if err := src.Next(); err != nil {
			return err
		}
		if src.Facing() == facing {
			return nil
		}
	}
	e.logger.Warn("No camera with requested facing, keeping current", "facing", facing, "camera_id", start)
	return nil
}

func (e *Encoder) notifyRecordStopped(rec *recording, err error) {
	if rec.listener == nil {
		return
	}
	paths := append([]string(nil), rec.paths...)
	if len(paths) == 0 {
		paths = []string{rec.current}
	}
	e.notify(func() { rec.listener.OnRecordStopped(paths, err) })
}

func createRecordFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create record file: %w", err)
	}
	return f.Close()
}

func hasCredentials(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.User != nil {
		return true
	}
	// SRT carries credentials in the stream id: publish:path:user:pass.
	return u.Scheme == "srt" && len(strings.Split(u.Query().Get("streamid"), ":")) >= 4
}

// errEncoderExited is the cause reported when the process dies on its own.
var errEncoderExited = errors.New("encoder exited")
