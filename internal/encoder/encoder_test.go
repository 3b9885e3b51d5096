package encoder

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/smazurov/livecast/internal/devices"
	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/process"
)

type fakeRunner struct {
	mu       sync.Mutex
	args     [][]string
	hooks    hooks
	exit     chan int
	shutdown bool
}

func (r *fakeRunner) RunWithRestart() int { return <-r.exit }

func (r *fakeRunner) RequestRestart(args []string) {
	r.mu.Lock()
	r.args = append(r.args, args)
	r.mu.Unlock()
}

func (r *fakeRunner) Shutdown() {
	r.mu.Lock()
	r.shutdown = true
	r.mu.Unlock()
}

func (r *fakeRunner) lastArgs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.args[len(r.args)-1]
}

// start simulates the latest requested command starting.
func (r *fakeRunner) start() {
	r.hooks.onStart(r.lastArgs())
}

func (r *fakeRunner) stdout(lines ...string) {
	for _, l := range lines {
		r.hooks.onLine(process.SourceStdout, l)
	}
}

func (r *fakeRunner) stderr(line string) {
	r.hooks.onLine(process.SourceStderr, line)
}

func (r *fakeRunner) progress(frame int, speed string, drops int) {
	r.stdout(
		"frame="+strconv.Itoa(frame),
		"fps=30.0",
		"bitrate=N/A",
		"drop_frames="+strconv.Itoa(drops),
		"speed="+speed,
		"progress=continue",
	)
}

type sinkRecorder struct {
	mu     sync.Mutex
	events []string
	rates  []int64
	levels []float64
}

func (s *sinkRecorder) add(e string) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *sinkRecorder) OnConnectionStarted(url string)   { s.add("started:" + url) }
func (s *sinkRecorder) OnConnectionSuccess()             { s.add("success") }
func (s *sinkRecorder) OnConnectionFailed(reason string) { s.add("failed:" + reason) }
func (s *sinkRecorder) OnDisconnect()                    { s.add("disconnect") }
func (s *sinkRecorder) OnAuthError()                     { s.add("auth_error") }
func (s *sinkRecorder) OnAuthSuccess()                   { s.add("auth_success") }

func (s *sinkRecorder) OnNewBitrate(bps int64) {
	s.mu.Lock()
	s.rates = append(s.rates, bps)
	s.mu.Unlock()
}

func (s *sinkRecorder) OnAudioLevel(db float64) {
	s.mu.Lock()
	s.levels = append(s.levels, db)
	s.mu.Unlock()
}

func (s *sinkRecorder) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

func (s *sinkRecorder) has(prefix string) bool {
	for _, e := range s.snapshot() {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}

type recordRecorder struct {
	mu       sync.Mutex
	started  string
	segments []string
	stopped  []string
	err      error
	done     bool
}

func (r *recordRecorder) OnRecordStarted(path string) {
	r.mu.Lock()
	r.started = path
	r.mu.Unlock()
}

func (r *recordRecorder) OnRecordSegment(path string) {
	r.mu.Lock()
	r.segments = append(r.segments, path)
	r.mu.Unlock()
}

func (r *recordRecorder) OnRecordStopped(paths []string, err error) {
	r.mu.Lock()
	r.stopped, r.err, r.done = paths, err, true
	r.mu.Unlock()
}

type harness struct {
	enc     *Encoder
	sink    *sinkRecorder
	runners []*fakeRunner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{sink: &sinkRecorder{}}
	h.enc = New(Config{Source: devices.NewSource(nil, devices.TestPatternID), AudioDevice: "hw:1,0"}, h.sink)
	h.enc.probe = func(string) error { return nil }
	h.enc.newRunner = func(args []string, hk hooks) runner {
		r := &fakeRunner{args: [][]string{args}, hooks: hk, exit: make(chan int, 1)}
		h.runners = append(h.runners, r)
		return r
	}
	if err := h.enc.PrepareVideo(endpoint.VideoParams{Width: 1280, Height: 720, FPS: 30, BitrateBps: 2_000_000}); err != nil {
		t.Fatalf("PrepareVideo: %v", err)
	}
	if err := h.enc.PrepareAudio(endpoint.AudioParams{Enabled: true, SampleRate: 48000, BitrateBps: 128000}); err != nil {
		t.Fatalf("PrepareAudio: %v", err)
	}
	return h
}

func (h *harness) runner(t *testing.T) *fakeRunner {
	t.Helper()
	if len(h.runners) == 0 {
		t.Fatal("no runner started")
	}
	return h.runners[len(h.runners)-1]
}

func rtmpTarget() endpoint.StreamTarget {
	return endpoint.StreamTarget{URL: "rtmp://127.0.0.1:1935/live/abc", Format: "flv"}
}

func tee(args []string) string { return args[len(args)-1] }

func TestStartRequiresPrepare(t *testing.T) {
	enc := New(Config{}, &sinkRecorder{})
	if err := enc.StartStream(rtmpTarget()); !errors.Is(err, endpoint.ErrNotPrepared) {
		t.Errorf("StartStream before prepare = %v, want ErrNotPrepared", err)
	}
	if err := enc.StartRecord(filepath.Join(t.TempDir(), "a.mp4"), nil); !errors.Is(err, endpoint.ErrNotPrepared) {
		t.Errorf("StartRecord before prepare = %v, want ErrNotPrepared", err)
	}
}

func TestPrepareAudioRejectsSampleRate(t *testing.T) {
	enc := New(Config{}, &sinkRecorder{})
	err := enc.PrepareAudio(endpoint.AudioParams{Enabled: true, SampleRate: 11025})
	if !errors.Is(err, endpoint.ErrUnsupportedAudioFormat) {
		t.Errorf("err = %v, want ErrUnsupportedAudioFormat", err)
	}
}

func TestPrepareAudioBusyDevice(t *testing.T) {
	enc := New(Config{AudioDevice: "hw:1,0"}, &sinkRecorder{})
	enc.probe = func(string) error { return endpoint.ErrAudioDeviceBusy }
	err := enc.PrepareAudio(endpoint.AudioParams{Enabled: true, SampleRate: 48000})
	if !errors.Is(err, endpoint.ErrAudioDeviceBusy) {
		t.Errorf("err = %v, want ErrAudioDeviceBusy", err)
	}
}

func TestPrepareAudioWhileCapturing(t *testing.T) {
	h := newHarness(t)
	h.enc.probe = func(string) error {
		h.enc.mu.Lock()
		running := h.enc.run != nil
		h.enc.mu.Unlock()
		if running {
			return endpoint.ErrAudioDeviceBusy
		}
		return nil
	}
	startPreview(t, h.enc)
	h.runner(t).start()

	if err := h.enc.PrepareAudio(endpoint.AudioParams{Enabled: true, SampleRate: 48000, BitrateBps: 96000}); err != nil {
		t.Fatalf("PrepareAudio while our process holds the microphone: %v", err)
	}
	if err := h.enc.StartStream(rtmpTarget()); err != nil {
		t.Fatalf("StartStream: %v", err)
	}
}

func TestPrepareAudioProbesWhenAudioWasDisabled(t *testing.T) {
	h := newHarness(t)
	if err := h.enc.PrepareAudio(endpoint.AudioParams{Enabled: false}); err != nil {
		t.Fatalf("PrepareAudio: %v", err)
	}
	startPreview(t, h.enc)
	h.enc.probe = func(string) error { return endpoint.ErrAudioDeviceBusy }
	err := h.enc.PrepareAudio(endpoint.AudioParams{Enabled: true, SampleRate: 48000})
	if !errors.Is(err, endpoint.ErrAudioDeviceBusy) {
		t.Errorf("err = %v, want ErrAudioDeviceBusy", err)
	}
}

func TestStartStreamLaunchesTee(t *testing.T) {
	h := newHarness(t)
	if err := h.enc.StartStream(rtmpTarget()); err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	if !h.enc.IsStreaming() {
		t.Fatal("expected streaming")
	}

	args := h.runner(t).lastArgs()
	if got, want := tee(args), "[f=flv:onfail=ignore]rtmp://127.0.0.1:1935/live/abc"; got != want {
		t.Errorf("tee = %q, want %q", got, want)
	}
	if !strings.Contains(strings.Join(args, " "), "testsrc2") {
		t.Error("test pattern source expected without a device")
	}
	if !h.sink.has("started:rtmp://127.0.0.1:1935/live/abc") {
		t.Errorf("events = %v", h.sink.snapshot())
	}
}

func TestSecondStartStreamIsNoop(t *testing.T) {
	h := newHarness(t)
	_ = h.enc.StartStream(rtmpTarget())
	_ = h.enc.StartStream(rtmpTarget())
	if len(h.runners) != 1 || len(h.runners[0].args) != 1 {
		t.Errorf("second start should not relaunch: runners=%d", len(h.runners))
	}
}

func TestConnectionSuccessOnSecondBlock(t *testing.T) {
	h := newHarness(t)
	_ = h.enc.StartStream(endpoint.StreamTarget{URL: "rtmp://u:p@host/live/abc", Format: "flv"})
	r := h.runner(t)
	r.start()

	r.progress(0, "0.0x", 0)
	r.progress(30, "1.0x", 0)
	if h.sink.has("success") {
		t.Fatal("success announced after one block with frames")
	}
	r.progress(60, "1.0x", 0)
	if !h.sink.has("success") || !h.sink.has("auth_success") {
		t.Fatalf("events = %v", h.sink.snapshot())
	}
	if len(h.sink.rates) == 0 || h.sink.rates[0] != 2_000_000 {
		t.Errorf("rates = %v, want estimate of 2000000", h.sink.rates)
	}
}

func TestAuthFailureStopsStream(t *testing.T) {
	h := newHarness(t)
	_ = h.enc.StartStream(rtmpTarget())
	r := h.runner(t)
	r.start()

	r.stderr("[rtmp @ 0x55] [error] Server error: 401 Unauthorized")
	r.stderr("[tee @ 0x56] [error] Slave muxer #0 failed: Input/output error, continuing with 0/1 slaves.")

	if h.enc.IsStreaming() {
		t.Error("stream should be dropped")
	}
	if !h.sink.has("auth_error") || h.sink.has("failed:") {
		t.Errorf("events = %v", h.sink.snapshot())
	}
}

func TestConnectionFailureReportsReason(t *testing.T) {
	h := newHarness(t)
	_ = h.enc.StartStream(rtmpTarget())
	r := h.runner(t)
	r.start()
	r.progress(30, "1.0x", 0)
	r.progress(60, "1.0x", 0)

	r.stderr("[tcp @ 0x55] [error] Connection reset by peer")
	r.stderr("[tee @ 0x56] [error] Slave muxer #0 failed: Broken pipe, continuing with 0/1 slaves.")

	events := h.sink.snapshot()
	if !h.sink.has("disconnect") || !h.sink.has("failed:[tcp @ 0x55] Connection reset by peer") {
		t.Errorf("events = %v", events)
	}
}

func TestStaleGenerationIgnored(t *testing.T) {
	h := newHarness(t)
	_ = h.enc.StartStream(rtmpTarget())
	old := h.runner(t)
	old.start()

	h.enc.StopStream()
	if !old.shutdown {
		t.Fatal("empty output set should shut the process down")
	}

	old.stderr("[tee @ 0x56] [error] Slave muxer #0 failed: Broken pipe")
	old.exit <- 255
	if h.sink.has("failed:") {
		t.Errorf("stale output produced events: %v", h.sink.snapshot())
	}
}

func TestStopStreamIdempotent(t *testing.T) {
	h := newHarness(t)
	h.enc.StopStream()
	h.enc.StopStream()
	if len(h.runners) != 0 {
		t.Error("stop without stream should not launch anything")
	}
}

func TestRecordSegmentsAcrossRestarts(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "rec", "clip.mp4")
	rec := &recordRecorder{}

	if err := h.enc.StartRecord(path, rec); err != nil {
		t.Fatalf("StartRecord: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("record file not created up-front: %v", err)
	}
	r := h.runner(t)
	r.start()
	if rec.started != path {
		t.Errorf("started = %q, want %q", rec.started, path)
	}

	if err := h.enc.StartStream(rtmpTarget()); err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	args := r.lastArgs()
	wantSegment := filepath.Join(filepath.Dir(path), "clip_001.mp4")
	if !strings.Contains(tee(args), wantSegment) {
		t.Errorf("restart tee %q should write %s", tee(args), wantSegment)
	}
	if !strings.HasPrefix(tee(args), "[f=flv") {
		t.Errorf("stream must be slave 0: %q", tee(args))
	}
	r.start()

	h.enc.StopRecord()
	if !rec.done || rec.err != nil {
		t.Fatalf("record stop not reported: %+v", rec)
	}
	if want := []string{path, wantSegment}; !reflect.DeepEqual(rec.stopped, want) {
		t.Errorf("paths = %v, want %v", rec.stopped, want)
	}
	if !reflect.DeepEqual(rec.segments, []string{wantSegment}) {
		t.Errorf("segments = %v", rec.segments)
	}
}

func TestStartRecordIOError(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.enc.StartRecord(filepath.Join(blocker, "clip.mp4"), nil); err == nil {
		t.Error("expected error creating record under a regular file")
	}
	if h.enc.IsRecording() {
		t.Error("failed record must not be active")
	}
}

func TestRecordSlaveFailure(t *testing.T) {
	h := newHarness(t)
	rec := &recordRecorder{}
	_ = h.enc.StartStream(rtmpTarget())
	_ = h.enc.StartRecord(filepath.Join(t.TempDir(), "clip.mp4"), rec)
	r := h.runner(t)
	r.start()

	r.stderr("[tee @ 0x56] [error] Slave muxer #1 failed: No space left on device, continuing with 1/2 slaves.")
	if h.enc.IsRecording() || !h.enc.IsStreaming() {
		t.Errorf("recording=%v streaming=%v", h.enc.IsRecording(), h.enc.IsStreaming())
	}
	if !rec.done || rec.err == nil {
		t.Errorf("record failure not reported: %+v", rec)
	}
}

func TestUnexpectedExitRestartsRemainingOutputs(t *testing.T) {
	h := newHarness(t)
	startPreview(t, h.enc)
	_ = h.enc.StartStream(rtmpTarget())
	r := h.runner(t)
	r.start()

	r.stderr("[tcp @ 0x55] [error] Connection refused")
	h.enc.onExit(h.enc.gen, 1)

	if h.enc.IsStreaming() || !h.enc.IsPreviewing() {
		t.Errorf("streaming=%v previewing=%v", h.enc.IsStreaming(), h.enc.IsPreviewing())
	}
	if !h.sink.has("failed:[tcp @ 0x55] Connection refused") {
		t.Errorf("events = %v", h.sink.snapshot())
	}
	if len(h.runners) != 2 {
		t.Fatalf("expected a new runner for the preview, got %d", len(h.runners))
	}
	if got := tee(h.runners[1].lastArgs()); !strings.Contains(got, "udp://127.0.0.1:5600") || strings.Contains(got, "rtmp") {
		t.Errorf("restart tee = %q", got)
	}
}

func TestUnexpectedExitFailsEverything(t *testing.T) {
	h := newHarness(t)
	rec := &recordRecorder{}
	startPreview(t, h.enc)
	_ = h.enc.StartRecord(filepath.Join(t.TempDir(), "clip.mp4"), rec)
	h.runner(t).start()

	h.enc.onExit(h.enc.gen, 1)

	if h.enc.IsPreviewing() || h.enc.IsRecording() {
		t.Error("outputs should be dropped after a crash")
	}
	if !rec.done || !errors.Is(rec.err, errEncoderExited) {
		t.Errorf("record err = %v", rec.err)
	}
}

// startPreview starts a UDP preview.
func startPreview(t *testing.T, e *Encoder) {
	t.Helper()
	e.ReplaceView(endpoint.Surface{Target: "udp://127.0.0.1:5600"})
	if err := e.StartPreview("", 0); err != nil {
		t.Fatalf("StartPreview: %v", err)
	}
}

func TestStartPreviewRequiresSurface(t *testing.T) {
	enc := New(Config{}, &sinkRecorder{})
	if err := enc.StartPreview("", 0); !errors.Is(err, endpoint.ErrNoSurface) {
		t.Errorf("err = %v, want ErrNoSurface", err)
	}
}

func TestPreviewDefaultsWithoutPrepare(t *testing.T) {
	sink := &sinkRecorder{}
	enc := New(Config{}, sink)
	var captured []string
	enc.newRunner = func(args []string, _ hooks) runner {
		captured = args
		return &fakeRunner{exit: make(chan int)}
	}
	enc.ReplaceView(endpoint.Surface{Target: "/tmp/preview.jpg", Format: "image2"})
	if err := enc.StartPreview("", 0); err != nil {
		t.Fatalf("StartPreview: %v", err)
	}

	cmd := strings.Join(captured, " ")
	if !strings.Contains(cmd, "size=1280x720:rate=30") || !strings.Contains(cmd, "-b:v 2500000") {
		t.Errorf("default preview geometry missing: %s", cmd)
	}
	if got := tee(captured); got != "[f=image2:onfail=ignore:update=1]/tmp/preview.jpg" {
		t.Errorf("tee = %q", got)
	}
}

func TestSetVideoBitrateThreshold(t *testing.T) {
	h := newHarness(t)
	_ = h.enc.StartStream(rtmpTarget())
	r := h.runner(t)

	h.enc.SetVideoBitrate(2_100_000)
	if len(r.args) != 1 {
		t.Error("5% change should be ignored")
	}
	h.enc.SetVideoBitrate(1_600_000)
	if len(r.args) != 2 || !strings.Contains(strings.Join(r.lastArgs(), " "), "-b:v 1600000") {
		t.Errorf("20%% change should restart with the new rate: %v", r.lastArgs())
	}
}

func TestCongestionFromSpeedAndDrops(t *testing.T) {
	h := newHarness(t)
	_ = h.enc.StartStream(rtmpTarget())
	r := h.runner(t)
	r.start()

	r.progress(30, "0.90x", 0)
	if h.enc.HasCongestion() {
		t.Error("one slow block is not congestion")
	}
	r.progress(60, "0.90x", 0)
	if !h.enc.HasCongestion() {
		t.Error("two slow blocks should be congestion")
	}
	r.progress(90, "1.00x", 0)
	if h.enc.HasCongestion() {
		t.Error("recovered speed should clear congestion")
	}
	r.progress(110, "1.00x", 10)
	if !h.enc.HasCongestion() {
		t.Error("rising drops should be congestion")
	}
}

func TestAudioLevelForwarded(t *testing.T) {
	h := newHarness(t)
	_ = h.enc.StartStream(rtmpTarget())
	r := h.runner(t)
	r.start()
	r.stderr("[Parsed_ametadata_2 @ 0x1] [info] lavfi.astats.Overall.RMS_level=-23.5")

	if len(h.sink.levels) != 1 || h.sink.levels[0] != -23.5 {
		t.Errorf("levels = %v", h.sink.levels)
	}
}

func TestMutedAudioUsesSilence(t *testing.T) {
	h := newHarness(t)
	_ = h.enc.StartStream(rtmpTarget())
	if cmd := strings.Join(h.runner(t).lastArgs(), " "); !strings.Contains(cmd, "-f alsa") || strings.Contains(cmd, "anullsrc") {
		t.Fatalf("unmuted command should capture from alsa: %s", cmd)
	}
	h.enc.SetAudioEnabled(false)

	if cmd := strings.Join(h.runner(t).lastArgs(), " "); !strings.Contains(cmd, "anullsrc") {
		t.Errorf("muted command should use anullsrc: %s", cmd)
	}
}

func TestReleaseStopsEverything(t *testing.T) {
	h := newHarness(t)
	_ = h.enc.StartStream(rtmpTarget())
	r := h.runner(t)

	h.enc.Release()
	h.enc.Release()
	if !r.shutdown || h.enc.IsStreaming() {
		t.Error("release should shut the process down")
	}
	if err := h.enc.StartStream(rtmpTarget()); !errors.Is(err, endpoint.ErrReleased) {
		t.Errorf("start after release = %v", err)
	}
}

func TestSegmentPath(t *testing.T) {
	if got := segmentPath("/data/clip.mp4", 2); got != "/data/clip_002.mp4" {
		t.Errorf("segmentPath = %q", got)
	}
}

func TestEstimateBitrate(t *testing.T) {
	tests := []struct {
		name   string
		speed  float64
		frames int64
		drops  int64
		want   int64
	}{
		{"real time", 1.0, 30, 0, 1000},
		{"faster than real time", 1.5, 30, 0, 1000},
		{"slow", 0.5, 30, 0, 500},
		{"dropping", 1.0, 15, 15, 500},
		{"unknown speed", 0, 30, 0, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateBitrate(1000, tt.speed, tt.frames, tt.drops); got != tt.want {
				t.Errorf("estimateBitrate = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHasCredentials(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"rtmp://u:p@host/live", true},
		{"rtmp://host/live", false},
		{"srt://h:1?streamid=publish:live:u:p", true},
		{"srt://h:1?streamid=publish:live", false},
	}
	for _, tt := range tests {
		if got := hasCredentials(tt.url); got != tt.want {
			t.Errorf("hasCredentials(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
