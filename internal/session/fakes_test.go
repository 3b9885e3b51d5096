package session

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/livecast/internal/capture"
	"github.com/smazurov/livecast/internal/devices"
	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/events"
	"github.com/smazurov/livecast/internal/protocol"
	"github.com/smazurov/livecast/internal/settings"
)

// callLog records endpoint and factory calls in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeEndpoint struct {
	kind protocol.Kind
	sink endpoint.ConnectionEventSink
	log  *callLog

	mu              sync.Mutex
	streaming       bool
	recording       bool
	previewing      bool
	released        bool
	surface         endpoint.Surface
	streamURL       string
	starts          int
	bitrates        []int64
	congested       bool
	audioEnabled    bool
	user, pass      string
	listener        endpoint.RecordListener
	prepareVideoErr error
	startStreamErr  error
	startRecordErr  error
}

func (f *fakeEndpoint) Kind() protocol.Kind { return f.kind }

func (f *fakeEndpoint) PrepareAudio(endpoint.AudioParams) error {
	f.log.add(string(f.kind) + ":prepare-audio")
	return nil
}

func (f *fakeEndpoint) PrepareVideo(endpoint.VideoParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add(string(f.kind) + ":prepare-video")
	return f.prepareVideoErr
}

func (f *fakeEndpoint) StartStream(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add(string(f.kind) + ":start-stream")
	if f.startStreamErr != nil {
		return f.startStreamErr
	}
	f.streaming = true
	f.streamURL = url
	f.starts++
	return nil
}

func (f *fakeEndpoint) StopStream() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add(string(f.kind) + ":stop-stream")
	f.streaming = false
}

func (f *fakeEndpoint) StartRecord(path string, listener endpoint.RecordListener) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startRecordErr != nil {
		return f.startRecordErr
	}
	f.recording = true
	f.listener = listener
	return nil
}

func (f *fakeEndpoint) StopRecord() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recording = false
}

func (f *fakeEndpoint) StartPreview(devices.Facing, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add(string(f.kind) + ":start-preview")
	f.previewing = true
	return nil
}

func (f *fakeEndpoint) StopPreview() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add(string(f.kind) + ":stop-preview")
	f.previewing = false
}

func (f *fakeEndpoint) ReplaceView(s endpoint.Surface) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.surface = s
}

func (f *fakeEndpoint) SwitchCamera() error     { return nil }
func (f *fakeEndpoint) EnableLantern() error    { return nil }
func (f *fakeEndpoint) DisableLantern() error   { return nil }
func (f *fakeEndpoint) SetZoom(float64)         {}
func (f *fakeEndpoint) TapToFocus(_, _ float64) {}

func (f *fakeEndpoint) CameraControl() (endpoint.CameraControllable, bool) { return nil, false }

func (f *fakeEndpoint) SetVideoBitrateOnFly(bps int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bitrates = append(f.bitrates, bps)
}

func (f *fakeEndpoint) SetAudioEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audioEnabled = enabled
}

func (f *fakeEndpoint) SetAuthorization(user, pass string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user, f.pass = user, pass
}

func (f *fakeEndpoint) SetProtocol(bool) {}

func (f *fakeEndpoint) HasCongestion() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.congested
}

func (f *fakeEndpoint) IsStreaming() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streaming
}

func (f *fakeEndpoint) IsRecording() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recording
}

func (f *fakeEndpoint) IsPreviewing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.previewing
}

func (f *fakeEndpoint) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add(string(f.kind) + ":release")
	f.released = true
	f.streaming, f.recording, f.previewing = false, false, false
}

func (f *fakeEndpoint) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

type fakeFactory struct {
	log *callLog

	mu  sync.Mutex
	eps []*fakeEndpoint
}

func (f *fakeFactory) New(s protocol.ConnectionSettings, sink endpoint.ConnectionEventSink) (endpoint.Endpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.add("new:" + string(s.Protocol))
	ep := &fakeEndpoint{kind: s.Protocol, sink: sink, log: f.log, audioEnabled: true}
	f.eps = append(f.eps, ep)
	return ep, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.eps)
}

func (f *fakeFactory) last() *fakeEndpoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.eps) == 0 {
		return nil
	}
	return f.eps[len(f.eps)-1]
}

type fakePhotos struct {
	err error
}

func (p fakePhotos) Capture(_ context.Context, req capture.Request) error {
	if p.err != nil {
		return p.err
	}
	return os.WriteFile(req.OutputPath, []byte{0xff, 0xd8}, 0o644)
}

var testSurface = endpoint.Surface{Target: "udp://127.0.0.1:5600"}

type harness struct {
	c       *Controller
	factory *fakeFactory
	log     *callLog
	bus     *events.Bus
	exited  chan struct{}
}

func newHarness(t *testing.T, mutate func(*settings.Settings)) *harness {
	t.Helper()
	s := settings.Defaults()
	s.Connection.Address = "127.0.0.1"
	s.Connection.StreamKey = "abc"
	s.Reconnect.NetworkTimeout = settings.Duration{}
	s.Storage.RecordDir = t.TempDir()
	s.Storage.PhotoDir = t.TempDir()
	if mutate != nil {
		mutate(&s)
	}

	log := &callLog{}
	h := &harness{
		factory: &fakeFactory{log: log},
		log:     log,
		bus:     events.New(),
		exited:  make(chan struct{}, 1),
	}
	h.c = New(Options{
		Settings: s,
		Factory:  h.factory,
		Bus:      h.bus,
		Photos:   fakePhotos{},
		OnExit:   func() { h.exited <- struct{}{} },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.c.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

// preview starts the preview and returns the endpoint.
func (h *harness) preview(t *testing.T) *fakeEndpoint {
	t.Helper()
	if err := h.c.StartPreview(testSurface); err != nil {
		t.Fatalf("StartPreview: %v", err)
	}
	return h.factory.last()
}

// streaming starts preview and stream and returns the endpoint.
func (h *harness) streaming(t *testing.T) *fakeEndpoint {
	t.Helper()
	ep := h.preview(t)
	if err := h.c.StartStream(); err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	return ep
}

func (h *harness) state(t *testing.T) State {
	t.Helper()
	st, err := h.c.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	return st
}

func (h *harness) wantState(t *testing.T, want State) {
	t.Helper()
	if got := h.state(t); got != want {
		t.Fatalf("state = %s, want %s", got, want)
	}
}

// subscribe collects events of type T.
func subscribe[T any](t *testing.T, bus *events.Bus) <-chan T {
	t.Helper()
	ch := make(chan T, 64)
	unsubscribe := bus.Subscribe(func(ev T) {
		select {
		case ch <- ev:
		default:
		}
	})
	t.Cleanup(unsubscribe)
	return ch
}

func waitEvent[T any](t *testing.T, ch <-chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if match == nil || match(ev) {
				return ev
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
