package led

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/livecast/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockController struct {
	mu        sync.Mutex
	available []string
	calls     []setCall
}

type setCall struct {
	ledType string
	enabled bool
	pattern string
}

func (m *mockController) Set(ledType string, enabled bool, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, setCall{ledType, enabled, pattern})
	return nil
}

func (m *mockController) Available() []string { return m.available }

func (m *mockController) Patterns() []string { return []string{PatternSolid} }

func (m *mockController) snapshot() []setCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]setCall(nil), m.calls...)
}

// fakeLED creates a sysfs LED directory under root.
func fakeLED(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"brightness", "trigger"} {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestNoopController(t *testing.T) {
	ctrl := newNoop(testLogger())
	if err := ctrl.Set(TypeStatus, true, PatternSolid); err != nil {
		t.Errorf("Set() returned error: %v", err)
	}
	if types := ctrl.Available(); len(types) != 0 {
		t.Errorf("Available() = %v, want empty", types)
	}
}

func TestSysfsSetWritesTriggerAndBrightness(t *testing.T) {
	root := t.TempDir()
	dir := fakeLED(t, root, "sys_led")
	s := newSysfs(map[string]string{TypeStatus: "sys_led"})
	s.root = root

	tests := []struct {
		pattern     string
		enabled     bool
		wantTrigger string
		wantBright  string
	}{
		{PatternSolid, true, "none", "1"},
		{PatternBlink, true, "timer", "1"},
		{PatternHeartbeat, true, "heartbeat", "1"},
		{"", false, "heartbeat", "0"},
	}
	for _, tt := range tests {
		if err := s.Set(TypeStatus, tt.enabled, tt.pattern); err != nil {
			t.Fatalf("Set(%q): %v", tt.pattern, err)
		}
		if got := readFile(t, filepath.Join(dir, "trigger")); got != tt.wantTrigger {
			t.Errorf("pattern %q: trigger = %q, want %q", tt.pattern, got, tt.wantTrigger)
		}
		if got := readFile(t, filepath.Join(dir, "brightness")); got != tt.wantBright {
			t.Errorf("pattern %q: brightness = %q, want %q", tt.pattern, got, tt.wantBright)
		}
	}
}

func TestSysfsSetUnknownType(t *testing.T) {
	s := newSysfs(map[string]string{TypeStatus: "sys_led"})
	if err := s.Set("nonexistent", true, ""); err == nil {
		t.Error("Set() with unknown LED type should fail")
	}
}

func TestNewForDetectsBoardAndTorch(t *testing.T) {
	root := t.TempDir()
	fakeLED(t, root, "ACT")
	fakeLED(t, root, "white:flash")

	ctrl := newFor("Raspberry Pi 4 Model B Rev 1.4", root, testLogger())
	if got := ctrl.Available(); !reflect.DeepEqual(got, []string{TypeStatus, TypeTorch}) {
		t.Errorf("Available() = %v", got)
	}
}

func TestNewForWithoutLEDs(t *testing.T) {
	ctrl := newFor("unknown", t.TempDir(), testLogger())
	if _, ok := ctrl.(*noop); !ok {
		t.Errorf("expected noop controller, got %T", ctrl)
	}
}

func TestTorch(t *testing.T) {
	if err := (Torch{Controller: &mockController{}}).SetTorch("cam0", true); !errors.Is(err, ErrNoTorch) {
		t.Errorf("err = %v, want ErrNoTorch", err)
	}

	ctrl := &mockController{available: []string{TypeTorch}}
	if err := (Torch{Controller: ctrl}).SetTorch("cam0", true); err != nil {
		t.Fatalf("SetTorch: %v", err)
	}
	if got := ctrl.snapshot(); len(got) != 1 || got[0] != (setCall{TypeTorch, true, PatternSolid}) {
		t.Errorf("calls = %v", got)
	}
}

func waitForCalls(t *testing.T, ctrl *mockController, n int) []setCall {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if calls := ctrl.snapshot(); len(calls) >= n {
			return calls
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d LED calls, got %v", n, ctrl.snapshot())
	return nil
}

func TestManagerFollowsSessionState(t *testing.T) {
	ctrl := &mockController{}
	bus := events.New()
	mgr := NewManager(ctrl, bus, testLogger())
	mgr.Start()

	bus.Publish(events.SessionStateChangedEvent{State: "preview"})
	bus.Publish(events.SessionStateChangedEvent{State: "preview"})
	bus.Publish(events.SessionStateChangedEvent{State: "streaming"})
	bus.Publish(events.SessionStateChangedEvent{State: "error"})

	calls := waitForCalls(t, ctrl, 3)
	want := []setCall{
		{TypeStatus, true, PatternSolid},
		{TypeStatus, true, PatternHeartbeat},
		{TypeStatus, true, PatternBlink},
	}
	if !reflect.DeepEqual(calls[:3], want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}

	mgr.Stop()
	if last := ctrl.snapshot(); last[len(last)-1] != (setCall{TypeStatus, false, ""}) {
		t.Errorf("Stop should turn the LED off, got %v", last[len(last)-1])
	}
}
