package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func newTestCapturer(run func(ctx context.Context, args []string) ([]byte, error)) *Capturer {
	c := New()
	c.run = run
	return c
}

func TestCaptureWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "photos", "p.jpg")
	var got []string
	c := newTestCapturer(func(_ context.Context, args []string) ([]byte, error) {
		got = args
		return nil, os.WriteFile(args[len(args)-1], []byte{0xff, 0xd8}, 0o644)
	})

	err := c.Capture(context.Background(), Request{Source: "udp://127.0.0.1:5600", OutputPath: out})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !slices.Contains(got, "udp://127.0.0.1:5600") || slices.Contains(got, "v4l2") {
		t.Errorf("args = %v", got)
	}
	if got[len(got)-1] != out {
		t.Errorf("output = %q, want %q", got[len(got)-1], out)
	}
}

func TestCaptureReportsFfmpegError(t *testing.T) {
	c := newTestCapturer(func(context.Context, []string) ([]byte, error) {
		return []byte("frame=0\nudp://127.0.0.1:5600: Connection refused\n"), errors.New("exit status 1")
	})

	err := c.Capture(context.Background(), Request{Source: "udp://127.0.0.1:5600", OutputPath: filepath.Join(t.TempDir(), "p.jpg")})
	if err == nil || !strings.Contains(err.Error(), "Connection refused") {
		t.Errorf("err = %v", err)
	}
}

func TestCaptureEmptyOutput(t *testing.T) {
	c := newTestCapturer(func(_ context.Context, args []string) ([]byte, error) {
		return nil, os.WriteFile(args[len(args)-1], nil, 0o644)
	})

	err := c.Capture(context.Background(), Request{Source: "preview.jpg", OutputPath: filepath.Join(t.TempDir(), "p.jpg")})
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("err = %v", err)
	}
}

func TestCaptureTimeout(t *testing.T) {
	c := newTestCapturer(func(ctx context.Context, _ []string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	c.timeout = 10 * time.Millisecond

	err := c.Capture(context.Background(), Request{Source: "preview.jpg", OutputPath: filepath.Join(t.TempDir(), "p.jpg")})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("err = %v", err)
	}
}

func TestCaptureMissingDevice(t *testing.T) {
	c := newTestCapturer(func(context.Context, []string) ([]byte, error) {
		t.Fatal("ffmpeg should not run")
		return nil, nil
	})
	err := c.Capture(context.Background(), Request{Source: "/dev/video-missing", FromDevice: true, OutputPath: filepath.Join(t.TempDir(), "p.jpg")})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPhotoPathUnique(t *testing.T) {
	at := time.Date(2026, 1, 27, 10, 30, 0, 0, time.UTC)
	a, b := PhotoPath("/photos", at), PhotoPath("/photos", at)
	if a == b {
		t.Errorf("paths collide: %s", a)
	}
	if !strings.HasPrefix(a, "/photos/IMG_20260127_103000_") || !strings.HasSuffix(a, ".jpg") {
		t.Errorf("path = %s", a)
	}
}
