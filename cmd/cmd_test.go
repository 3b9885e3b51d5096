package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smazurov/livecast/internal/audio"
	"github.com/smazurov/livecast/internal/devices"
)

type stubDetector struct {
	found []devices.DeviceInfo
	err   error
}

func (d stubDetector) FindDevices() ([]devices.DeviceInfo, error)            { return d.found, d.err }
func (d stubDetector) GetDeviceFormats(string) ([]devices.FormatInfo, error) { return nil, nil }
func (d stubDetector) GetDevicePathByID(string) (string, error)              { return "", nil }
func (d stubDetector) GetDeviceResolutions(string, uint32) ([]devices.Resolution, error) {
	return nil, nil
}
func (d stubDetector) StartMonitoring(context.Context, devices.EventBroadcaster) error { return nil }
func (d stubDetector) StopMonitoring()                                                 {}

func TestURLCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	data := `
[connection]
protocol = "rtmp"
address = "127.0.0.1"
port = 1935
path = "live"
stream_key = "abc"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := CreateURLCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--settings", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "rtmp://127.0.0.1:1935/live/abc" {
		t.Errorf("Expected RTMP URL, got %q", got)
	}
}

func TestURLCmdWithoutAddress(t *testing.T) {
	cmd := CreateURLCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--settings", filepath.Join(t.TempDir(), "missing.toml")})
	if err := cmd.Execute(); err == nil {
		t.Fatal("Expected an error when no address is configured")
	}
}

func TestCamerasCmd(t *testing.T) {
	detector := stubDetector{found: []devices.DeviceInfo{
		{DevicePath: "/dev/video0", DeviceName: "Rear Camera", DeviceID: "platform-rear"},
		{DevicePath: "/dev/video2", DeviceName: "USB Camera", DeviceID: "usb-046d"},
	}}

	var out bytes.Buffer
	cmd := newCamerasCmd(func() devices.DeviceDetector { return detector })
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header and two rows, got %q", out.String())
	}
	if !strings.Contains(lines[1], "/dev/video0") || !strings.Contains(lines[1], "back") {
		t.Errorf("Unexpected first row %q", lines[1])
	}
	if !strings.Contains(lines[2], "external") {
		t.Errorf("Unexpected second row %q", lines[2])
	}
}

func TestCamerasCmdError(t *testing.T) {
	cmd := newCamerasCmd(func() devices.DeviceDetector { return stubDetector{err: errors.New("no v4l2")} })
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "no v4l2") {
		t.Fatalf("Expected detector error, got %v", err)
	}
}

type stubMics []audio.Device

func (m stubMics) ListDevices() ([]audio.Device, error) { return m, nil }

func TestMicrophonesCmd(t *testing.T) {
	mics := stubMics{{CardID: "C920", CardName: "HD Pro Webcam C920", ALSADevice: "hw:1,0", Busy: true}}

	var out bytes.Buffer
	cmd := newMicrophonesCmd(func() audio.Detector { return mics })
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "hw:1,0") || !strings.Contains(out.String(), "busy") {
		t.Errorf("Unexpected output %q", out.String())
	}
}
