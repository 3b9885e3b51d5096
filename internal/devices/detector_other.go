//go:build !linux

package devices

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smazurov/livecast/internal/logging"
)

// Mock devices so the host runs end to end on development machines; the
// encoder falls back to a test pattern for them.
var mockDevices = []DeviceInfo{
	{DevicePath: "", DeviceName: "Mock Back Camera", DeviceID: "mock-back-camera", Caps: 0x84000001},
	{DevicePath: "", DeviceName: "Mock Front Camera", DeviceID: "mock-front-camera", Caps: 0x84000001},
}

var mockFormats = []FormatInfo{
	{PixelFormat: 1196444237, FormatName: "MJPEG"},
	{PixelFormat: 1448695129, FormatName: "YUYV 4:2:2"},
}

var mockResolutions = []Resolution{
	{Width: 640, Height: 480},
	{Width: 1280, Height: 720},
	{Width: 1920, Height: 1080},
}

type mockDetector struct {
	logger *slog.Logger
}

func newDetector() DeviceDetector {
	return &mockDetector{logger: logging.GetLogger("devices")}
}

func (d *mockDetector) FindDevices() ([]DeviceInfo, error) {
	return append([]DeviceInfo(nil), mockDevices...), nil
}

func (d *mockDetector) GetDeviceFormats(string) ([]FormatInfo, error) {
	return append([]FormatInfo(nil), mockFormats...), nil
}

func (d *mockDetector) GetDevicePathByID(deviceID string) (string, error) {
	for _, dev := range mockDevices {
		if dev.DeviceID == deviceID {
			return dev.DevicePath, nil
		}
	}
	return "", fmt.Errorf("device with ID %s not found", deviceID)
}

func (d *mockDetector) GetDeviceResolutions(string, uint32) ([]Resolution, error) {
	return append([]Resolution(nil), mockResolutions...), nil
}

func (d *mockDetector) StartMonitoring(_ context.Context, broadcaster EventBroadcaster) error {
	d.logger.Info("Using mock cameras, hotplug monitoring disabled")
	for _, dev := range mockDevices {
		broadcaster.BroadcastDeviceDiscovery("added", dev, now())
	}
	return nil
}

func (d *mockDetector) StopMonitoring() {}
