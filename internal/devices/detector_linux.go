//go:build linux

package devices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/livecast/internal/logging"
	"github.com/smazurov/livecast/pkg/linuxav/hotplug"
	"github.com/smazurov/livecast/pkg/linuxav/v4l2"
)

// settleDelay gives the kernel time to create every node of a new camera.
const settleDelay = time.Second

type linuxDetector struct {
	cancel      context.CancelFunc
	broadcaster EventBroadcaster
	lastDevices map[string]DeviceInfo // key is DeviceID
	mu          sync.Mutex
	logger      *slog.Logger
}

func newDetector() DeviceDetector {
	return &linuxDetector{
		lastDevices: make(map[string]DeviceInfo),
		logger:      logging.GetLogger("devices"),
	}
}

// FindDevices returns all currently available V4L2 capture devices.
func (d *linuxDetector) FindDevices() ([]DeviceInfo, error) {
	found, err := v4l2.FindDevices()
	if err != nil {
		return nil, err
	}

	devices := make([]DeviceInfo, len(found))
	for i, dev := range found {
		devices[i] = DeviceInfo{
			DevicePath: dev.DevicePath,
			DeviceName: dev.DeviceName,
			DeviceID:   dev.DeviceID,
			Caps:       dev.Caps,
		}
	}
	return devices, nil
}

// GetDeviceFormats returns supported formats for a device.
func (d *linuxDetector) GetDeviceFormats(devicePath string) ([]FormatInfo, error) {
	found, err := v4l2.GetFormats(devicePath)
	if err != nil {
		return nil, err
	}

	formats := make([]FormatInfo, len(found))
	for i, f := range found {
		formats[i] = FormatInfo{PixelFormat: f.PixelFormat, FormatName: f.FormatName, Emulated: f.Emulated}
	}
	return formats, nil
}

// GetDevicePathByID returns the device path for a given device ID.
func (d *linuxDetector) GetDevicePathByID(deviceID string) (string, error) {
	return v4l2.GetDevicePathByID(deviceID)
}

// GetDeviceResolutions returns supported resolutions for a format.
func (d *linuxDetector) GetDeviceResolutions(devicePath string, pixelFormat uint32) ([]Resolution, error) {
	found, err := v4l2.GetResolutions(devicePath, pixelFormat)
	if err != nil {
		return nil, err
	}

	resolutions := make([]Resolution, len(found))
	for i, r := range found {
		resolutions[i] = Resolution{Width: r.Width, Height: r.Height}
	}
	return resolutions, nil
}

// StartMonitoring watches kernel uevents for video4linux add/remove events.
func (d *linuxDetector) StartMonitoring(ctx context.Context, broadcaster EventBroadcaster) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, d.cancel = context.WithCancel(ctx)
	d.broadcaster = broadcaster

	devices, err := d.FindDevices()
	if err != nil {
		d.logger.Warn("Failed to get initial device list", "error", err)
	} else {
		for _, device := range devices {
			d.lastDevices[device.DeviceID] = device
			d.broadcaster.BroadcastDeviceDiscovery("added", device, now())
		}
		d.logger.Info("Initialized with V4L2 devices", "count", len(devices))
	}

	mon, err := hotplug.NewMonitor()
	if err != nil {
		return fmt.Errorf("failed to create hotplug monitor: %w", err)
	}
	mon.AddSubsystemFilter(hotplug.SubsystemVideo4Linux)

	uevents := make(chan hotplug.Event, 16)
	go func() {
		defer mon.Close()
		if err := mon.Run(ctx, uevents); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("Hotplug monitor error", "error", err)
		}
	}()

	go func() {
		d.logger.Info("Hotplug monitoring started for video4linux devices")
		for ev := range uevents {
			if ev.Action != hotplug.ActionAdd && ev.Action != hotplug.ActionRemove {
				continue
			}
			d.logger.Debug("Hotplug event", "action", ev.Action, "device", ev.DevNode())
			if ev.Action == hotplug.ActionAdd {
				select {
				case <-time.After(settleDelay):
				case <-ctx.Done():
					return
				}
			}
			d.checkAndBroadcastDeviceChanges()
		}
		d.logger.Info("Hotplug monitor stopped")
	}()

	return nil
}

// StopMonitoring stops the device monitoring.
func (d *linuxDetector) StopMonitoring() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// checkAndBroadcastDeviceChanges diffs the device list against the last
// known one and broadcasts the difference.
func (d *linuxDetector) checkAndBroadcastDeviceChanges() {
	devices, err := d.FindDevices()
	if err != nil {
		d.logger.Error("Error getting device data", "error", err)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	added, removed := diffDevices(d.lastDevices, devices)
	for _, device := range removed {
		d.broadcaster.BroadcastDeviceDiscovery("removed", device, now())
		d.logger.Info("Device removed", "device", device.DevicePath, "name", device.DeviceName, "id", device.DeviceID)
		delete(d.lastDevices, device.DeviceID)
	}
	for _, device := range added {
		d.broadcaster.BroadcastDeviceDiscovery("added", device, now())
		d.logger.Info("Device added", "device", device.DevicePath, "name", device.DeviceName, "id", device.DeviceID)
		d.lastDevices[device.DeviceID] = device
	}
}
