package devices

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smazurov/livecast/internal/events"
)

// ErrUnsupported is returned when the platform or device lacks a control.
var ErrUnsupported = errors.New("camera control not supported")

// DeviceInfo represents information about a V4L2 capture device.
type DeviceInfo struct {
	DevicePath string `json:"device_path"`
	DeviceName string `json:"device_name"`
	DeviceID   string `json:"device_id"`
	Caps       uint32 `json:"caps"`
}

// FormatInfo represents information about a video format.
type FormatInfo struct {
	PixelFormat uint32 `json:"pixel_format"`
	FormatName  string `json:"format_name"`
	Emulated    bool   `json:"emulated"`
}

// Resolution represents a video resolution.
type Resolution struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Facing is where a camera points relative to the operator.
type Facing string

// Facings.
const (
	FacingBack     Facing = "back"
	FacingFront    Facing = "front"
	FacingExternal Facing = "external"
)

// InferFacing guesses facing from a device name. Phones and tablets running
// mainline kernels name sensors after their position.
func InferFacing(name string) Facing {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "front"), strings.Contains(lower, "user"):
		return FacingFront
	case strings.Contains(lower, "back"), strings.Contains(lower, "rear"), strings.Contains(lower, "world"):
		return FacingBack
	default:
		return FacingExternal
	}
}

// EventBroadcaster receives device add/remove notifications.
type EventBroadcaster interface {
	BroadcastDeviceDiscovery(action string, device DeviceInfo, timestamp string)
}

// BusBroadcaster publishes device notifications on the event bus.
type BusBroadcaster struct {
	Bus *events.Bus
}

// BroadcastDeviceDiscovery implements EventBroadcaster.
func (b BusBroadcaster) BroadcastDeviceDiscovery(action string, device DeviceInfo, timestamp string) {
	b.Bus.Publish(events.DeviceDiscoveryEvent{
		DevicePath: device.DevicePath,
		DeviceName: device.DeviceName,
		DeviceID:   device.DeviceID,
		Action:     action,
		Timestamp:  timestamp,
	})
}

// DeviceDetector provides platform-specific device detection.
type DeviceDetector interface {
	// FindDevices returns all currently available capture devices
	FindDevices() ([]DeviceInfo, error)

	// GetDeviceFormats returns supported formats for a device
	GetDeviceFormats(devicePath string) ([]FormatInfo, error)

	// GetDevicePathByID returns the device path for a given device ID
	GetDevicePathByID(deviceID string) (string, error)

	// GetDeviceResolutions returns supported resolutions for a format
	GetDeviceResolutions(devicePath string, pixelFormat uint32) ([]Resolution, error)

	// StartMonitoring starts monitoring for device changes
	StartMonitoring(ctx context.Context, broadcaster EventBroadcaster) error

	// StopMonitoring stops the device monitoring
	StopMonitoring()
}

// NewDetector creates a platform-specific device detector.
func NewDetector() DeviceDetector {
	return newDetector()
}

func now() string {
	return time.Now().Format(time.RFC3339)
}
