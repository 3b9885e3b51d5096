//go:build linux

package v4l2

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"
)

const (
	sysfsRoot = "/sys/class/video4linux"
	byIDDir   = "/dev/v4l/by-id"
)

// FindDevices finds all V4L2 video capture devices on the system.
func FindDevices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir(sysfsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []DeviceInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read video4linux directory: %w", err)
	}

	var devices []DeviceInfo
	for _, entry := range entries {
		devicePath := "/dev/" + entry.Name()

		capability, err := queryCapability(devicePath)
		if err != nil {
			slog.With("component", "v4l2").Debug("failed to query device", "path", devicePath, "error", err)
			continue
		}

		caps := capability.capabilities
		if caps&v4l2CapDeviceCaps != 0 {
			caps = capability.deviceCaps
		}
		if caps&v4l2CapVideoCapture == 0 {
			continue
		}

		index := readSysfsInt(filepath.Join(sysfsRoot, entry.Name(), "index"))
		busInfo := cstr(capability.busInfo[:])

		stableID := findStableID(entry.Name(), index)
		if stableID == "" {
			if strings.HasPrefix(busInfo, "usb-") {
				stableID = fmt.Sprintf("%s-video-index%d", busInfo, index)
			} else {
				stableID = fmt.Sprintf("platform-%s-video-index%d", busInfo, index)
			}
		}

		devices = append(devices, DeviceInfo{
			DevicePath: devicePath,
			DeviceName: cstr(capability.card[:]),
			DeviceID:   stableID,
			BusInfo:    busInfo,
			Caps:       caps,
		})
	}

	return devices, nil
}

// GetDevicePathByID finds the device path for a given stable device ID.
func GetDevicePathByID(deviceID string) (string, error) {
	devices, err := FindDevices()
	if err != nil {
		return "", fmt.Errorf("failed to find devices: %w", err)
	}
	for _, device := range devices {
		if device.DeviceID == deviceID {
			return device.DevicePath, nil
		}
	}
	return "", fmt.Errorf("device with ID %s not found", deviceID)
}

func queryCapability(devicePath string) (*v4l2Capability, error) {
	capability := &v4l2Capability{}
	err := withDevice(devicePath, func(fd int) error {
		return ioctl(fd, vidiocQuerycap, unsafe.Pointer(capability))
	})
	if err != nil {
		return nil, err
	}
	return capability, nil
}

// findStableID looks for a stable ID symlink in /dev/v4l/by-id/.
func findStableID(deviceName string, index int) string {
	entries, err := os.ReadDir(byIDDir)
	if err != nil {
		return ""
	}

	suffix := fmt.Sprintf("-video-index%d", index)
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		target, err := os.Readlink(filepath.Join(byIDDir, entry.Name()))
		if err != nil {
			continue
		}
		if filepath.Base(target) == deviceName {
			return entry.Name()
		}
	}
	return ""
}

func readSysfsInt(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	val, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return val
}
