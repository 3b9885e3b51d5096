//go:build !linux

package audio

import "errors"

// ErrUnsupported is returned where ALSA is not available.
var ErrUnsupported = errors.New("audio device enumeration requires linux")

type stubDetector struct{}

func newPlatformDetector() Detector { return stubDetector{} }

func (stubDetector) ListDevices() ([]Device, error) { return nil, ErrUnsupported }
