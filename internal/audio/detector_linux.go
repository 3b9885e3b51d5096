//go:build linux

package audio

import (
	"errors"

	"github.com/smazurov/livecast/pkg/linuxav/alsa"
)

type linuxDetector struct {
	list  func() ([]alsa.Device, error)
	probe func(alsa.Device) error
}

func newPlatformDetector() Detector {
	return &linuxDetector{list: alsa.ListCaptureDevices, probe: alsa.Probe}
}

// ListDevices enumerates ALSA capture devices from /dev/snd.
func (d *linuxDetector) ListDevices() ([]Device, error) {
	found, err := d.list()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, 0, len(found))
	for _, dev := range found {
		devices = append(devices, Device{
			CardNumber:   dev.Card,
			CardID:       dev.CardID,
			CardName:     dev.CardName,
			DeviceNumber: dev.Device,
			ALSADevice:   dev.String(),
			Busy:         errors.Is(d.probe(dev), alsa.ErrBusy),
		})
	}
	return devices, nil
}
