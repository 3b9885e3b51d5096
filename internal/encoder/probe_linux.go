//go:build linux

package encoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/pkg/linuxav/alsa"
)

// probeAudioDevice checks that an ALSA hw device can be opened. Other device
// names (default, pulse sources) are left to ffmpeg.
func probeAudioDevice(device string) error {
	if !strings.HasPrefix(device, "hw:") && !strings.HasPrefix(device, "plughw:") {
		return nil
	}
	d, err := alsa.ParseDevice(device)
	if err != nil {
		return err
	}
	if err := alsa.Probe(d); err != nil {
		if errors.Is(err, alsa.ErrBusy) {
			return fmt.Errorf("%w: %s", endpoint.ErrAudioDeviceBusy, device)
		}
		return err
	}
	return nil
}
