//go:build linux

package alsa

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var (
	// ErrBusy means another process holds the capture device.
	ErrBusy = errors.New("alsa: capture device busy")
	// ErrNotFound means the capture device node does not exist.
	ErrNotFound = errors.New("alsa: capture device not found")
)

// Device identifies an ALSA capture PCM.
type Device struct {
	Card     int
	Device   int
	CardID   string
	CardName string
}

// String returns the hw:X,Y form consumed by ffmpeg.
func (d Device) String() string {
	return "hw:" + strconv.Itoa(d.Card) + "," + strconv.Itoa(d.Device)
}

// PCMPath returns the capture node under /dev/snd.
func (d Device) PCMPath() string {
	return fmt.Sprintf("/dev/snd/pcmC%dD%dc", d.Card, d.Device)
}

// ParseDevice accepts "hw:X,Y", "plughw:X,Y" or "hw:X" (device 0).
func ParseDevice(s string) (Device, error) {
	rest, ok := strings.CutPrefix(s, "plughw:")
	if !ok {
		rest, ok = strings.CutPrefix(s, "hw:")
	}
	if !ok {
		return Device{}, fmt.Errorf("alsa: unsupported device %q", s)
	}

	cardStr, devStr, hasDev := strings.Cut(rest, ",")
	card, err := strconv.Atoi(cardStr)
	if err != nil {
		return Device{}, fmt.Errorf("alsa: invalid card in %q: %w", s, err)
	}
	dev := 0
	if hasDev {
		if dev, err = strconv.Atoi(devStr); err != nil {
			return Device{}, fmt.Errorf("alsa: invalid device in %q: %w", s, err)
		}
	}
	return Device{Card: card, Device: dev}, nil
}

// ListCaptureDevices returns capture PCMs found under /dev/snd, with card
// names taken from /proc/asound/cards.
func ListCaptureDevices() ([]Device, error) {
	return listCaptureDevices("/dev/snd", "/proc/asound/cards")
}

func listCaptureDevices(devDir, cardsFile string) ([]Device, error) {
	matches, err := filepath.Glob(filepath.Join(devDir, "pcmC*D*c"))
	if err != nil {
		return nil, err
	}

	names := map[int][2]string{}
	if f, err := os.Open(cardsFile); err == nil {
		names = parseCards(f)
		_ = f.Close()
	}

	devices := make([]Device, 0, len(matches))
	for _, m := range matches {
		var d Device
		if _, err := fmt.Sscanf(filepath.Base(m), "pcmC%dD%dc", &d.Card, &d.Device); err != nil {
			continue
		}
		n := names[d.Card]
		d.CardID, d.CardName = n[0], n[1]
		devices = append(devices, d)
	}
	return devices, nil
}

// parseCards reads the /proc/asound/cards format:
//
//	0 [PCH            ]: HDA-Intel - HDA Intel PCH
func parseCards(r io.Reader) map[int][2]string {
	out := map[int][2]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		open := strings.IndexByte(line, '[')
		closeIdx := strings.IndexByte(line, ']')
		if open <= 0 || closeIdx < open {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSpace(line[:open]))
		if err != nil {
			continue
		}
		id := strings.TrimSpace(line[open+1 : closeIdx])
		name := strings.TrimSpace(strings.TrimPrefix(line[closeIdx+1:], ":"))
		if _, long, ok := strings.Cut(name, " - "); ok {
			name = long
		}
		out[num] = [2]string{id, name}
	}
	return out
}

// Probe opens the capture node non-blocking and reports ErrBusy when it
// is held elsewhere.
func Probe(d Device) error {
	fd, err := unix.Open(d.PCMPath(), unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		switch {
		case errors.Is(err, unix.EBUSY):
			return fmt.Errorf("%w: %s", ErrBusy, d)
		case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENODEV):
			return fmt.Errorf("%w: %s", ErrNotFound, d)
		}
		return fmt.Errorf("alsa: open %s: %w", d, err)
	}
	_ = unix.Close(fd)
	return nil
}
