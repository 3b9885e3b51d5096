//go:build linux

package alsa

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDevice(t *testing.T) {
	tests := []struct {
		in      string
		want    Device
		wantErr bool
	}{
		{in: "hw:0,0", want: Device{Card: 0, Device: 0}},
		{in: "hw:2,1", want: Device{Card: 2, Device: 1}},
		{in: "plughw:1,3", want: Device{Card: 1, Device: 3}},
		{in: "hw:4", want: Device{Card: 4, Device: 0}},
		{in: "default", wantErr: true},
		{in: "hw:x,0", wantErr: true},
		{in: "hw:0,y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDevice(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDeviceStrings(t *testing.T) {
	d := Device{Card: 1, Device: 2}
	if d.String() != "hw:1,2" {
		t.Errorf("String() = %q", d.String())
	}
	if d.PCMPath() != "/dev/snd/pcmC1D2c" {
		t.Errorf("PCMPath() = %q", d.PCMPath())
	}
}

func TestParseCards(t *testing.T) {
	input := ` 0 [PCH            ]: HDA-Intel - HDA Intel PCH
                      HDA Intel PCH at 0xf7f10000 irq 32
 1 [C920           ]: USB-Audio - HD Pro Webcam C920
                      Logitech HD Pro Webcam C920 at usb-0000:00:14.0-2
`
	cards := parseCards(strings.NewReader(input))
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d: %v", len(cards), cards)
	}
	if cards[1][0] != "C920" || cards[1][1] != "HD Pro Webcam C920" {
		t.Errorf("card 1 = %v", cards[1])
	}
}

func TestListCaptureDevices(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"pcmC0D0c", "pcmC0D0p", "pcmC1D0c", "controlC0"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	cards := filepath.Join(dir, "cards")
	if err := os.WriteFile(cards, []byte(" 1 [Mic            ]: USB-Audio - USB Mic\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	devices, err := listCaptureDevices(dir, cards)
	if err != nil {
		t.Fatalf("listCaptureDevices failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 capture devices, got %v", devices)
	}
	if devices[1].Card != 1 || devices[1].CardName != "USB Mic" {
		t.Errorf("unexpected device: %+v", devices[1])
	}
}

func TestProbeMissingDevice(t *testing.T) {
	err := Probe(Device{Card: 97, Device: 13})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Probe() = %v, want ErrNotFound", err)
	}
}
