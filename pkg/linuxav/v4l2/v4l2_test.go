//go:build linux

package v4l2

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

func TestFormatFourCC(t *testing.T) {
	tests := []struct {
		name     string
		format   uint32
		expected string
	}{
		{name: "YUYV format", format: 0x56595559, expected: "YUYV"},
		{name: "MJPEG format", format: 0x47504A4D, expected: "MJPG"},
		{name: "H264 format", format: 0x34363248, expected: "H264"},
		{name: "NV12 format", format: 0x3231564E, expected: "NV12"},
		{name: "mixed bytes", format: 0x01020304, expected: "\x04\x03\x02\x01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatFourCC(tt.format); got != tt.expected {
				t.Errorf("FormatFourCC(0x%08X) = %q, want %q", tt.format, got, tt.expected)
			}
		})
	}
}

func TestControlClamp(t *testing.T) {
	info := ControlInfo{Minimum: 100, Maximum: 500, Step: 10}

	tests := []struct {
		in   int32
		want int32
	}{
		{in: 50, want: 100},
		{in: 100, want: 100},
		{in: 255, want: 250},
		{in: 500, want: 500},
		{in: 9000, want: 500},
	}

	for _, tt := range tests {
		if got := info.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestControlUsable(t *testing.T) {
	if !(ControlInfo{}).Usable() {
		t.Error("control without flags should be usable")
	}
	for _, flag := range []uint32{ctrlFlagDisabled, ctrlFlagReadOnly, ctrlFlagInactive} {
		if (ControlInfo{Flags: flag}).Usable() {
			t.Errorf("control with flag 0x%x should not be usable", flag)
		}
	}
}

func TestStepwiseResolutions(t *testing.T) {
	got := stepwiseResolutions([6]uint32{640, 1920, 2, 480, 1080, 2})

	want := []Resolution{{640, 480}, {800, 600}, {1280, 720}, {1280, 960}, {1920, 1080}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("resolution %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestControlErrMapsUnsupported(t *testing.T) {
	for _, errno := range []error{unix.EINVAL, unix.ENOTTY} {
		if err := controlErr(CIDZoomAbsolute, errno); !errors.Is(err, ErrControlUnsupported) {
			t.Errorf("controlErr(%v) = %v, want ErrControlUnsupported", errno, err)
		}
	}

	err := controlErr(CIDZoomAbsolute, unix.EBUSY)
	if errors.Is(err, ErrControlUnsupported) || !errors.Is(err, unix.EBUSY) {
		t.Errorf("controlErr(EBUSY) = %v, want wrapped EBUSY", err)
	}
	if controlErr(CIDZoomAbsolute, nil) != nil {
		t.Error("controlErr(nil) should be nil")
	}
}

func TestQueryControlMissingDevice(t *testing.T) {
	if _, err := QueryControl("/dev/definitely-not-a-video-device", CIDZoomAbsolute); err == nil {
		t.Error("expected error for missing device")
	}
}
