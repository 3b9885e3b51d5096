package endpoint

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnsupportedAudioFormat is returned for a sample rate or channel
	// layout the capture path cannot produce.
	ErrUnsupportedAudioFormat = errors.New("unsupported audio format")
	// ErrAudioDeviceBusy is returned when another process holds the microphone.
	ErrAudioDeviceBusy = errors.New("audio device busy")
	// ErrNotPrepared is returned by starts issued before both prepares succeeded.
	ErrNotPrepared = errors.New("encoder not prepared")
	// ErrNoSurface is returned by StartPreview without a surface.
	ErrNoSurface = errors.New("no preview surface")
	// ErrReleased is returned by operations on a released endpoint.
	ErrReleased = errors.New("endpoint released")
)

// SupportedSampleRates lists the capture sample rates accepted by PrepareAudio.
var SupportedSampleRates = []int{8000, 16000, 22050, 32000, 44100, 48000}

// FallbackAudio is what PrepareAudio retries with after ErrUnsupportedAudioFormat.
var FallbackAudio = AudioParams{Enabled: true, SampleRate: 44100, Stereo: false, BitrateBps: 128 * 1000}

// AudioParams configures audio capture and encoding.
type AudioParams struct {
	Enabled       bool
	SampleRate    int
	Stereo        bool
	BitrateBps    int64
	EchoCancel    bool
	NoiseSuppress bool
}

// Channels returns 2 for stereo and 1 otherwise.
func (a AudioParams) Channels() int {
	if a.Stereo {
		return 2
	}
	return 1
}

// Validate checks the sample rate against SupportedSampleRates.
func (a AudioParams) Validate() error {
	if !a.Enabled {
		return nil
	}
	if !slices.Contains(SupportedSampleRates, a.SampleRate) {
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedAudioFormat, a.SampleRate)
	}
	if a.BitrateBps < 0 {
		return fmt.Errorf("%w: negative bitrate", ErrUnsupportedAudioFormat)
	}
	return nil
}

// VideoParams configures video capture and encoding.
type VideoParams struct {
	Width             int
	Height            int
	FPS               int
	BitrateBps        int64
	IFrameIntervalSec int
	RotationDeg       int
}

// Validate checks geometry, frame rate and rotation.
func (v VideoParams) Validate() error {
	switch {
	case v.Width <= 0 || v.Height <= 0:
		return fmt.Errorf("invalid resolution %dx%d", v.Width, v.Height)
	case v.Width%2 != 0 || v.Height%2 != 0:
		return fmt.Errorf("resolution %dx%d must be even", v.Width, v.Height)
	case v.FPS <= 0 || v.FPS > 120:
		return fmt.Errorf("invalid frame rate %d", v.FPS)
	case v.BitrateBps <= 0:
		return fmt.Errorf("invalid bitrate %d", v.BitrateBps)
	case v.RotationDeg%90 != 0:
		return fmt.Errorf("rotation %d is not a multiple of 90", v.RotationDeg)
	}
	return nil
}

// GOP returns the keyframe interval in frames.
func (v VideoParams) GOP() int {
	if v.IFrameIntervalSec <= 0 {
		return v.FPS * 2
	}
	return v.FPS * v.IFrameIntervalSec
}

// Surface is a preview sink, for example a local UDP address in mpegts or a
// file path in image2.
type Surface struct {
	Target string `json:"target" example:"udp://127.0.0.1:5600" doc:"Preview sink URL or path"`
	Format string `json:"format,omitempty" example:"mpegts" doc:"Muxer for the preview sink"`
}

// IsZero reports whether the surface is unset.
func (s Surface) IsZero() bool {
	return s.Target == ""
}

// MuxerFormat returns Format, defaulting to mpegts.
func (s Surface) MuxerFormat() string {
	if s.Format == "" {
		return "mpegts"
	}
	return s.Format
}

// StreamTarget is the encoder output a variant derives from a publish URL.
type StreamTarget struct {
	URL     string
	Format  string
	Options map[string]string
}
