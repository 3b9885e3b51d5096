// Package settings is the persisted session configuration: where to
// publish, how to encode, reconnect policy and storage locations. It is read
// from a TOML file at start and re-applied when the file changes.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/livecast/internal/config"
	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/protocol"
)

// Duration is a time.Duration written as a string such as "5s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Video holds the [video] table.
type Video struct {
	Width            int    `toml:"width" json:"width"`
	Height           int    `toml:"height" json:"height"`
	FPS              int    `toml:"fps" json:"fps"`
	BitrateKbps      int    `toml:"bitrate_kbps" json:"bitrate_kbps"`
	Codec            string `toml:"codec" json:"codec"`
	Adaptive         bool   `toml:"adaptive" json:"adaptive"`
	KeyframeInterval int    `toml:"keyframe_interval" json:"keyframe_interval"`
	Rotation         int    `toml:"rotation" json:"rotation"`
	Device           string `toml:"device" json:"device,omitempty"`
	InputFormat      string `toml:"input_format" json:"input_format,omitempty"`
	Facing           string `toml:"facing" json:"facing,omitempty"`
}

// Audio holds the [audio] table.
type Audio struct {
	Enabled          bool   `toml:"enabled" json:"enabled"`
	BitrateKbps      int    `toml:"bitrate_kbps" json:"bitrate_kbps"`
	SampleRate       int    `toml:"sample_rate" json:"sample_rate"`
	Stereo           bool   `toml:"stereo" json:"stereo"`
	EchoCancel       bool   `toml:"echo_cancel" json:"echo_cancel"`
	NoiseReduction   bool   `toml:"noise_reduction" json:"noise_reduction"`
	Codec            string `toml:"codec" json:"codec"`
	Device           string `toml:"device" json:"device,omitempty"`
	EchoCancelSource string `toml:"echo_cancel_source" json:"echo_cancel_source,omitempty"`
}

// Reconnect holds the [reconnect] table.
type Reconnect struct {
	Enabled        bool     `toml:"enabled" json:"enabled"`
	Delay          Duration `toml:"delay" json:"delay"`
	MaxAttempts    int      `toml:"max_attempts" json:"max_attempts"`
	NetworkTimeout Duration `toml:"network_timeout" json:"network_timeout"`
}

// Storage holds the [storage] table.
type Storage struct {
	RecordDir string `toml:"record_dir" json:"record_dir"`
	PhotoDir  string `toml:"photo_dir" json:"photo_dir"`
}

// Settings is the whole settings file.
type Settings struct {
	Connection protocol.ConnectionSettings `toml:"connection" json:"connection"`
	Video      Video                       `toml:"video" json:"video"`
	Audio      Audio                       `toml:"audio" json:"audio"`
	Reconnect  Reconnect                   `toml:"reconnect" json:"reconnect"`
	Storage    Storage                     `toml:"storage" json:"storage"`
}

// Defaults returns the settings used for anything the file leaves out.
func Defaults() Settings {
	return Settings{
		Connection: protocol.ConnectionSettings{Protocol: protocol.RTMP, Path: "live"},
		Video: Video{
			Width:            1280,
			Height:           720,
			FPS:              30,
			BitrateKbps:      2500,
			Codec:            "libx264",
			KeyframeInterval: 2,
		},
		Audio: Audio{
			Enabled:     true,
			BitrateKbps: 128,
			SampleRate:  44100,
			Codec:       "aac",
		},
		Reconnect: Reconnect{
			Delay:          Duration{5 * time.Second},
			MaxAttempts:    5,
			NetworkTimeout: Duration{10 * time.Second},
		},
		Storage: Storage{
			RecordDir: "/var/lib/livecast/recordings",
			PhotoDir:  "/var/lib/livecast/photos",
		},
	}
}

// Load reads path over Defaults. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	s := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return Defaults(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Defaults(), fmt.Errorf("invalid settings %s: %w", path, err)
	}
	return s, nil
}

// Validate checks values that would otherwise fail deep inside the encoder.
func (s Settings) Validate() error {
	var errs []error
	if s.Connection.Protocol != "" && !s.Connection.Protocol.Valid() {
		errs = append(errs, fmt.Errorf("connection.protocol: unknown protocol %q", s.Connection.Protocol))
	}
	if s.Connection.Port < 0 || s.Connection.Port > 65535 {
		errs = append(errs, fmt.Errorf("connection.port: %d out of range", s.Connection.Port))
	}
	switch s.Connection.SRTMode {
	case "", protocol.SRTModeCaller, protocol.SRTModeListener, protocol.SRTModeRendezvous:
	default:
		errs = append(errs, fmt.Errorf("connection.srt_mode: unknown mode %q", s.Connection.SRTMode))
	}
	if err := s.VideoParams().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("video: %w", err))
	}
	if err := s.AudioParams().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("audio.sample_rate: %w", err))
	}
	if s.Reconnect.MaxAttempts < 0 {
		errs = append(errs, errors.New("reconnect.max_attempts must not be negative"))
	}
	return errors.Join(errs...)
}

// ConnectionSettings returns the normalized connection settings.
func (s Settings) ConnectionSettings() protocol.ConnectionSettings {
	return s.Connection.Normalize()
}

// StreamURL returns the publish URL, empty when no address is set.
func (s Settings) StreamURL() string {
	return protocol.BuildStreamURL(s.ConnectionSettings())
}

// VideoParams converts the [video] table for PrepareVideo.
func (s Settings) VideoParams() endpoint.VideoParams {
	return endpoint.VideoParams{
		Width:             s.Video.Width,
		Height:            s.Video.Height,
		FPS:               s.Video.FPS,
		BitrateBps:        int64(s.Video.BitrateKbps) * 1000,
		IFrameIntervalSec: s.Video.KeyframeInterval,
		RotationDeg:       s.Video.Rotation,
	}
}

// AudioParams converts the [audio] table for PrepareAudio.
func (s Settings) AudioParams() endpoint.AudioParams {
	return endpoint.AudioParams{
		Enabled:       s.Audio.Enabled,
		SampleRate:    s.Audio.SampleRate,
		Stereo:        s.Audio.Stereo,
		BitrateBps:    int64(s.Audio.BitrateKbps) * 1000,
		EchoCancel:    s.Audio.EchoCancel,
		NoiseSuppress: s.Audio.NoiseReduction,
	}
}

// MaxAdaptiveBps is the ceiling of the adaptive bitrate range.
func (s Settings) MaxAdaptiveBps() int64 {
	return int64(s.Video.BitrateKbps) * 1024
}

// Watch returns a watcher reloading path through Load.
func Watch(path string, logger *slog.Logger, opts ...config.WatcherOption[Settings]) *config.Watcher[Settings] {
	return config.NewConfigWatcher(path, Load, logger, opts...)
}
