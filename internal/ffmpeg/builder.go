package ffmpeg

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Binary is the ffmpeg executable looked up on PATH.
var Binary = "ffmpeg"

// ErrNoOutputs is returned when a command would have nothing to write to.
var ErrNoOutputs = errors.New("no outputs configured")

// baseArgs are shared by every command: level-tagged logs for ParseLogLevel
// and machine-readable progress on stdout.
func baseArgs() []string {
	return []string{Binary, "-hide_banner", "-nostdin", "-loglevel", "level+info"}
}

// BuildArgs builds the encoder argv: one capture input, one encode, and a tee
// muxer fanning out to every output in p.Outputs.
func BuildArgs(p *Params) ([]string, error) {
	if len(p.Outputs) == 0 {
		return nil, ErrNoOutputs
	}
	if p.Width <= 0 || p.Height <= 0 || p.FPS <= 0 {
		return nil, fmt.Errorf("invalid video geometry %dx%d@%d", p.Width, p.Height, p.FPS)
	}

	args := baseArgs()
	args = append(args, "-progress", "pipe:1", "-stats_period", "1")
	args = append(args, videoInputArgs(p)...)

	if p.HasAudio() {
		args = append(args, audioInputArgs(p)...)
		args = append(args, "-map", "0:v", "-map", "1:a")
	} else {
		args = append(args, "-map", "0:v")
	}

	args = append(args, "-vf", videoFilters(p))
	args = append(args, videoCodecArgs(p)...)

	if p.HasAudio() {
		if af := audioFilters(p); af != "" {
			args = append(args, "-af", af)
		}
		args = append(args, audioCodecArgs(p)...)
	}

	args = append(args, p.ExtraOutputArgs...)
	args = append(args, "-flags", "+global_header", "-f", "tee", TeeSpec(p.Outputs))
	return args, nil
}

func videoInputArgs(p *Params) []string {
	size := fmt.Sprintf("%dx%d", p.Width, p.Height)
	fps := strconv.Itoa(p.FPS)

	if p.VideoDevice == "" {
		return []string{"-re", "-f", "lavfi", "-i", "testsrc2=size=" + size + ":rate=" + fps}
	}

	args := []string{"-f", "v4l2"}
	args = append(args, inputArgs(p.Options)...)
	if p.InputFormat != "" {
		args = append(args, "-input_format", p.InputFormat)
	}
	return append(args, "-video_size", size, "-framerate", fps, "-i", p.VideoDevice)
}

func audioInputArgs(p *Params) []string {
	channelLayout := "mono"
	if p.Channels == 2 {
		channelLayout = "stereo"
	}
	if p.AudioMuted {
		return []string{"-f", "lavfi", "-i", fmt.Sprintf("anullsrc=r=%d:cl=%s", p.SampleRate, channelLayout)}
	}

	format := p.AudioInputFormat
	if format == "" {
		format = "alsa"
	}
	return []string{
		"-thread_queue_size", "1024",
		"-f", format,
		"-sample_rate", strconv.Itoa(p.SampleRate),
		"-channels", strconv.Itoa(p.Channels),
		"-i", p.AudioDevice,
	}
}

// rotationFilter maps a clockwise rotation in degrees to a filter chain.
func rotationFilter(deg int) string {
	switch ((deg % 360) + 360) % 360 {
	case 90:
		return "transpose=clock"
	case 180:
		return "hflip,vflip"
	case 270:
		return "transpose=cclock"
	default:
		return ""
	}
}

func videoFilters(p *Params) string {
	chain := make([]string, 0, 2)
	if rot := rotationFilter(p.RotationDeg); rot != "" {
		chain = append(chain, rot)
	}
	chain = append(chain, "format=yuv420p")
	return strings.Join(chain, ",")
}

func videoCodecArgs(p *Params) []string {
	encoder := p.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	args := []string{"-c:v", encoder}

	if !isHardwareEncoder(encoder) {
		preset := p.Preset
		if preset == "" {
			preset = "veryfast"
		}
		args = append(args, "-preset", preset, "-tune", "zerolatency")
	}

	if p.BitrateBps > 0 {
		rate := strconv.FormatInt(p.BitrateBps, 10)
		args = append(args, "-b:v", rate, "-maxrate", rate, "-bufsize", strconv.FormatInt(p.BitrateBps*2, 10))
	}

	gop := p.GOP
	if gop <= 0 {
		gop = p.FPS * 2
	}
	g := strconv.Itoa(gop)
	return append(args, "-g", g, "-keyint_min", g, "-sc_threshold", "0", "-bf", "0")
}

// AudioLevelKey is the frame metadata key the level meter prints.
const AudioLevelKey = "lavfi.astats.Overall.RMS_level"

func audioFilters(p *Params) string {
	var chain []string
	if p.NoiseSuppress && !p.AudioMuted {
		chain = append(chain, "afftdn=nf=-25")
	}
	if p.AudioLevelMeter && !p.AudioMuted {
		// Five measurement windows per second.
		window := p.SampleRate / 5
		if window <= 0 {
			window = 9600
		}
		chain = append(chain,
			fmt.Sprintf("asetnsamples=n=%d:p=0", window),
			"astats=metadata=1:reset=1:measure_perchannel=none",
			"ametadata=mode=print:key="+AudioLevelKey,
		)
	}
	return strings.Join(chain, ",")
}

func audioCodecArgs(p *Params) []string {
	codec := p.AudioCodec
	if codec == "" {
		codec = "aac"
	}
	args := []string{"-c:a", codec}
	if p.AudioBitrateBps > 0 {
		args = append(args, "-b:a", strconv.FormatInt(p.AudioBitrateBps, 10))
	}
	return append(args, "-ar", strconv.Itoa(p.SampleRate), "-ac", strconv.Itoa(p.Channels))
}

// TeeSpec renders outputs as a tee muxer target. Every slave uses
// onfail=ignore so a dead network link does not take the recording down;
// slave failures are reported on stderr and classified by ClassifyLine.
func TeeSpec(outputs []Output) string {
	slaves := make([]string, 0, len(outputs))
	for _, out := range outputs {
		opts := map[string]string{"f": out.Format, "onfail": "ignore"}
		for k, v := range out.Options {
			opts[k] = v
		}

		keys := make([]string, 0, len(opts))
		for k := range opts {
			if k != "f" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		parts := []string{"f=" + escapeTeeOption(opts["f"])}
		for _, k := range keys {
			parts = append(parts, k+"="+escapeTeeOption(opts[k]))
		}
		slaves = append(slaves, "["+strings.Join(parts, ":")+"]"+escapeTeeTarget(out.Target))
	}
	return strings.Join(slaves, "|")
}

func escapeTeeOption(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `]`, `\]`)
	return r.Replace(v)
}

func escapeTeeTarget(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `|`, `\|`)
	return r.Replace(v)
}

// CaptureParams describes a single-frame capture.
type CaptureParams struct {
	Source      string // device path or preview URL
	FromDevice  bool
	InputFormat string
	Width       int
	Height      int
	RotationDeg int
	OutputPath  string
}

// BuildCaptureArgs builds an argv that grabs one frame into a JPEG. A device
// source is opened with v4l2; anything else is treated as a URL or file.
func BuildCaptureArgs(p CaptureParams) ([]string, error) {
	if p.Source == "" {
		return nil, errors.New("capture source is required")
	}
	if p.OutputPath == "" {
		return nil, errors.New("output path is required")
	}

	args := baseArgs()
	if p.FromDevice {
		args = append(args, "-f", "v4l2")
		if p.InputFormat != "" {
			args = append(args, "-input_format", p.InputFormat)
		}
		if p.Width > 0 && p.Height > 0 {
			args = append(args, "-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height))
		}
	}
	args = append(args, "-i", p.Source)
	if rot := rotationFilter(p.RotationDeg); rot != "" {
		args = append(args, "-vf", rot)
	}
	return append(args, "-frames:v", "1", "-q:v", "2", "-y", p.OutputPath), nil
}

// isHardwareEncoder reports whether codec selects a hardware encoder.
func isHardwareEncoder(codec string) bool {
	for _, hw := range []string{"nvenc", "amf", "vaapi", "qsv", "videotoolbox", "rkmpp", "v4l2m2m"} {
		if strings.Contains(codec, hw) {
			return true
		}
	}
	return false
}
