package ffmpeg

// OutputRole tells the builder what a tee output is for.
type OutputRole string

// Output roles.
const (
	RoleStream  OutputRole = "stream"
	RoleRecord  OutputRole = "record"
	RolePreview OutputRole = "preview"
)

// Output is one tee slave of the encoder process.
type Output struct {
	Role    OutputRole
	Format  string            // muxer: flv, rtsp, mpegts, mp4, image2
	Target  string            // URL or file path
	Options map[string]string // slave options such as rtsp_transport or tls_verify
}

// Params holds everything needed to build one encoder command.
type Params struct {
	// Video input
	VideoDevice string // /dev/video0; empty selects a test pattern
	InputFormat string // mjpeg, yuyv422
	Width       int
	Height      int
	FPS         int
	RotationDeg int
	Options     []OptionType

	// Video encoding
	Encoder    string // libx264 when empty
	Preset     string
	BitrateBps int64
	GOP        int

	// Audio input and encoding; no audio when AudioDevice is empty
	AudioDevice      string
	AudioInputFormat string // alsa when empty
	SampleRate       int
	Channels         int
	AudioCodec       string // aac when empty
	AudioBitrateBps  int64
	NoiseSuppress    bool
	AudioMuted       bool
	AudioLevelMeter  bool

	ExtraOutputArgs []string
	Outputs         []Output
}

// HasAudio reports whether the command captures audio.
func (p *Params) HasAudio() bool {
	return p.AudioDevice != ""
}
