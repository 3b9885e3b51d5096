package protocol

// SRT caller/listener/rendezvous modes.
const (
	SRTModeCaller     = "caller"
	SRTModeListener   = "listener"
	SRTModeRendezvous = "rendezvous"
)

// SRT defaults applied by Normalize.
const (
	DefaultSRTLatencyMs     = 2000
	DefaultSRTOverheadBwPct = 25
)

// ConnectionSettings describes where and how a session publishes.
// It is a value type; endpoints keep their own copy.
type ConnectionSettings struct {
	Protocol       Kind   `toml:"protocol" json:"protocol"`
	Address        string `toml:"address" json:"address"`
	Port           int    `toml:"port" json:"port"`
	Path           string `toml:"path" json:"path"`
	StreamKey      string `toml:"stream_key" json:"stream_key,omitempty"`
	UseTCP         bool   `toml:"use_tcp" json:"use_tcp"`
	Username       string `toml:"username" json:"username,omitempty"`
	Password       string `toml:"password" json:"-"`
	SelfSignedCert bool   `toml:"self_signed_cert" json:"self_signed_cert"`
	CertFile       string `toml:"cert_file" json:"cert_file,omitempty"`
	CertPassword   string `toml:"cert_password" json:"-"`

	SRTMode          string `toml:"srt_mode" json:"srt_mode,omitempty"`
	SRTLatencyMs     int    `toml:"srt_latency_ms" json:"srt_latency_ms,omitempty"`
	SRTOverheadBwPct int    `toml:"srt_overhead_bw_pct" json:"srt_overhead_bw_pct,omitempty"`
	SRTPassphrase    string `toml:"srt_passphrase" json:"-"`
}

// Normalize returns a copy with per-protocol defaults filled in: the
// protocol's default port when Port is unset, and SRT mode, latency and
// overhead when the protocol is SRT. Fields the protocol does not honor are
// cleared.
func (s ConnectionSettings) Normalize() ConnectionSettings {
	if s.Protocol == "" {
		s.Protocol = RTMP
	}
	if s.Port == 0 {
		s.Port = s.Protocol.DefaultPort()
	}
	if !s.Protocol.SupportsStreamKey() {
		s.StreamKey = ""
	}
	if !s.Protocol.SupportsAuth() {
		s.Username = ""
		s.Password = ""
	}
	if s.Protocol == SRT {
		if s.SRTMode == "" {
			s.SRTMode = SRTModeCaller
		}
		if s.SRTLatencyMs == 0 {
			s.SRTLatencyMs = DefaultSRTLatencyMs
		}
		if s.SRTOverheadBwPct == 0 {
			s.SRTOverheadBwPct = DefaultSRTOverheadBwPct
		}
	}
	return s
}

// HasAuth reports whether both credentials are present and honored.
func (s ConnectionSettings) HasAuth() bool {
	return s.Protocol.SupportsAuth() && s.Username != "" && s.Password != ""
}

// Redacted returns the URL with credentials masked, for logs.
func (s ConnectionSettings) Redacted() string {
	if s.Password != "" {
		s.Password = "xxxxx"
	}
	if s.SRTPassphrase != "" {
		s.SRTPassphrase = "xxxxx"
	}
	return BuildStreamURL(s)
}
