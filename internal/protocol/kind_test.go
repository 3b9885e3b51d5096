package protocol

import "testing"

func TestKindDescriptors(t *testing.T) {
	tests := []struct {
		kind      Kind
		port      int
		streamKey bool
		auth      bool
		tls       bool
	}{
		{RTMP, 1935, true, true, false},
		{RTMPS, 443, true, true, true},
		{RTSP, 554, false, true, false},
		{RTSPS, 322, false, true, true},
		{SRT, 9710, false, true, false},
		{UDP, 5000, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.DefaultPort(); got != tt.port {
				t.Errorf("DefaultPort() = %d, want %d", got, tt.port)
			}
			if got := tt.kind.SupportsStreamKey(); got != tt.streamKey {
				t.Errorf("SupportsStreamKey() = %v, want %v", got, tt.streamKey)
			}
			if got := tt.kind.SupportsAuth(); got != tt.auth {
				t.Errorf("SupportsAuth() = %v, want %v", got, tt.auth)
			}
			if got := tt.kind.UsesTLS(); got != tt.tls {
				t.Errorf("UsesTLS() = %v, want %v", got, tt.tls)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" RTMPS "); err != nil || k != RTMPS {
		t.Errorf("ParseKind(RTMPS) = %q, %v", k, err)
	}
	if _, err := ParseKind("webrtc"); err == nil {
		t.Error("Expected error for unknown protocol")
	}
}

func TestFamily(t *testing.T) {
	if RTMPS.Family() != RTMP || RTSPS.Family() != RTSP || SRT.Family() != SRT {
		t.Error("Unexpected protocol family mapping")
	}
}

func TestNormalize(t *testing.T) {
	s := ConnectionSettings{Protocol: SRT, Address: "a", StreamKey: "k"}.Normalize()
	if s.Port != 9710 {
		t.Errorf("Expected default SRT port, got %d", s.Port)
	}
	if s.SRTMode != SRTModeCaller || s.SRTLatencyMs != DefaultSRTLatencyMs || s.SRTOverheadBwPct != DefaultSRTOverheadBwPct {
		t.Errorf("Expected SRT defaults, got %+v", s)
	}
	if s.StreamKey != "" {
		t.Error("Expected stream key cleared for SRT")
	}

	u := ConnectionSettings{Protocol: UDP, Address: "a", Username: "u", Password: "p"}.Normalize()
	if u.Username != "" || u.Password != "" {
		t.Error("Expected credentials cleared for UDP")
	}

	explicit := ConnectionSettings{Protocol: RTMP, Address: "a", Port: 1936}.Normalize()
	if explicit.Port != 1936 {
		t.Errorf("Expected explicit port kept, got %d", explicit.Port)
	}

	if d := (ConnectionSettings{}).Normalize(); d.Protocol != RTMP || d.Port != 1935 {
		t.Errorf("Expected rtmp default, got %+v", d)
	}
}
