package endpoint

import (
	"sync/atomic"

	"github.com/smazurov/livecast/internal/protocol"
)

// rtspEndpoint publishes RTSP and RTSPS with interleaved TCP or UDP transport.
type rtspEndpoint struct {
	base
	useTCP atomic.Bool
}

func newRTSP(settings protocol.ConnectionSettings, enc Encoder) *rtspEndpoint {
	e := &rtspEndpoint{}
	e.init(settings, enc)
	e.useTCP.Store(settings.UseTCP || settings.Protocol.UsesTLS())
	return e
}

func (e *rtspEndpoint) StartStream(rawURL string) error {
	u, err := e.withCredentials(rawURL)
	if err != nil {
		return err
	}
	opts := e.tlsOptions()
	opts["rtsp_transport"] = "udp"
	if e.useTCP.Load() {
		opts["rtsp_transport"] = "tcp"
	}
	return e.start(StreamTarget{URL: u, Format: "rtsp", Options: opts})
}

func (e *rtspEndpoint) SetAuthorization(user, pass string) { e.setCredentials(user, pass) }

// SetProtocol selects TCP or UDP transport for the next StartStream. RTSPS
// is TCP only.
func (e *rtspEndpoint) SetProtocol(useTCP bool) {
	if e.settings.Protocol.UsesTLS() && !useTCP {
		e.logger.Debug("RTSPS requires TCP transport, ignoring UDP request")
		return
	}
	e.useTCP.Store(useTCP)
}
