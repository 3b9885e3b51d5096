package endpoint

import "github.com/smazurov/livecast/internal/protocol"

// rtmpEndpoint publishes RTMP and RTMPS as FLV.
type rtmpEndpoint struct {
	base
}

func newRTMP(settings protocol.ConnectionSettings, enc Encoder) *rtmpEndpoint {
	e := &rtmpEndpoint{}
	e.init(settings, enc)
	return e
}

func (e *rtmpEndpoint) StartStream(rawURL string) error {
	u, err := e.withCredentials(rawURL)
	if err != nil {
		return err
	}
	return e.start(StreamTarget{URL: u, Format: "flv", Options: e.tlsOptions()})
}

func (e *rtmpEndpoint) SetAuthorization(user, pass string) { e.setCredentials(user, pass) }

// SetProtocol is a no-op: RTMP always runs over TCP.
func (e *rtmpEndpoint) SetProtocol(bool) {}
