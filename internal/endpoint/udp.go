package endpoint

import (
	"net/url"

	"github.com/smazurov/livecast/internal/protocol"
)

// udpEndpoint sends MPEG-TS over plain UDP. There is no handshake, so the
// connection counts as established as soon as packets are flowing.
type udpEndpoint struct {
	base
}

func newUDP(settings protocol.ConnectionSettings, enc Encoder) *udpEndpoint {
	e := &udpEndpoint{}
	e.init(settings, enc)
	return e
}

func (e *udpEndpoint) StartStream(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	q := u.Query()
	if q.Get("pkt_size") == "" {
		q.Set("pkt_size", "1316")
	}
	u.RawQuery = q.Encode()
	return e.start(StreamTarget{URL: u.String(), Format: "mpegts"})
}

func (e *udpEndpoint) SetAuthorization(string, string) {}

func (e *udpEndpoint) SetProtocol(bool) {}
