package endpoint

import (
	"net/url"
	"strconv"

	"github.com/smazurov/livecast/internal/protocol"
)

// srtEndpoint publishes MPEG-TS over SRT. Credentials travel in the streamid
// built into the URL, so SetAuthorization has nothing to do.
type srtEndpoint struct {
	base
}

func newSRT(settings protocol.ConnectionSettings, enc Encoder) *srtEndpoint {
	e := &srtEndpoint{}
	e.init(settings, enc)
	return e
}

func (e *srtEndpoint) StartStream(rawURL string) error {
	u, err := encoderSRTURL(rawURL)
	if err != nil {
		return err
	}
	return e.start(StreamTarget{URL: u, Format: "mpegts"})
}

// encoderSRTURL converts the latency query value from milliseconds to the
// microseconds the encoder's SRT protocol expects, and pins a payload size
// that fits seven TS packets.
func encoderSRTURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if ms, err := strconv.Atoi(q.Get("latency")); err == nil {
		q.Set("latency", strconv.Itoa(ms*1000))
	}
	if q.Get("pkt_size") == "" {
		q.Set("pkt_size", "1316")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (e *srtEndpoint) SetAuthorization(string, string) {
	e.logger.Debug("SRT carries credentials in the streamid, ignoring SetAuthorization")
}

func (e *srtEndpoint) SetProtocol(bool) {}
