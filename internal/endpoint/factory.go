package endpoint

import (
	"errors"
	"fmt"

	"github.com/smazurov/livecast/internal/protocol"
)

// ErrNoEncoder is returned by a Factory without an EncoderFactory.
var ErrNoEncoder = errors.New("endpoint factory has no encoder")

// Factory builds endpoints for a protocol kind.
type Factory struct {
	NewEncoder EncoderFactory
}

// New builds the variant for settings.Protocol. The settings are normalized
// and copied; the endpoint never mutates the caller's value.
func (f Factory) New(settings protocol.ConnectionSettings, sink ConnectionEventSink) (Endpoint, error) {
	if f.NewEncoder == nil {
		return nil, ErrNoEncoder
	}
	settings = settings.Normalize()
	if !settings.Protocol.Valid() {
		return nil, fmt.Errorf("unsupported protocol %q", settings.Protocol)
	}

	enc := f.NewEncoder(sink)
	switch settings.Protocol.Family() {
	case protocol.RTMP:
		return newRTMP(settings, enc), nil
	case protocol.RTSP:
		return newRTSP(settings, enc), nil
	case protocol.SRT:
		return newSRT(settings, enc), nil
	default:
		return newUDP(settings, enc), nil
	}
}
