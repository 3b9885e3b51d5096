// Package protocol describes the transport protocols a session can publish
// over and builds their publish URLs.
package protocol

import (
	"fmt"
	"strings"
)

// Kind identifies a transport protocol.
type Kind string

// Supported protocol kinds.
const (
	RTMP  Kind = "rtmp"
	RTMPS Kind = "rtmps"
	RTSP  Kind = "rtsp"
	RTSPS Kind = "rtsps"
	SRT   Kind = "srt"
	UDP   Kind = "udp"
)

type descriptor struct {
	defaultPort       int
	supportsStreamKey bool
	supportsAuth      bool
	tls               bool
}

var descriptors = map[Kind]descriptor{
	RTMP:  {defaultPort: 1935, supportsStreamKey: true, supportsAuth: true},
	RTMPS: {defaultPort: 443, supportsStreamKey: true, supportsAuth: true, tls: true},
	RTSP:  {defaultPort: 554, supportsAuth: true},
	RTSPS: {defaultPort: 322, supportsAuth: true, tls: true},
	SRT:   {defaultPort: 9710, supportsAuth: true},
	UDP:   {defaultPort: 5000},
}

// Kinds returns every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{RTMP, RTMPS, RTSP, RTSPS, SRT, UDP}
}

// ParseKind parses a configuration value such as "RTMPS" or "srt".
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := descriptors[k]; !ok {
		return "", fmt.Errorf("unknown protocol %q", s)
	}
	return k, nil
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	_, ok := descriptors[k]
	return ok
}

// DefaultPort returns the port used when none is configured.
func (k Kind) DefaultPort() int { return descriptors[k].defaultPort }

// SupportsStreamKey reports whether a stream key is appended to the path.
func (k Kind) SupportsStreamKey() bool { return descriptors[k].supportsStreamKey }

// SupportsAuth reports whether username/password are honored.
func (k Kind) SupportsAuth() bool { return descriptors[k].supportsAuth }

// UsesTLS reports whether the kind is the TLS variant of its family.
func (k Kind) UsesTLS() bool { return descriptors[k].tls }

// Scheme returns the URL scheme.
func (k Kind) Scheme() string { return string(k) }

// Family groups the TLS and plain variants: rtmps belongs to rtmp, rtsps to rtsp.
func (k Kind) Family() Kind {
	switch k {
	case RTMPS:
		return RTMP
	case RTSPS:
		return RTSP
	default:
		return k
	}
}

func (k Kind) String() string { return string(k) }
