package protocol

import (
	"net/url"
	"strconv"
	"strings"
)

// BuildStreamURL renders the publish URL for s. The port segment is omitted
// when Port is 0 and an empty Address yields "". Callers should normally pass
// settings through Normalize first.
func BuildStreamURL(s ConnectionSettings) string {
	if s.Address == "" {
		return ""
	}

	switch s.Protocol.Family() {
	case RTMP:
		path := strings.Trim(s.Path, "/")
		if path != "" && s.StreamKey != "" && s.Protocol.SupportsStreamKey() {
			path += "/" + strings.Trim(s.StreamKey, "/")
		}
		return s.Protocol.Scheme() + "://" + userinfo(s) + hostport(s) + "/" + path
	case RTSP:
		return s.Protocol.Scheme() + "://" + userinfo(s) + hostport(s) + "/" + strings.Trim(s.Path, "/")
	case SRT:
		return buildSRTURL(s)
	case UDP:
		return "udp://" + hostport(s)
	default:
		return ""
	}
}

func buildSRTURL(s ConnectionSettings) string {
	var b strings.Builder
	b.WriteString("srt://")
	b.WriteString(hostport(s))
	b.WriteString("?streamid=publish:")
	b.WriteString(strings.Trim(s.Path, "/"))
	if s.HasAuth() {
		b.WriteString(":")
		b.WriteString(s.Username)
		b.WriteString(":")
		b.WriteString(s.Password)
	}
	b.WriteString("&mode=")
	b.WriteString(s.SRTMode)
	b.WriteString("&latency=")
	b.WriteString(strconv.Itoa(s.SRTLatencyMs))
	b.WriteString("&oheadbw=")
	b.WriteString(strconv.Itoa(s.SRTOverheadBwPct))
	if s.SRTPassphrase != "" {
		b.WriteString("&passphrase=")
		b.WriteString(url.QueryEscape(s.SRTPassphrase))
	}
	return b.String()
}

func userinfo(s ConnectionSettings) string {
	if !s.HasAuth() {
		return ""
	}
	return url.UserPassword(s.Username, s.Password).String() + "@"
}

func hostport(s ConnectionSettings) string {
	if s.Port == 0 {
		return s.Address
	}
	return s.Address + ":" + strconv.Itoa(s.Port)
}
