package ffmpeg

import (
	"regexp"
	"strconv"
	"strings"
)

// LineClass is the meaning of an ffmpeg stderr line for session control.
type LineClass int

// Line classes.
const (
	ClassNone LineClass = iota
	ClassAuthFailed
	ClassConnectionFailed
	ClassBrokenPipe
	ClassSlaveFailed
	ClassDeviceBusy
	ClassAudioFormat
)

func (c LineClass) String() string {
	switch c {
	case ClassAuthFailed:
		return "auth_failed"
	case ClassConnectionFailed:
		return "connection_failed"
	case ClassBrokenPipe:
		return "broken_pipe"
	case ClassSlaveFailed:
		return "slave_failed"
	case ClassDeviceBusy:
		return "device_busy"
	case ClassAudioFormat:
		return "audio_format"
	default:
		return "none"
	}
}

var authMarkers = []string{
	"401 Unauthorized",
	"Authentication failed",
	"authentication failed",
	"NetConnection.Connect.Rejected",
	"Server error: 401",
	"403 Forbidden",
	"SRT_REJ_BADSECRET",
	"rejected by peer: bad secret",
}

var connectionMarkers = []string{
	"Connection refused",
	"Connection timed out",
	"No route to host",
	"Network is unreachable",
	"Name or service not known",
	"Temporary failure in name resolution",
	"Host is unreachable",
	"Server returned 404",
	"Connection setup failed",
	"Operation timed out",
	"error opening",
}

var brokenPipeMarkers = []string{
	"Broken pipe",
	"Connection reset by peer",
	"End of file",
}

var deviceBusyMarkers = []string{
	"Device or resource busy",
	"audio open failed",
}

var audioFormatMarkers = []string{
	"cannot set sample rate",
	"cannot set channel count",
	"Invalid sample rate",
}

var slaveFailedRe = regexp.MustCompile(`Slave muxer #(\d+) failed`)

// ClassifyLine classifies a stderr line. For ClassSlaveFailed the second
// result is the zero-based tee slave index; it is -1 otherwise.
func ClassifyLine(line string) (LineClass, int) {
	if m := slaveFailedRe.FindStringSubmatch(line); m != nil {
		idx, _ := strconv.Atoi(m[1])
		return ClassSlaveFailed, idx
	}
	switch {
	case containsAny(line, authMarkers):
		return ClassAuthFailed, -1
	case containsAny(line, deviceBusyMarkers):
		return ClassDeviceBusy, -1
	case containsAny(line, audioFormatMarkers):
		return ClassAudioFormat, -1
	case containsAny(line, connectionMarkers):
		return ClassConnectionFailed, -1
	case containsAny(line, brokenPipeMarkers):
		return ClassBrokenPipe, -1
	}
	return ClassNone, -1
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// ParseAudioLevel extracts the RMS level printed by the level meter filter.
func ParseAudioLevel(line string) (float64, bool) {
	idx := strings.Index(line, AudioLevelKey+"=")
	if idx < 0 {
		return 0, false
	}
	value := strings.TrimSpace(line[idx+len(AudioLevelKey)+1:])
	if value == "-inf" {
		return -120, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
