package ffmpeg

import "strings"

// ParseLogLevel splits a `-loglevel level+info` line into its level and
// message. Lines look like "[info] message" or
// "[component @ 0x...] [level] message"; the component prefix is kept.
// Level meter lines are demoted to debug.
func ParseLogLevel(line string) (level, msg string) {
	level, msg = splitLevel(line)
	if level == "info" && strings.Contains(msg, AudioLevelKey) {
		return "debug", msg
	}
	return level, msg
}

func splitLevel(line string) (level, msg string) {
	if len(line) < 3 || line[0] != '[' {
		return "info", line
	}

	end := strings.Index(line, "] ")
	if end == -1 {
		return "info", line
	}

	bracket := line[1:end]
	if isLogLevel(bracket) {
		return bracket, line[end+2:]
	}

	component := line[:end+2]
	rest := line[end+2:]
	if len(rest) > 2 && rest[0] == '[' {
		if nextEnd := strings.Index(rest, "] "); nextEnd != -1 {
			if next := rest[1:nextEnd]; isLogLevel(next) {
				return next, component + rest[nextEnd+2:]
			}
		}
	}

	return "info", line
}

func isLogLevel(s string) bool {
	switch s {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return true
	}
	return false
}
