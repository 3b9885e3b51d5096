package ffmpeg

import (
	"strconv"
	"strings"
)

// Progress is one block of `-progress` output.
type Progress struct {
	Frame      int64
	FPS        float64
	BitrateBps int64 // 0 when ffmpeg reports N/A
	TotalSize  int64
	OutTimeUs  int64
	DupFrames  int64
	DropFrames int64
	Speed      float64 // 0 when ffmpeg reports N/A
	Ended      bool
}

// ProgressParser accumulates key=value lines and yields a Progress at each
// `progress=` terminator. It is not safe for concurrent use.
type ProgressParser struct {
	current Progress
}

// Feed consumes one line. It returns the completed block and true when the
// line terminates a block.
func (pp *ProgressParser) Feed(line string) (Progress, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Progress{}, false
	}
	value = strings.TrimSpace(value)

	switch key {
	case "frame":
		pp.current.Frame, _ = strconv.ParseInt(value, 10, 64)
	case "fps":
		pp.current.FPS, _ = strconv.ParseFloat(value, 64)
	case "bitrate":
		pp.current.BitrateBps = parseBitrate(value)
	case "total_size":
		pp.current.TotalSize, _ = strconv.ParseInt(value, 10, 64)
	case "out_time_us":
		pp.current.OutTimeUs, _ = strconv.ParseInt(value, 10, 64)
	case "dup_frames":
		pp.current.DupFrames, _ = strconv.ParseInt(value, 10, 64)
	case "drop_frames":
		pp.current.DropFrames, _ = strconv.ParseInt(value, 10, 64)
	case "speed":
		pp.current.Speed, _ = strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64)
	case "progress":
		pp.current.Ended = value == "end"
		block := pp.current
		pp.current = Progress{}
		return block, true
	}
	return Progress{}, false
}

// parseBitrate converts "2048.3kbits/s" to bits per second.
func parseBitrate(value string) int64 {
	value = strings.TrimSpace(value)
	multiplier := 1.0
	switch {
	case strings.HasSuffix(value, "kbits/s"):
		value = strings.TrimSuffix(value, "kbits/s")
		multiplier = 1000
	case strings.HasSuffix(value, "Mbits/s"):
		value = strings.TrimSuffix(value, "Mbits/s")
		multiplier = 1000 * 1000
	case strings.HasSuffix(value, "bits/s"):
		value = strings.TrimSuffix(value, "bits/s")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return int64(f * multiplier)
}
