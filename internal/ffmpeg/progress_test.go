package ffmpeg

import "testing"

func TestProgressParser(t *testing.T) {
	lines := []string{
		"frame=120",
		"fps=29.97",
		"stream_0_0_q=23.0",
		"bitrate=2048.5kbits/s",
		"total_size=1048576",
		"out_time_us=4000000",
		"dup_frames=1",
		"drop_frames=3",
		"speed=0.98x",
		"progress=continue",
	}

	var pp ProgressParser
	var got Progress
	var done bool
	for i, line := range lines {
		got, done = pp.Feed(line)
		if done != (i == len(lines)-1) {
			t.Fatalf("line %d (%q): done = %v", i, line, done)
		}
	}

	if got.Frame != 120 || got.FPS != 29.97 || got.BitrateBps != 2048500 {
		t.Errorf("Unexpected progress %+v", got)
	}
	if got.DropFrames != 3 || got.DupFrames != 1 || got.Speed != 0.98 || got.Ended {
		t.Errorf("Unexpected progress %+v", got)
	}

	// The parser starts a fresh block after a terminator.
	next, done := pp.Feed("progress=end")
	if !done || next.Frame != 0 || !next.Ended {
		t.Errorf("Expected empty ended block, got %+v", next)
	}
}

func TestParseBitrate(t *testing.T) {
	tests := map[string]int64{
		"2048.5kbits/s": 2048500,
		"1.5Mbits/s":    1500000,
		"800bits/s":     800,
		"N/A":           0,
		"":              0,
	}
	for in, want := range tests {
		if got := parseBitrate(in); got != want {
			t.Errorf("parseBitrate(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestProgressIgnoresNoise(t *testing.T) {
	var pp ProgressParser
	if _, done := pp.Feed("not a progress line"); done {
		t.Error("Expected non key=value line to be ignored")
	}
	if _, done := pp.Feed("speed=N/A"); done {
		t.Error("Expected speed line not to end a block")
	}
	block, _ := pp.Feed("progress=continue")
	if block.Speed != 0 {
		t.Errorf("Expected zero speed for N/A, got %v", block.Speed)
	}
}
