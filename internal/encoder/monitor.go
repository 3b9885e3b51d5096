package encoder

import (
	"fmt"
	"math"
	"strings"

	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/ffmpeg"
	"github.com/smazurov/livecast/internal/metrics"
	"github.com/smazurov/livecast/internal/process"
)

// slowSpeed is the processing speed under which a progress block counts as
// falling behind.
const slowSpeed = 0.95

func (e *Encoder) supervise(gen uint64, r runner) {
	code := r.RunWithRestart()
	e.onExit(gen, code)
}

// onStart runs when a process of generation gen has started with args.
func (e *Encoder) onStart(gen uint64, args []string) {
	e.mu.Lock()
	defer e.unlock()
	if gen != e.gen || len(args) == 0 {
		return
	}

	tee := args[len(args)-1]
	for i := len(e.launches) - 1; i >= 0; i-- {
		if e.launches[i].tee == tee {
			e.outputs = e.launches[i].outputs
			e.launches = e.launches[i+1:]
			break
		}
	}
	e.resetProgressLocked()

	if e.stream != nil {
		e.stream.blocks = 0
	}
	rec := e.record
	if rec == nil || rec.used || !e.runningLocked(ffmpeg.RoleRecord, rec.current) {
		return
	}
	rec.used = true
	rec.paths = append(rec.paths, rec.current)
	path, listener := rec.current, rec.listener
	if listener == nil {
		return
	}
	if len(rec.paths) == 1 {
		e.notify(func() { listener.OnRecordStarted(path) })
	} else {
		e.notify(func() { listener.OnRecordSegment(path) })
	}
}

func (e *Encoder) runningLocked(role ffmpeg.OutputRole, target string) bool {
	for _, out := range e.outputs {
		if out.Role == role && out.Target == target {
			return true
		}
	}
	return false
}

func (e *Encoder) resetProgressLocked() {
	e.parser = ffmpeg.ProgressParser{}
	e.lastFrames, e.lastDrops = 0, 0
	e.slowBlocks = 0
	e.dropping = false
	e.pendingAuth = false
	e.pendingReason = ""
	e.streamFault = false
}

// onLine handles one output line of a process of generation gen.
func (e *Encoder) onLine(gen uint64, source, line string) {
	e.mu.Lock()
	defer e.unlock()
	if gen != e.gen {
		return
	}

	if source == process.SourceStdout {
		if block, ok := e.parser.Feed(line); ok {
			e.onProgressLocked(block)
		}
		return
	}

	if level, ok := ffmpeg.ParseAudioLevel(line); ok {
		if ls, ok := e.sink.(endpoint.AudioLevelSink); ok {
			e.notify(func() { ls.OnAudioLevel(level) })
		}
		return
	}

	_, msg := ffmpeg.ParseLogLevel(line)
	class, idx := ffmpeg.ClassifyLine(msg)
	switch class {
	case ffmpeg.ClassAuthFailed:
		e.pendingAuth = true
		e.pendingReason = msg
	case ffmpeg.ClassConnectionFailed, ffmpeg.ClassBrokenPipe:
		if e.pendingReason == "" {
			e.pendingReason = msg
		}
	case ffmpeg.ClassSlaveFailed:
		e.onSlaveFailedLocked(idx, msg)
	case ffmpeg.ClassDeviceBusy, ffmpeg.ClassAudioFormat:
		e.logger.Warn("Capture device problem", "class", class.String(), "line", msg)
	}
}

func (e *Encoder) onSlaveFailedLocked(idx int, msg string) {
	role, ok := e.roleAtLocked(idx)
	if !ok {
		e.logger.Warn("Unknown tee slave failed", "index", idx, "line", msg)
		return
	}

	switch role {
	case ffmpeg.RoleStream:
		e.streamFault = true
		reason := e.pendingReason
		if reason == "" {
			reason = msg
		}
		e.failStreamLocked(e.pendingAuth, reason)
	case ffmpeg.RoleRecord:
		if rec := e.record; rec != nil {
			e.record = nil
			e.notifyRecordStopped(rec, fmt.Errorf("recording failed: %s", msg))
		}
	case ffmpeg.RolePreview:
		e.logger.Warn("Preview output failed", "target", e.surface.Target, "line", msg)
		e.preview = false
	}
}

func (e *Encoder) onProgressLocked(p ffmpeg.Progress) {
	frames := p.Frame - e.lastFrames
	drops := p.DropFrames - e.lastDrops
	e.lastFrames, e.lastDrops = p.Frame, p.DropFrames

	if p.Speed > 0 && p.Speed < slowSpeed {
		e.slowBlocks++
	} else {
		e.slowBlocks = 0
	}
	e.dropping = drops > 0

	measured := p.BitrateBps
	if measured <= 0 {
		measured = estimateBitrate(e.bitrate, p.Speed, frames, drops)
	}
	metrics.ObserveEncoder(p.FPS, p.Speed, p.DropFrames, measured, e.congestedLocked())

	s := e.stream
	if s == nil || p.Frame <= 0 {
		return
	}
	s.blocks++
	if !s.connected && s.blocks >= 2 {
		s.connected = true
		if !s.announced {
			s.announced = true
			e.notify(e.sink.OnConnectionSuccess)
			if s.withAuth {
				e.notify(e.sink.OnAuthSuccess)
			}
		}
	}
	if s.connected {
		e.notify(func() { e.sink.OnNewBitrate(measured) })
	}
}

// estimateBitrate approximates the output bitrate when ffmpeg cannot report
// it: the target scaled by real-time speed and the share of frames kept.
func estimateBitrate(target int64, speed float64, frames, drops int64) int64 {
	if target <= 0 {
		return 0
	}
	factor := math.Min(speed, 1)
	if speed <= 0 {
		factor = 1
	}
	if total := frames + drops; total > 0 && drops > 0 {
		factor *= 1 - float64(drops)/float64(total)
	}
	return int64(float64(target) * factor)
}

// onExit runs when the process of generation gen exited on its own.
func (e *Encoder) onExit(gen uint64, code int) {
	e.mu.Lock()
	defer e.unlock()
	if gen != e.gen || e.released {
		return
	}

	e.run = nil
	e.gen++
	e.launches = nil
	onlyStream := len(e.outputs) == 1 && e.outputs[0].Role == ffmpeg.RoleStream
	fault := e.streamFault || e.pendingReason != ""
	e.outputs = nil
	metrics.ResetEncoder()

	e.logger.Warn("Encoder exited", "exit_code", code, "stream_fault", fault)
	cause := fmt.Errorf("%w with code %d", errEncoderExited, code)

	switch {
	case e.stream != nil && (fault || onlyStream):
		reason := e.pendingReason
		if reason == "" {
			reason = cause.Error()
		}
		e.failStreamLocked(e.pendingAuth, strings.TrimSpace(reason))
		e.resetProgressLocked()
		e.applyOrFailLocked()
	case e.stream == nil && e.streamFault:
		e.resetProgressLocked()
		e.applyOrFailLocked()
	default:
		e.failAllLocked(cause)
	}
}
