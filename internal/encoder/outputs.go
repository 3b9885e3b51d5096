package encoder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/smazurov/livecast/internal/ffmpeg"
	"github.com/smazurov/livecast/internal/metrics"
)

// outputsLocked returns the desired output set. The stream slave, when
// present, is always index 0. A recording whose current file has already
// been written by a process moves on to a new segment.
func (e *Encoder) outputsLocked() []ffmpeg.Output {
	var outputs []ffmpeg.Output
	if e.stream != nil {
		outputs = append(outputs, ffmpeg.Output{
			Role:    ffmpeg.RoleStream,
			Format:  e.stream.target.Format,
			Target:  e.stream.target.URL,
			Options: e.stream.target.Options,
		})
	}
	if rec := e.record; rec != nil {
		if rec.used {
			rec.segment++
			rec.current = segmentPath(rec.path, rec.segment)
			rec.used = false
		}
		outputs = append(outputs, ffmpeg.Output{
			Role:    ffmpeg.RoleRecord,
			Format:  "mp4",
			Target:  rec.current,
			Options: map[string]string{"movflags": "+frag_keyframe+empty_moov"},
		})
	}
	if e.preview {
		out := ffmpeg.Output{
			Role:   ffmpeg.RolePreview,
			Format: e.surface.MuxerFormat(),
			Target: e.surface.Target,
		}
		if out.Format == "image2" {
			out.Options = map[string]string{"update": "1"}
		}
		outputs = append(outputs, out)
	}
	return outputs
}

// segmentPath returns the file for segment n of a recording at path:
// clip.mp4 becomes clip_001.mp4.
func segmentPath(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%03d%s", strings.TrimSuffix(path, ext), n, ext)
}

// paramsLocked builds the encoder command parameters for outputs.
func (e *Encoder) paramsLocked(outputs []ffmpeg.Output) *ffmpeg.Params {
	video := defaultPreview
	if e.video != nil {
		video = *e.video
	}
	bitrate := e.bitrate
	if bitrate <= 0 {
		bitrate = video.BitrateBps
	}

	p := &ffmpeg.Params{
		InputFormat: e.cfg.InputFormat,
		Width:       video.Width,
		Height:      video.Height,
		FPS:         video.FPS,
		RotationDeg: video.RotationDeg + e.rotation,
		Options:     e.cfg.Options,
		Encoder:     e.cfg.VideoEncoder,
		Preset:      e.cfg.Preset,
		BitrateBps:  bitrate,
		GOP:         video.GOP(),
		Outputs:     outputs,
	}
	if e.cfg.Source != nil {
		p.VideoDevice = e.cfg.Source.DevicePath()
	}

	if audio := e.audio; audio != nil && audio.Enabled {
		p.SampleRate = audio.SampleRate
		p.Channels = audio.Channels()
		p.AudioBitrateBps = audio.BitrateBps
		p.NoiseSuppress = audio.NoiseSuppress
		p.AudioLevelMeter = e.cfg.AudioLevelMeter
		p.AudioMuted = !e.audioEnabled
		p.AudioDevice = e.cfg.AudioDevice

		switch {
		case audio.EchoCancel && e.cfg.EchoCancelSource != "":
			p.AudioInputFormat = "pulse"
			p.AudioDevice = e.cfg.EchoCancelSource
		case p.AudioDevice == "":
			// No microphone configured; publish a silent track.
			p.AudioDevice = "anullsrc"
			p.AudioMuted = true
		}
	}
	return p
}

// applyLocked brings the process in line with the desired output set:
// started, restarted with new arguments, or shut down when nothing is left.
func (e *Encoder) applyLocked() error {
	outputs := e.outputsLocked()
	if len(outputs) == 0 {
		e.shutdownLocked()
		return nil
	}

	args, err := ffmpeg.BuildArgs(e.paramsLocked(outputs))
	if err != nil {
		return fmt.Errorf("build encoder command: %w", err)
	}
	e.launches = append(e.launches, launch{tee: args[len(args)-1], outputs: outputs})

	if e.run != nil {
		metrics.IncEncoderRestarts()
		e.run.RequestRestart(args)
		return nil
	}

	e.gen++
	gen := e.gen
	r := e.newRunner(args, hooks{
		onStart: func(args []string) { e.onStart(gen, args) },
		onLine:  func(source, line string) { e.onLine(gen, source, line) },
	})
	e.run = r
	go e.supervise(gen, r)
	return nil
}

// applyOrFailLocked applies the output set and fails every output when the
// command cannot be built.
func (e *Encoder) applyOrFailLocked() {
	if err := e.applyLocked(); err != nil {
		e.logger.Error("Failed to apply encoder outputs", "error", err)
		e.failAllLocked(err)
	}
}

// shutdownLocked stops the process. Output still in flight from it is
// ignored.
func (e *Encoder) shutdownLocked() {
	if e.run == nil {
		return
	}
	e.run.Shutdown()
	e.run = nil
	e.gen++
	e.launches = nil
	e.outputs = nil
	e.resetProgressLocked()
	metrics.ResetEncoder()
}

// failAllLocked drops every output after an unrecoverable encoder failure.
func (e *Encoder) failAllLocked(cause error) {
	if e.stream != nil {
		e.failStreamLocked(false, cause.Error())
	}
	if rec := e.record; rec != nil {
		e.record = nil
		e.notifyRecordStopped(rec, cause)
	}
	e.preview = false
	e.shutdownLocked()
}

// failStreamLocked drops the stream output and reports why.
func (e *Encoder) failStreamLocked(auth bool, reason string) {
	s := e.stream
	if s == nil {
		return
	}
	e.stream = nil
	e.logger.Warn("Stream output failed", "auth", auth, "reason", reason)

	if auth {
		e.notify(e.sink.OnAuthError)
		return
	}
	if s.connected {
		e.notify(e.sink.OnDisconnect)
	}
	e.notify(func() { e.sink.OnConnectionFailed(reason) })
}

func (e *Encoder) roleAtLocked(idx int) (ffmpeg.OutputRole, bool) {
	if idx < 0 || idx >= len(e.outputs) {
		return "", false
	}
	return e.outputs[idx].Role, true
}
