package session

import (
	"github.com/smazurov/livecast/internal/bitrate"
	"github.com/smazurov/livecast/internal/events"
	"github.com/smazurov/livecast/internal/metrics"
)

// sink receives the callbacks of the endpoint of generation gen and queues
// them for the loop.
type sink struct {
	c   *Controller
	gen uint64
}

func (s sink) post(fn func()) {
	s.c.mail.post(func() {
		if s.gen == s.c.epGen {
			fn()
		}
	})
}

func (s sink) OnConnectionStarted(string) { s.post(s.c.onConnectionStarted) }
func (s sink) OnConnectionSuccess()       { s.post(s.c.onConnectionSuccess) }
func (s sink) OnDisconnect()              { s.post(s.c.onDisconnect) }
func (s sink) OnAuthError()               { s.post(s.c.onAuthError) }
func (s sink) OnAuthSuccess()             { s.post(s.c.onAuthSuccess) }

func (s sink) OnConnectionFailed(reason string) {
	s.post(func() { s.c.onConnectionFailed(reason) })
}

func (s sink) OnNewBitrate(bps int64) {
	s.post(func() { s.c.onNewBitrate(bps) })
}

func (s sink) OnAudioLevel(levelDB float64) {
	s.post(func() {
		s.c.bus.Publish(events.AudioLevelEvent{LevelDB: levelDB, Timestamp: timestamp()})
	})
}

// recordListener follows a recording of the endpoint of generation gen.
type recordListener sink

func (l recordListener) OnRecordStarted(path string) {
	sink(l).post(func() {
		l.c.recordings = append(l.c.recordings, path)
		l.c.logger.Info("Recording started", "path", path)
	})
}

func (l recordListener) OnRecordSegment(path string) {
	sink(l).post(func() {
		l.c.recordings = append(l.c.recordings, path)
		l.c.logger.Info("Recording continues in new segment", "path", path)
	})
}

func (l recordListener) OnRecordStopped(paths []string, err error) {
	sink(l).post(func() { l.c.onRecordStopped(paths, err) })
}

func (c *Controller) onConnectionStarted() {
	c.logger.Info("Connecting", "url", c.settings.ConnectionSettings().Redacted())
}

func (c *Controller) onConnectionSuccess() {
	c.cancelConnectTimeout()
	c.retry.attempt = 0
	c.logger.Info("Stream connected", "protocol", c.settings.ConnectionSettings().Protocol.String())

	// Encoder restarts reconnect the stream; keep one adapter per stream.
	if c.settings.Video.Adaptive && c.adapter == nil {
		c.adapter = bitrate.NewAdapter(c.settings.VideoParams().BitrateBps, c.settings.MaxAdaptiveBps())
		c.targetBps = c.adapter.State().CurrentBps
		metrics.SetTargetBitrate(c.targetBps)
	}
}

func (c *Controller) onNewBitrate(bps int64) {
	if c.ep == nil {
		return
	}
	congested := c.ep.HasCongestion()
	if c.adapter != nil {
		if next, changed := c.adapter.Adapt(bps, congested); changed {
			direction := "up"
			if next < c.targetBps {
				direction = "down"
			}
			c.ep.SetVideoBitrateOnFly(next)
			c.targetBps = next
			metrics.SetTargetBitrate(next)
			metrics.IncBitrateAdjustment(direction)
			c.logger.Debug("Adjusted bitrate", "direction", direction, "target_bps", next, "measured_bps", bps)
		}
	}
	c.bus.Publish(events.NewBitrateEvent{
		MeasuredBps: bps,
		TargetBps:   c.targetBps,
		Congested:   congested,
		Timestamp:   timestamp(),
	})
}

func (c *Controller) onDisconnect() {
	c.logger.Info("Stream disconnected")
}

func (c *Controller) onAuthSuccess() {
	c.logger.Info("Authenticated")
}

func (c *Controller) onAuthError() {
	err := newError(CodeAuthError, "server rejected the credentials", nil)
	c.forceStop(err)
	c.bus.Publish(events.AuthErrorEvent{
		Protocol:  c.settings.ConnectionSettings().Protocol.String(),
		Message:   err.Display(),
		Timestamp: timestamp(),
	})
	c.fail(err)
}

func (c *Controller) onConnectionFailed(reason string) {
	err := newError(CodeConnectionFailed, reason, nil)
	c.forceStop(err)

	willRetry, attempt, delay := c.scheduleRetry()
	ev := events.ConnectionFailedEvent{
		Protocol:  c.settings.ConnectionSettings().Protocol.String(),
		Reason:    reason,
		WillRetry: willRetry,
		Attempt:   attempt,
		Timestamp: timestamp(),
	}
	if willRetry {
		ev.RetryIn = delay.String()
	}
	c.bus.Publish(ev)
	c.fail(err)
}

func (c *Controller) onRecordStopped(paths []string, err error) {
	c.logger.Info("Recording stopped", "files", len(paths), "error", err)
	if err != nil {
		c.fail(newError(classify(err, CodeRecordingIOError), "recording stopped", err))
		return
	}
	c.refresh()
}

// forceStop ends the stream after a transport failure. A stream that never
// started again since its last stop is not reported twice.
func (c *Controller) forceStop(err *SessionError) {
	if c.ep == nil {
		return
	}
	live := c.streamLive
	c.endStream()
	if live {
		c.publishStopped(err.Reason(), err.Display(), string(ActionStartStream))
	}
}
