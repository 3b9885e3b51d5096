package session

import (
	"fmt"
	"time"
)

// maxRetryDelay caps the reconnect backoff.
const maxRetryDelay = time.Minute

type retryState struct {
	attempt int
	token   uint64
	timer   *time.Timer
}

type timeoutState struct {
	token uint64
	timer *time.Timer
}

// backoff returns base doubled for every attempt after the first.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	d := base
	for i := 1; i < attempt && d < maxRetryDelay; i++ {
		d *= 2
	}
	return min(d, maxRetryDelay)
}

// scheduleRetry arms the next reconnect when the policy allows one.
func (c *Controller) scheduleRetry() (bool, int, time.Duration) {
	cfg := c.settings.Reconnect
	if !cfg.Enabled || c.userStopped || c.ep == nil || c.retry.attempt >= cfg.MaxAttempts {
		return false, c.retry.attempt, 0
	}
	c.retry.attempt++
	delay := backoff(cfg.Delay.Duration, c.retry.attempt)
	c.retry.token++
	token := c.retry.token
	c.retry.timer = time.AfterFunc(delay, func() {
		c.mail.post(func() { c.retryStream(token) })
	})
	c.logger.Info("Reconnect scheduled", "attempt", c.retry.attempt, "max_attempts", cfg.MaxAttempts, "delay", delay)
	return true, c.retry.attempt, delay
}

func (c *Controller) cancelRetry() {
	if c.retry.timer != nil {
		c.retry.timer.Stop()
		c.retry.timer = nil
	}
	c.retry.token++
	c.retry.attempt = 0
}

func (c *Controller) retryStream(token uint64) {
	if token != c.retry.token || c.userStopped || c.ep == nil || c.ep.IsStreaming() {
		return
	}
	c.retry.timer = nil
	url := c.settings.StreamURL()
	if url == "" {
		return
	}
	c.logger.Info("Reconnecting", "attempt", c.retry.attempt)
	if err := c.beginStream(url); err != nil {
		c.onConnectionFailed(err.Error())
	}
}

// armConnectTimeout fails the stream when it does not connect within the
// network timeout.
func (c *Controller) armConnectTimeout() {
	c.cancelConnectTimeout()
	timeout := c.settings.Reconnect.NetworkTimeout.Duration
	if timeout <= 0 {
		return
	}
	token := c.connect.token
	c.connect.timer = time.AfterFunc(timeout, func() {
		c.mail.post(func() {
			if token != c.connect.token || c.ep == nil || !c.ep.IsStreaming() {
				return
			}
			c.onConnectionFailed(fmt.Sprintf("no connection after %s", timeout))
		})
	})
}

func (c *Controller) cancelConnectTimeout() {
	if c.connect.timer != nil {
		c.connect.timer.Stop()
		c.connect.timer = nil
	}
	c.connect.token++
}
