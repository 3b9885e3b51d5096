// Package session runs the live session: one active endpoint, its preview,
// stream and recording outputs, and the state derived from them.
//
// The Controller is an actor. Control calls are sent to its loop and wait
// for the reply; endpoint callbacks are queued in a mailbox that the loop
// drains before each call, so encoder goroutines never block on the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/livecast/internal/bitrate"
	"github.com/smazurov/livecast/internal/camera"
	"github.com/smazurov/livecast/internal/capture"
	"github.com/smazurov/livecast/internal/devices"
	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/events"
	"github.com/smazurov/livecast/internal/logging"
	"github.com/smazurov/livecast/internal/metrics"
	"github.com/smazurov/livecast/internal/protocol"
	"github.com/smazurov/livecast/internal/settings"
)

// EndpointFactory builds the endpoint for a protocol. endpoint.Factory
// implements it.
type EndpointFactory interface {
	New(settings protocol.ConnectionSettings, sink endpoint.ConnectionEventSink) (endpoint.Endpoint, error)
}

// PhotoCapturer grabs one still. capture.Capturer implements it.
type PhotoCapturer interface {
	Capture(ctx context.Context, req capture.Request) error
}

// Options configures a Controller.
type Options struct {
	Settings settings.Settings
	Factory  EndpointFactory
	Bus      *events.Bus
	Torch    camera.TorchFallback
	Photos   PhotoCapturer
	// OnExit is called after the exit-app control action tore the session
	// down.
	OnExit func()
}

type op struct {
	fn   func() error
	done chan error
}

// Controller owns the active endpoint and every state transition.
type Controller struct {
	id      string
	logger  *slog.Logger
	bus     *events.Bus
	factory EndpointFactory
	photos  PhotoCapturer
	onExit  func()
	camera  *camera.Controller

	ops     chan op
	mail    *mailbox
	stopped chan struct{}

	// Everything below is owned by the loop.
	settings    settings.Settings
	ep          endpoint.Endpoint
	epGen       uint64
	prepared    bool
	surface     endpoint.Surface
	state       State
	lastErr     *SessionError
	adapter     *bitrate.Adapter
	targetBps   int64
	muted       bool
	background  bool
	userStopped bool
	streamLive  bool // a started stream not yet reported stopped
	retry       retryState
	connect     timeoutState
	recordings  []string
}

// New creates a controller. Run must be running for any call to return.
func New(opts Options) *Controller {
	c := &Controller{
		id:       uuid.NewString(),
		logger:   logging.GetLogger("session"),
		bus:      opts.Bus,
		factory:  opts.Factory,
		photos:   opts.Photos,
		onExit:   opts.OnExit,
		ops:      make(chan op),
		mail:     newMailbox(),
		stopped:  make(chan struct{}),
		settings: opts.Settings,
	}
	c.camera = camera.New(func() endpoint.Endpoint { return c.ep }, opts.Torch)
	metrics.SetSessionState(Idle.String(), stateNames)
	return c
}

// ID returns the session identifier carried by state events.
func (c *Controller) ID() string {
	return c.id
}

// Done is closed once Run has returned and the endpoint is released.
func (c *Controller) Done() <-chan struct{} {
	return c.stopped
}

// Run processes calls and callbacks until ctx is done, then releases the
// endpoint.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.stopped)
	c.logger.Info("Session controller started", "session_id", c.id)

	for {
		select {
		case <-ctx.Done():
			c.drain()
			c.shutdown()
			c.logger.Info("Session controller stopped", "session_id", c.id)
			return
		case <-c.mail.ready:
			c.drain()
		case o := <-c.ops:
			c.drain()
			o.done <- o.fn()
		}
	}
}

func (c *Controller) drain() {
	for _, fn := range c.mail.take() {
		fn()
	}
}

// do runs fn on the loop and returns its result.
func (c *Controller) do(fn func() error) error {
	o := op{fn: fn, done: make(chan error, 1)}
	select {
	case c.ops <- o:
	case <-c.stopped:
		return ErrStopped
	}
	return <-o.done
}

func query[T any](c *Controller, fn func() T) (T, error) {
	var v T
	err := c.do(func() error {
		v = fn()
		return nil
	})
	return v, err
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// derive computes the state from the endpoint's flags.
func (c *Controller) derive() State {
	if c.ep == nil {
		return Idle
	}
	streaming, recording := c.ep.IsStreaming(), c.ep.IsRecording()
	switch {
	case streaming && recording:
		return StreamingAndRecording
	case streaming:
		return Streaming
	case recording:
		return Recording
	case c.ep.IsPreviewing():
		return PreviewOnly
	default:
		return Idle
	}
}

func (c *Controller) refresh() {
	c.setState(c.derive(), "")
}

func (c *Controller) setState(next State, reason string) {
	if next == c.state {
		return
	}
	prev := c.state
	c.state = next
	metrics.SetSessionState(next.String(), stateNames)
	c.logger.Info("Session state changed", "from", prev.String(), "to", next.String(), "reason", reason)
	c.bus.Publish(events.SessionStateChangedEvent{
		SessionID:     c.id,
		PreviousState: prev.String(),
		State:         next.String(),
		Reason:        reason,
		Timestamp:     timestamp(),
	})
}

// fail passes through Error and settles on the derived state.
func (c *Controller) fail(err *SessionError) {
	c.lastErr = err
	metrics.IncSessionError(string(err.Code))
	c.logger.Warn("Session error", "code", err.Code, "message", err.Message, "cause", err.Cause)
	c.setState(Error, string(err.Code))
	c.refresh()
}

// ensureEndpoint creates the endpoint for the configured protocol.
func (c *Controller) ensureEndpoint() error {
	if c.ep != nil {
		return nil
	}
	conn := c.settings.ConnectionSettings()
	c.epGen++
	ep, err := c.factory.New(conn, sink{c: c, gen: c.epGen})
	if err != nil {
		return newError(CodeInvalidState, fmt.Sprintf("cannot create %s endpoint", conn.Protocol), err)
	}
	ep.SetAudioEnabled(!c.muted)
	c.ep = ep
	c.prepared = false
	c.camera.Reset()
	c.logger.Debug("Endpoint created", "protocol", conn.Protocol.String())
	return nil
}

// releaseEndpoint stops every output and drops the endpoint. Callbacks it
// still delivers are ignored.
func (c *Controller) releaseEndpoint() {
	if c.ep == nil {
		return
	}
	wasPreviewing := c.ep.IsPreviewing()
	c.ep.Release()
	c.ep = nil
	c.epGen++
	c.prepared = false
	c.streamLive = false
	c.dropAdapter()
	c.cancelRetry()
	c.cancelConnectTimeout()
	c.camera.Reset()
	if wasPreviewing {
		c.publishPreview(false)
	}
	c.logger.Debug("Endpoint released")
}

// prepare applies the video and audio parameters once per endpoint or
// settings change.
func (c *Controller) prepare() error {
	if c.prepared {
		return nil
	}
	if err := c.ep.PrepareVideo(c.settings.VideoParams()); err != nil {
		return newError(CodePrepareFailed, "video encoder rejected the parameters", err)
	}
	if err := c.ep.PrepareAudio(c.settings.AudioParams()); err != nil {
		msg := "audio encoder rejected the parameters"
		if errors.Is(err, endpoint.ErrAudioDeviceBusy) {
			msg = "microphone is in use by another application"
		}
		return newError(CodePrepareFailed, msg, err)
	}
	c.prepared = true
	return nil
}

func (c *Controller) facing() devices.Facing {
	if c.settings.Video.Facing == "" {
		return devices.FacingBack
	}
	return devices.Facing(c.settings.Video.Facing)
}

func (c *Controller) publishPreview(running bool) {
	c.bus.Publish(events.PreviewStatusEvent{
		Running:   running,
		Target:    c.surface.Target,
		Timestamp: timestamp(),
	})
}

func (c *Controller) dropAdapter() {
	if c.adapter == nil && c.targetBps == 0 {
		return
	}
	c.adapter = nil
	c.targetBps = 0
	metrics.SetTargetBitrate(0)
}

// shutdown stops everything for an exit.
func (c *Controller) shutdown() {
	c.userStopped = true
	c.cancelRetry()
	if c.ep != nil && c.ep.IsStreaming() {
		c.endStream()
		c.publishStopped(Reason{}, "Stream stopped, exiting", "")
	}
	c.releaseEndpoint()
	c.refresh()
}
