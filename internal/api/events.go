package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/livecast/internal/events"
	"github.com/smazurov/livecast/internal/metrics"
	"github.com/smazurov/livecast/internal/session"
)

// metricsInterval is how often the metrics stream pushes a snapshot.
const metricsInterval = 2 * time.Second

// registerSSERoutes registers the session event stream and the encoder
// metrics stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time session transitions, stream notifications, camera changes and device hotplug",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"session-status":    session.Status{},
		"session-state":     events.SessionStateChangedEvent{},
		"stream-stopped":    events.StreamStoppedEvent{},
		"audio-level":       events.AudioLevelEvent{},
		"preview-status":    events.PreviewStatusEvent{},
		"new-bitrate":       events.NewBitrateEvent{},
		"took-picture":      events.TookPictureEvent{},
		"auth-error":        events.AuthErrorEvent{},
		"connection-failed": events.ConnectionFailedEvent{},
		"camera-changed":    events.CameraChangedEvent{},
		"device-discovery":  events.DeviceDiscoveryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribe := events.SubscribeAll(s.eventBus, eventCh)
		defer unsubscribe()

		// Clients render the current state before any transition arrives.
		status, err := s.session.Status()
		if err != nil {
			s.logger.Debug("Session unavailable for SSE client", "error", err)
			return
		}
		if err := send.Data(status); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "metrics-stream",
		Method:      http.MethodGet,
		Path:        "/api/metrics/stream",
		Summary:     "Encoder Metrics Stream",
		Description: "Periodic encoder readings: fps, speed, dropped frames and bitrate",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"encoder-metrics": metrics.EncoderSnapshot{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		if err := send.Data(metrics.Encoder()); err != nil {
			return
		}

		ticker := time.NewTicker(metricsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := send.Data(metrics.Encoder()); err != nil {
					return
				}
			}
		}
	})
}
