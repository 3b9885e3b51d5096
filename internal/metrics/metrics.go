// Package metrics provides Prometheus metrics for the encoder and the
// streaming session.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "livecast"

var (
	encoderFPS = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "encoder",
		Name:      "fps",
		Help:      "Current encoding FPS",
	})

	encoderSpeed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "encoder",
		Name:      "processing_speed",
		Help:      "Encoder processing speed multiplier",
	})

	encoderDroppedFrames = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "encoder",
		Name:      "dropped_frames",
		Help:      "Frames dropped since the encoder process started",
	})

	encoderMeasuredBitrate = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "encoder",
		Name:      "measured_bitrate_bps",
		Help:      "Measured output bitrate",
	})

	encoderTargetBitrate = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "encoder",
		Name:      "target_bitrate_bps",
		Help:      "Configured video bitrate",
	})

	encoderRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "encoder",
		Name:      "restarts_total",
		Help:      "Encoder process restarts caused by output changes",
	})

	sessionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "state",
		Help:      "1 for the current session state, 0 otherwise",
	}, []string{"state"})

	sessionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "errors_total",
		Help:      "Session errors by code",
	}, []string{"code"})

	bitrateAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bitrate",
		Name:      "adjustments_total",
		Help:      "Adaptive bitrate adjustments by direction",
	}, []string{"direction"})

	// Local cache for the API snapshot.
	cache   EncoderSnapshot
	cacheMu sync.RWMutex
)

// EncoderSnapshot holds the latest encoder readings.
type EncoderSnapshot struct {
	FPS             float64 `json:"fps"`
	Speed           float64 `json:"speed"`
	DroppedFrames   int64   `json:"dropped_frames"`
	MeasuredBitrate int64   `json:"measured_bitrate_bps"`
	TargetBitrate   int64   `json:"target_bitrate_bps"`
	Restarts        int     `json:"restarts"`
	Congested       bool    `json:"congested"`
}

// ObserveEncoder records one progress reading.
func ObserveEncoder(fps, speed float64, dropped, measuredBps int64, congested bool) {
	encoderFPS.Set(fps)
	encoderSpeed.Set(speed)
	encoderDroppedFrames.Set(float64(dropped))
	encoderMeasuredBitrate.Set(float64(measuredBps))

	cacheMu.Lock()
	cache.FPS = fps
	cache.Speed = speed
	cache.DroppedFrames = dropped
	cache.MeasuredBitrate = measuredBps
	cache.Congested = congested
	cacheMu.Unlock()
}

// SetTargetBitrate records the bitrate the encoder was configured with.
func SetTargetBitrate(bps int64) {
	encoderTargetBitrate.Set(float64(bps))
	cacheMu.Lock()
	cache.TargetBitrate = bps
	cacheMu.Unlock()
}

// IncEncoderRestarts counts one encoder restart.
func IncEncoderRestarts() {
	encoderRestarts.Inc()
	cacheMu.Lock()
	cache.Restarts++
	cacheMu.Unlock()
}

// ResetEncoder zeroes the encoder gauges once the process is gone.
func ResetEncoder() {
	ObserveEncoder(0, 0, 0, 0, false)
}

// Encoder returns the latest encoder readings.
func Encoder() EncoderSnapshot {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	return cache
}

// SetSessionState marks state as current among states.
func SetSessionState(state string, states []string) {
	for _, s := range states {
		v := 0.0
		if s == state {
			v = 1
		}
		sessionState.WithLabelValues(s).Set(v)
	}
}

// IncSessionError counts one session error.
func IncSessionError(code string) {
	sessionErrors.WithLabelValues(code).Inc()
}

// IncBitrateAdjustment counts one adaptive bitrate step ("down" or "up").
func IncBitrateAdjustment(direction string) {
	bitrateAdjustments.WithLabelValues(direction).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
