// Package bitrate adapts the video bitrate to network conditions.
package bitrate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinBps is the floor a congested stream is never reduced below.
const DefaultMinBps int64 = 100 * 1000

const (
	decreaseFactor = 0.8
	// increaseDivisor sets the recovery step to max/20.
	increaseDivisor = 20
)

// State is the adapter's view of the stream.
type State struct {
	CurrentBps int64 `json:"current_bps"`
	MaxBps     int64 `json:"max_bps"`
	MinBps     int64 `json:"min_bps"`
}

// Adapter computes the next target bitrate from congestion and the measured
// bitrate. Adjustments are rate limited; it is safe for concurrent use.
type Adapter struct {
	mu      sync.Mutex
	state   State
	limiter *rate.Limiter
	now     func() time.Time
}

// NewAdapter creates an adapter at startBps that may climb to maxBps. A
// non-positive startBps starts at maxBps.
func NewAdapter(startBps, maxBps int64) *Adapter {
	return NewAdapterWithInterval(startBps, maxBps, time.Second)
}

// NewAdapterWithInterval creates an adapter allowing one adjustment per
// interval.
func NewAdapterWithInterval(startBps, maxBps int64, interval time.Duration) *Adapter {
	minBps := DefaultMinBps
	if maxBps < minBps {
		minBps = maxBps
	}
	if startBps <= 0 {
		startBps = maxBps
	}
	return &Adapter{
		state:   State{CurrentBps: min(max(startBps, minBps), maxBps), MaxBps: maxBps, MinBps: minBps},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		now:     time.Now,
	}
}

// State returns the current adapter state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Adapt takes a measured bitrate report. It returns the new target and true
// when the target changed.
//
// Under congestion the target drops to 80% of the lower of the current and
// measured rates, floored at MinBps. Without congestion it climbs by max/20
// up to MaxBps.
func (a *Adapter) Adapt(measuredBps int64, congested bool) (int64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.state.CurrentBps
	switch {
	case congested:
		base := a.state.CurrentBps
		if measuredBps > 0 && measuredBps < base {
			base = measuredBps
		}
		next = max(int64(float64(base)*decreaseFactor), a.state.MinBps)
	case a.state.CurrentBps < a.state.MaxBps:
		next = min(a.state.CurrentBps+a.state.MaxBps/increaseDivisor, a.state.MaxBps)
	}

	if next == a.state.CurrentBps {
		return next, false
	}
	if !a.limiter.AllowN(a.now(), 1) {
		return a.state.CurrentBps, false
	}
	a.state.CurrentBps = next
	return next, true
}
