// ABOUTME: Pure exponential backoff policy for reconnect scheduling.
// ABOUTME: Deterministic so retry timing is testable without timers.

package fleet

import (
	"math"
	"time"
)

// Backoff defaults. A first retry after 5s growing by 1.5x per attempt,
// capped at 5 minutes.
const (
	DefaultReconnectBase   = 5 * time.Second
	DefaultReconnectGrowth = 1.5
	DefaultReconnectMax    = 300 * time.Second
)

// ReconnectPolicy computes the delay before each reconnect attempt. The
// zero value is not usable; construct with DefaultReconnectPolicy or fill
// all fields.
type ReconnectPolicy struct {
	Base   time.Duration
	Growth float64
	Max    time.Duration
}

// DefaultReconnectPolicy returns the standard 5s/1.5x/300s policy.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		Base:   DefaultReconnectBase,
		Growth: DefaultReconnectGrowth,
		Max:    DefaultReconnectMax,
	}
}

// Delay returns the backoff before retry number attempt. Attempts are
// 1-based: Delay(1) == Base, and the result never exceeds Max.
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.Base) * math.Pow(p.Growth, float64(attempt-1))
	if d >= float64(p.Max) || math.IsInf(d, 1) || math.IsNaN(d) {
		return p.Max
	}
	return time.Duration(d)
}
