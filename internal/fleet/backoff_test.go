// ABOUTME: Tests for the exponential reconnect backoff policy.
// ABOUTME: Pure function, so every case is exact arithmetic with no timers.

package fleet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayFirstAttemptIsBase(t *testing.T) {
	p := DefaultReconnectPolicy()
	assert.Equal(t, DefaultReconnectBase, p.Delay(1))
}

func TestDelayDefaultSequence(t *testing.T) {
	p := DefaultReconnectPolicy()

	assert.Equal(t, 5*time.Second, p.Delay(1))
	assert.Equal(t, 7500*time.Millisecond, p.Delay(2))
	assert.Equal(t, 11250*time.Millisecond, p.Delay(3))
}

func TestDelayNonDecreasing(t *testing.T) {
	p := DefaultReconnectPolicy()

	prev := time.Duration(0)
	for attempt := 1; attempt <= 30; attempt++ {
		d := p.Delay(attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		prev = d
	}
}

func TestDelayCapped(t *testing.T) {
	p := DefaultReconnectPolicy()

	// 5s * 1.5^10 is already past the 300s cap.
	assert.Equal(t, DefaultReconnectMax, p.Delay(11))
	assert.Equal(t, DefaultReconnectMax, p.Delay(100))
	// Large attempt numbers overflow the float math into +Inf; still capped.
	assert.Equal(t, DefaultReconnectMax, p.Delay(1<<20))
}

func TestDelayClampsLowAttempts(t *testing.T) {
	p := DefaultReconnectPolicy()

	assert.Equal(t, p.Delay(1), p.Delay(0))
	assert.Equal(t, p.Delay(1), p.Delay(-5))
}

func TestDelayCustomPolicy(t *testing.T) {
	p := ReconnectPolicy{Base: time.Second, Growth: 2, Max: 10 * time.Second}

	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
	assert.Equal(t, 8*time.Second, p.Delay(4))
	assert.Equal(t, 10*time.Second, p.Delay(5))
}
