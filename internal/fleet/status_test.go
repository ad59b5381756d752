// ABOUTME: Tests for the per-bot status tracker.
// ABOUTME: Covers state transitions, telemetry merging, and sink publication.

package fleet

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink records every published notification for assertions.
type captureSink struct {
	mu    sync.Mutex
	notes []Notification
}

func (c *captureSink) Publish(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
}

func (c *captureSink) all() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.notes))
	copy(out, c.notes)
	return out
}

func (c *captureSink) count(kind NotificationKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, note := range c.notes {
		if note.Kind == kind {
			n++
		}
	}
	return n
}

func TestStatusTrackerInitial(t *testing.T) {
	tr := newStatusTracker("alpha", nil)

	rec := tr.snapshot()
	assert.Equal(t, StateOffline, rec.State)
	assert.Nil(t, rec.ConnectedSince)
	assert.Empty(t, rec.LastError)
	assert.Empty(t, rec.Telemetry)
}

func TestStatusTrackerTransitions(t *testing.T) {
	tr := newStatusTracker("alpha", nil)

	tr.setConnecting()
	assert.Equal(t, StateConnecting, tr.snapshot().State)

	now := time.Now()
	tr.setOnline(now)
	rec := tr.snapshot()
	assert.Equal(t, StateOnline, rec.State)
	require.NotNil(t, rec.ConnectedSince)
	assert.Equal(t, now, *rec.ConnectedSince)

	tr.setDown("kicked: afk")
	rec = tr.snapshot()
	assert.Equal(t, StateError, rec.State)
	assert.Equal(t, "kicked: afk", rec.LastError)
	assert.Nil(t, rec.ConnectedSince)
}

func TestStatusTrackerDownWithoutReason(t *testing.T) {
	tr := newStatusTracker("alpha", nil)

	tr.setOnline(time.Now())
	tr.setDown("")

	rec := tr.snapshot()
	assert.Equal(t, StateOffline, rec.State)
	assert.Empty(t, rec.LastError)
}

func TestStatusTrackerOnlineClearsError(t *testing.T) {
	tr := newStatusTracker("alpha", nil)

	tr.setDown("boom")
	tr.setOnline(time.Now())

	assert.Empty(t, tr.snapshot().LastError)
}

func TestStatusTrackerOfflinePreservesError(t *testing.T) {
	tr := newStatusTracker("alpha", nil)

	tr.setDown("boom")
	tr.setOffline()

	rec := tr.snapshot()
	assert.Equal(t, StateOffline, rec.State)
	assert.Equal(t, "boom", rec.LastError)
}

func TestStatusTrackerTelemetryMerge(t *testing.T) {
	tr := newStatusTracker("alpha", nil)

	tr.mergeTelemetry(map[string]any{"x": 1.0, "y": 64.0, "health": 20.0})
	tr.mergeTelemetry(map[string]any{"x": 5.0})

	rec := tr.snapshot()
	assert.Equal(t, 5.0, rec.Telemetry["x"])
	assert.Equal(t, 64.0, rec.Telemetry["y"])
	assert.Equal(t, 20.0, rec.Telemetry["health"])
}

func TestStatusTrackerSnapshotIsCopy(t *testing.T) {
	tr := newStatusTracker("alpha", nil)
	tr.mergeTelemetry(map[string]any{"x": 1.0})

	rec := tr.snapshot()
	rec.Telemetry["x"] = 99.0
	rec.LastError = "tampered"

	fresh := tr.snapshot()
	assert.Equal(t, 1.0, fresh.Telemetry["x"])
	assert.Empty(t, fresh.LastError)
}

func TestStatusTrackerPublishes(t *testing.T) {
	sink := &captureSink{}
	tr := newStatusTracker("alpha", sink.Publish)

	tr.setConnecting()
	tr.setOnline(time.Now())
	tr.setDown("gone")

	notes := sink.all()
	require.Len(t, notes, 3)
	for _, n := range notes {
		assert.Equal(t, "alpha", n.BotID)
		assert.Equal(t, KindStatus, n.Kind)
		require.NotNil(t, n.Status)
	}
	assert.Equal(t, StateConnecting, notes[0].Status.State)
	assert.Equal(t, StateOnline, notes[1].Status.State)
	assert.Equal(t, StateError, notes[2].Status.State)
}

func TestStatusTrackerEmptyTelemetryNoPublish(t *testing.T) {
	sink := &captureSink{}
	tr := newStatusTracker("alpha", sink.Publish)

	tr.mergeTelemetry(nil)
	tr.mergeTelemetry(map[string]any{})

	assert.Empty(t, sink.all())
}
