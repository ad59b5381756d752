// ABOUTME: Per-bot aggregated status record with shallow-merge telemetry updates.
// ABOUTME: Notifies the outbound sink whenever the record changes.

package fleet

import (
	"maps"
	"sync"
	"time"
)

// State is the connection lifecycle state of a bot. Exactly one value is
// current per bot at any time.
type State int

const (
	StateOffline State = iota
	StateConnecting
	StateOnline
	StateError
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateOffline:
		return "offline"
	case StateConnecting:
		return "connecting"
	case StateOnline:
		return "online"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// StatusRecord is a snapshot of a bot's aggregated status.
type StatusRecord struct {
	State          State
	ConnectedSince *time.Time
	LastError      string
	Telemetry      map[string]any
}

// clone returns a deep-enough copy so callers can hold snapshots safely.
func (r StatusRecord) clone() StatusRecord {
	out := r
	if r.ConnectedSince != nil {
		t := *r.ConnectedSince
		out.ConnectedSince = &t
	}
	if r.Telemetry != nil {
		out.Telemetry = maps.Clone(r.Telemetry)
	}
	return out
}

// statusTracker owns one bot's StatusRecord. Updates are merged, never
// replaced wholesale: telemetry keys absent from an update keep their prior
// values. Every mutation publishes a status notification.
//
// The tracker has its own lock so status reads never go through the bot's
// mailbox.
type statusTracker struct {
	botID  string
	notify func(Notification)

	mu  sync.Mutex
	rec StatusRecord
}

func newStatusTracker(botID string, notify func(Notification)) *statusTracker {
	return &statusTracker{
		botID:  botID,
		notify: notify,
		rec: StatusRecord{
			State:     StateOffline,
			Telemetry: make(map[string]any),
		},
	}
}


// setConnecting transitions to Connecting without touching lastError.
func (t *statusTracker) setConnecting() {
	t.mu.Lock()
	t.rec.State = StateConnecting
	t.rec.ConnectedSince = nil
	snap := t.rec.clone()
	t.mu.Unlock()
	t.publish(snap)
}

// setOnline transitions to Online, stamps connectedSince, clears lastError.
func (t *statusTracker) setOnline(at time.Time) {
	t.mu.Lock()
	t.rec.State = StateOnline
	t.rec.ConnectedSince = &at
	t.rec.LastError = ""
	snap := t.rec.clone()
	t.mu.Unlock()
	t.publish(snap)
}

// setDown records a session end. With a reason the bot rests in Error,
// otherwise in Offline; either way connectedSince is cleared.
func (t *statusTracker) setDown(reason string) {
	t.mu.Lock()
	if reason != "" {
		t.rec.State = StateError
		t.rec.LastError = reason
	} else {
		t.rec.State = StateOffline
	}
	t.rec.ConnectedSince = nil
	snap := t.rec.clone()
	t.mu.Unlock()
	t.publish(snap)
}

// setOffline forces Offline, used for manual stop. lastError is preserved
// for the operator to inspect.
func (t *statusTracker) setOffline() {
	t.mu.Lock()
	t.rec.State = StateOffline
	t.rec.ConnectedSince = nil
	snap := t.rec.clone()
	t.mu.Unlock()
	t.publish(snap)
}

// mergeTelemetry shallow-patches the telemetry map. Keys not present in
// update retain their prior values.
func (t *statusTracker) mergeTelemetry(update map[string]any) {
	if len(update) == 0 {
		return
	}
	t.mu.Lock()
	maps.Copy(t.rec.Telemetry, update)
	snap := t.rec.clone()
	t.mu.Unlock()
	t.publish(snap)
}

// snapshot returns a copy of the current record.
func (t *statusTracker) snapshot() StatusRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rec.clone()
}

func (t *statusTracker) publish(snap StatusRecord) {
	if t.notify == nil {
		return
	}
	t.notify(Notification{
		BotID:  t.botID,
		Time:   time.Now(),
		Kind:   KindStatus,
		Status: &snap,
	})
}
