// ABOUTME: In-memory fan-out broadcaster for fleet notifications.
// ABOUTME: Implements the fire-and-forget sink; slow subscribers drop events, never block the fleet.

package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/botherd/botherd/internal/fleet"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64

	// FirehoseKey subscribes to notifications from every bot.
	FirehoseKey = "*"
)

// Broadcaster provides in-memory pub/sub for fleet notifications.
// Subscribers register for one bot id (or FirehoseKey for all bots) and
// receive status changes, chat, and log lines as they happen. It satisfies
// fleet.Sink.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan fleet.Notification // key -> subID -> ch
	closed      bool
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]map[string]chan fleet.Notification),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber for the given bot id, or for every bot
// when key is FirehoseKey. Returns the event channel and a subscription ID
// for later unsubscription. The subscription is automatically cleaned up
// when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, key string) (<-chan fleet.Notification, string) {
	subID := uuid.New().String()
	ch := make(chan fleet.Notification, subscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	if _, ok := b.subscribers[key]; !ok {
		b.subscribers[key] = make(map[string]chan fleet.Notification)
	}
	b.subscribers[key][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "key", key, "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(key, subID)
	}()

	return ch, subID
}

// Publish fans a notification out to the bot's subscribers and to the
// firehose. Non-blocking: events are dropped for subscribers whose
// channels are full.
func (b *Broadcaster) Publish(n fleet.Notification) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	// Copy target channels under the read lock to avoid holding it
	// during sends.
	var targets []chan fleet.Notification
	for _, key := range []string{n.BotID, FirehoseKey} {
		for _, ch := range b.subscribers[key] {
			targets = append(targets, ch)
		}
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- n:
		default:
			b.logger.Debug("dropped event for slow subscriber",
				"bot", n.BotID, "kind", n.Kind.String())
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(key, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[key]
	if !ok {
		return
	}
	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)
	if len(subs) == 0 {
		delete(b.subscribers, key)
	}

	b.logger.Debug("subscriber removed", "key", key, "sub_id", subID)
}

// Close shuts down the broadcaster and closes all subscriber channels.
// Publishes after Close are discarded.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for key, subs := range b.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(b.subscribers, key)
	}

	b.logger.Debug("broadcaster closed")
}
