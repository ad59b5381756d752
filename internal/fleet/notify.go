// ABOUTME: Outbound notification types pushed to the broadcast sink.
// ABOUTME: The sink is fire-and-forget; the supervisor never blocks on delivery.

package fleet

import "time"

// NotificationKind discriminates the Notification payload.
type NotificationKind int

const (
	// KindStatus carries a full StatusRecord snapshot after any change.
	KindStatus NotificationKind = iota
	// KindChat carries a chat line received from another player.
	KindChat
	// KindLog carries a server system message or supervisor log line.
	KindLog
)

// String returns the lowercase kind name.
func (k NotificationKind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindChat:
		return "chat"
	case KindLog:
		return "log"
	default:
		return "unknown"
	}
}

// ChatMessage is an inbound chat line.
type ChatMessage struct {
	Sender string
	Text   string
}

// Notification is one fleet event tagged with its bot id and timestamp.
// Exactly one of Status, Chat, Line is set, per Kind.
type Notification struct {
	BotID string
	Time  time.Time
	Kind  NotificationKind

	Status *StatusRecord
	Chat   *ChatMessage
	Line   string
}

// Sink receives notifications for live viewers. Implementations must not
// block: Publish is called from supervisor goroutines on every state
// change.
type Sink interface {
	Publish(Notification)
}

// nopSink is used when the caller does not wire a sink.
type nopSink struct{}

func (nopSink) Publish(Notification) {}
