// ABOUTME: Contract for the external game-protocol client used by the fleet supervisor.
// ABOUTME: Defines the connector, the live session handle, and the session event types.

package mc

import (
	"context"
	"fmt"
)

// Config carries the connection parameters for a single session.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string // empty for offline-mode servers
	Version  string // protocol version, e.g. "1.20.4"
}

// Addr returns the host:port string for logging.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Connector establishes sessions against a game server. Implementations wrap
// a real protocol library; the in-process Simulator stands in during tests
// and demos.
type Connector interface {
	// Connect dials the server and completes the protocol handshake. The
	// returned handle is live but the player has not necessarily spawned
	// yet; world events, including SpawnedEvent, arrive on Events().
	Connect(ctx context.Context, cfg Config) (Handle, error)
}

// Handle is a live session. Implementations must be safe for concurrent use:
// the supervisor sends chat from more than one goroutine.
type Handle interface {
	SendChat(text string) error
	LookAt(yaw, pitch float64) error
	SetControlState(control string, on bool) error
	Disconnect(reason string) error

	// Events returns the session's event stream. The channel is closed
	// when the session ends, after a final KickedEvent, ErroredEvent, or
	// EndedEvent has been delivered.
	Events() <-chan Event
}

// Event is a session event delivered on Handle.Events().
type Event interface {
	isEvent()
}

// SpawnedEvent fires once the player has entered the world and the session
// is fully usable.
type SpawnedEvent struct{}

// ChatEvent is a chat line from another player.
type ChatEvent struct {
	Sender string
	Text   string
}

// SystemMessageEvent is a server-originated message (MOTD, announcements).
type SystemMessageEvent struct {
	Text string
}

// KickedEvent means the server terminated the session with a reason.
type KickedEvent struct {
	Reason string
}

// ErroredEvent means the session failed at the transport or protocol level.
type ErroredEvent struct {
	Err error
}

// EndedEvent means the session closed without a server kick. Reason may be
// empty for a clean close.
type EndedEvent struct {
	Reason string
}

// MovedEvent is a periodic telemetry snapshot: position, world, health,
// food, latency and whatever else the client reports.
type MovedEvent struct {
	Telemetry map[string]any
}

func (SpawnedEvent) isEvent()       {}
func (ChatEvent) isEvent()          {}
func (SystemMessageEvent) isEvent() {}
func (KickedEvent) isEvent()        {}
func (ErroredEvent) isEvent()       {}
func (EndedEvent) isEvent()         {}
func (MovedEvent) isEvent()         {}
