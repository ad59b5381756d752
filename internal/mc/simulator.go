// ABOUTME: In-process simulated game client implementing the Connector contract.
// ABOUTME: Scriptable connect failures and server events for tests and the demo console.

package mc

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionClosed is returned by handle actions after the session has ended.
var ErrSessionClosed = errors.New("session closed")

// sessionEventBuffer is the event channel buffer per simulated session.
const sessionEventBuffer = 64

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithConnectFailures makes the first n Connect calls fail with err before
// connections start succeeding.
func WithConnectFailures(n int, err error) SimulatorOption {
	return func(s *Simulator) {
		s.failuresLeft = n
		s.connectErr = err
	}
}

// WithAutoSpawn emits SpawnedEvent automatically after each successful
// connect, delayed by d. Without this option sessions spawn only when the
// test script calls Session.Spawn.
func WithAutoSpawn(d time.Duration) SimulatorOption {
	return func(s *Simulator) {
		s.autoSpawn = true
		s.spawnDelay = d
	}
}

// Simulator is an in-process Connector whose sessions are driven by the
// test or demo harness instead of a real server.
type Simulator struct {
	mu           sync.Mutex
	failuresLeft int
	connectErr   error
	autoSpawn    bool
	spawnDelay   time.Duration
	dials        int
	sessions     []*Session
}

// NewSimulator creates a simulator. By default every connect succeeds and
// sessions must be spawned manually.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		connectErr: errors.New("connection refused"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect implements Connector.
func (s *Simulator) Connect(ctx context.Context, cfg Config) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dials++
	if s.failuresLeft > 0 {
		s.failuresLeft--
		return nil, s.connectErr
	}

	sess := newSession(cfg)
	s.sessions = append(s.sessions, sess)

	if s.autoSpawn {
		if s.spawnDelay == 0 {
			sess.Spawn()
		} else {
			time.AfterFunc(s.spawnDelay, sess.Spawn)
		}
	}
	return sess, nil
}

// Dials returns how many Connect calls the simulator has seen, including
// failed ones.
func (s *Simulator) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// SessionCount returns how many sessions have been established.
func (s *Simulator) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Session returns the i-th established session, or nil if it does not exist.
func (s *Simulator) Session(i int) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.sessions) {
		return nil
	}
	return s.sessions[i]
}

// LastSession returns the most recently established session, or nil.
func (s *Simulator) LastSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		return nil
	}
	return s.sessions[len(s.sessions)-1]
}

// Session is a simulated live session. The harness side injects server
// events (Spawn, Kick, Chat, ...) and inspects what the supervisor did
// (SentChat, JumpPulses, Looks).
type Session struct {
	cfg Config

	mu               sync.Mutex
	events           chan Event
	closed           bool
	chat             []string
	chatTimes        []time.Time
	chatErr          error
	looks            int
	controlPulses    map[string]int
	disconnected     bool
	disconnectReason string
}

func newSession(cfg Config) *Session {
	return &Session{
		cfg:           cfg,
		events:        make(chan Event, sessionEventBuffer),
		controlPulses: make(map[string]int),
	}
}

// SendChat implements Handle.
func (s *Session) SendChat(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disconnected {
		return ErrSessionClosed
	}
	if s.chatErr != nil {
		return s.chatErr
	}
	s.chat = append(s.chat, text)
	s.chatTimes = append(s.chatTimes, time.Now())
	return nil
}

// LookAt implements Handle.
func (s *Session) LookAt(yaw, pitch float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disconnected {
		return ErrSessionClosed
	}
	s.looks++
	return nil
}

// SetControlState implements Handle. Only "on" transitions are counted as
// pulses.
func (s *Session) SetControlState(control string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disconnected {
		return ErrSessionClosed
	}
	if on {
		s.controlPulses[control]++
	}
	return nil
}

// Disconnect implements Handle. Safe to call more than once.
func (s *Session) Disconnect(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disconnected {
		return nil
	}
	s.disconnected = true
	s.disconnectReason = reason
	s.closeLocked()
	return nil
}

// Events implements Handle.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Spawn injects the spawned signal.
func (s *Session) Spawn() {
	s.emit(SpawnedEvent{})
}

// Chat injects an incoming chat line.
func (s *Session) Chat(sender, text string) {
	s.emit(ChatEvent{Sender: sender, Text: text})
}

// System injects a server system message.
func (s *Session) System(text string) {
	s.emit(SystemMessageEvent{Text: text})
}

// Move injects a telemetry snapshot.
func (s *Session) Move(telemetry map[string]any) {
	s.emit(MovedEvent{Telemetry: telemetry})
}

// Kick terminates the session from the server side with a reason.
func (s *Session) Kick(reason string) {
	s.emit(KickedEvent{Reason: reason})
	s.terminate()
}

// Fail terminates the session with a transport error.
func (s *Session) Fail(err error) {
	s.emit(ErroredEvent{Err: err})
	s.terminate()
}

// End closes the session without a kick. An empty reason models a clean
// close.
func (s *Session) End(reason string) {
	s.emit(EndedEvent{Reason: reason})
	s.terminate()
}

// SetChatError makes subsequent SendChat calls fail with err. Pass nil to
// restore delivery.
func (s *Session) SetChatError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatErr = err
}

// SentChat returns a copy of every chat line delivered on this session.
func (s *Session) SentChat() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.chat))
	copy(out, s.chat)
	return out
}

// SentChatTimes returns the arrival time of each delivered chat line,
// index-aligned with SentChat.
func (s *Session) SentChatTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Time, len(s.chatTimes))
	copy(out, s.chatTimes)
	return out
}

// Looks returns how many LookAt calls the session received.
func (s *Session) Looks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.looks
}

// JumpPulses returns how many times the jump control was switched on.
func (s *Session) JumpPulses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controlPulses["jump"]
}

// Disconnected reports whether the supervisor side disconnected the session.
func (s *Session) Disconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnected
}

// DisconnectReason returns the reason passed to Disconnect.
func (s *Session) DisconnectReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnectReason
}

func (s *Session) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		// Event buffer full; the harness script is far ahead of the
		// consumer. Drop, same as a real client under backpressure.
	}
}

func (s *Session) terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}
