// ABOUTME: Per-bot connection lifecycle driver running as a single-goroutine actor.
// ABOUTME: Owns connect/reconnect scheduling, keep-alive, queue flush, and stale-session rejection.

package fleet

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/botherd/botherd/internal/mc"
)

const (
	// DefaultKeepAliveInterval is how often an online bot performs
	// synthetic activity to dodge idle-timeout kicks.
	DefaultKeepAliveInterval = 45 * time.Second

	// DefaultFlushSpacing is the pause between queued chat lines during a
	// flush, keeping the server-side rate limiter quiet.
	DefaultFlushSpacing = time.Second

	// mailboxBuffer is the per-bot mailbox capacity. Posting blocks once
	// the buffer is full, which backpressures the event pump.
	mailboxBuffer = 64
)

// ErrBotClosed is returned for operations on a bot whose loop has exited.
var ErrBotClosed = errors.New("bot closed")

// BotConfig describes one managed connection. It is supplied fresh on every
// Start call and never persisted by the supervisor.
type BotConfig struct {
	ID            string
	DisplayName   string
	Host          string
	Port          int
	Username      string
	Password      string
	Version       string
	AutoReconnect bool
}

func (c BotConfig) clientConfig() mc.Config {
	username := c.Username
	if username == "" {
		username = c.ID
	}
	return mc.Config{
		Host:     c.Host,
		Port:     c.Port,
		Username: username,
		Password: c.Password,
		Version:  c.Version,
	}
}

// Settings carries the supervisor tunables shared by every bot. Zero fields
// fall back to the defaults.
type Settings struct {
	Policy            ReconnectPolicy
	KeepAliveInterval time.Duration
	FlushSpacing      time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.Policy == (ReconnectPolicy{}) {
		s.Policy = DefaultReconnectPolicy()
	}
	if s.KeepAliveInterval <= 0 {
		s.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if s.FlushSpacing <= 0 {
		s.FlushSpacing = DefaultFlushSpacing
	}
	return s
}

// SendResult reports what happened to an outbound chat line.
type SendResult int

const (
	// SendQueued means the line was appended to the bot's queue for
	// delivery after the next reconnect. Not an error.
	SendQueued SendResult = iota
	// SendDelivered means the line went out on the live session.
	SendDelivered
)

// String returns the lowercase result name.
func (r SendResult) String() string {
	if r == SendDelivered {
		return "delivered"
	}
	return "queued"
}

// Bot drives one managed connection. All lifecycle decisions happen on a
// single goroutine fed by a mailbox: external client events, timer
// firings, and API calls are serialized, and every message that belongs to
// a connection attempt carries that attempt's session id. A message whose
// session id no longer matches is stale and dropped, which closes the
// stop-versus-late-disconnect race structurally.
type Bot struct {
	id        string
	connector mc.Connector
	sink      Sink
	logger    *slog.Logger
	settings  Settings

	queue  *Queue
	status *statusTracker

	mailbox chan message
	done    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// newBot creates the bot and starts its processing loop.
func newBot(id string, connector mc.Connector, sink Sink, settings Settings, logger *slog.Logger) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		id:        id,
		connector: connector,
		sink:      sink,
		logger:    logger.With("bot", id),
		settings:  settings,
		queue:     NewQueue(),
		mailbox:   make(chan message, mailboxBuffer),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	b.status = newStatusTracker(id, sink.Publish)
	go b.run()
	return b
}

// ID returns the bot's endpoint id.
func (b *Bot) ID() string {
	return b.id
}

// Start begins connecting with the given config. A bot that is already
// Connecting or Online ignores the call; a pending reconnect timer is
// cancelled and replaced by an immediate attempt.
func (b *Bot) Start(cfg BotConfig) error {
	reply := make(chan struct{})
	if !b.post(startMsg{cfg: cfg, reply: reply}) {
		return ErrBotClosed
	}
	return b.await(reply)
}

// Stop disconnects and rests the bot in Offline. No reconnect will be
// scheduled afterwards, regardless of the auto-reconnect flag, until the
// next Start.
func (b *Bot) Stop() error {
	reply := make(chan struct{})
	if !b.post(stopMsg{reply: reply}) {
		return ErrBotClosed
	}
	return b.await(reply)
}

// Send transmits a chat line on the live session, or queues it when the
// bot is not Online or the transmission fails. Queueing is not an error.
func (b *Bot) Send(text string) (SendResult, error) {
	reply := make(chan SendResult, 1)
	if !b.post(sendMsg{text: text, reply: reply}) {
		return SendQueued, ErrBotClosed
	}
	select {
	case res := <-reply:
		return res, nil
	case <-b.done:
		return SendQueued, ErrBotClosed
	}
}

// Status returns a snapshot of the bot's status record. Reads bypass the
// mailbox.
func (b *Bot) Status() StatusRecord {
	return b.status.snapshot()
}

// QueuedCount returns how many chat lines are waiting for delivery.
func (b *Bot) QueuedCount() int {
	return b.queue.Len()
}

// Close stops the bot and terminates its loop. After Close returns no
// timer owned by the bot can fire again. Safe to call more than once.
func (b *Bot) Close() {
	if b.post(closeMsg{}) {
		<-b.done
	}
}

// post delivers a message to the loop, failing once the loop has exited.
func (b *Bot) post(m message) bool {
	select {
	case b.mailbox <- m:
		return true
	case <-b.done:
		return false
	}
}

func (b *Bot) await(reply chan struct{}) error {
	select {
	case <-reply:
		return nil
	case <-b.done:
		return ErrBotClosed
	}
}

// Mailbox messages. Session-scoped messages carry the session id of the
// connection attempt they belong to.
type message interface{ isMessage() }

type startMsg struct {
	cfg   BotConfig
	reply chan struct{}
}

type stopMsg struct {
	reply chan struct{}
}

type sendMsg struct {
	text  string
	reply chan SendResult
}

type closeMsg struct{}

type connectedMsg struct {
	session uint64
	handle  mc.Handle
}

type connectFailedMsg struct {
	session uint64
	err     error
}

type clientEventMsg struct {
	session uint64
	event   mc.Event
}

type retryMsg struct {
	session uint64
}

type keepAliveMsg struct {
	session uint64
}

func (startMsg) isMessage()         {}
func (stopMsg) isMessage()          {}
func (sendMsg) isMessage()          {}
func (closeMsg) isMessage()         {}
func (connectedMsg) isMessage()     {}
func (connectFailedMsg) isMessage() {}
func (clientEventMsg) isMessage()   {}
func (retryMsg) isMessage()         {}
func (keepAliveMsg) isMessage()     {}

// loopState is the goroutine-local state of the processing loop. One owned
// record instead of parallel maps: handle, timers, attempt counter, and
// session id can never drift apart.
type loopState struct {
	cfg            BotConfig
	state          State
	session        uint64
	handle         mc.Handle
	sessionCtx     context.Context
	sessionCancel  context.CancelFunc
	attempts       int
	retryTimer     *time.Timer
	keepAliveTicks uint64
}

func (b *Bot) run() {
	defer close(b.done)

	st := &loopState{state: StateOffline}
	for raw := range b.mailbox {
		switch m := raw.(type) {
		case startMsg:
			b.handleStart(st, m.cfg)
			close(m.reply)
		case stopMsg:
			b.handleStop(st)
			close(m.reply)
		case sendMsg:
			m.reply <- b.handleSend(st, m.text)
		case closeMsg:
			b.handleStop(st)
			b.cancel()
			return
		case connectedMsg:
			b.handleConnected(st, m)
		case connectFailedMsg:
			b.handleConnectFailed(st, m)
		case clientEventMsg:
			b.handleClientEvent(st, m)
		case retryMsg:
			b.handleRetry(st, m)
		case keepAliveMsg:
			b.handleKeepAlive(st, m)
		}
	}
}

func (b *Bot) handleStart(st *loopState, cfg BotConfig) {
	if st.state == StateConnecting || st.state == StateOnline {
		b.logger.Info("start ignored, bot already running", "state", st.state.String())
		return
	}
	b.cancelRetry(st)
	st.cfg = cfg
	b.beginConnect(st)
}

// beginConnect opens a new session id and kicks off an asynchronous dial.
func (b *Bot) beginConnect(st *loopState) {
	st.session++
	session := st.session
	st.state = StateConnecting
	b.status.setConnecting()

	cfg := st.cfg.clientConfig()
	b.logger.Info("connecting", "addr", cfg.Addr(), "session", session)

	go func() {
		handle, err := b.connector.Connect(b.ctx, cfg)
		if err != nil {
			b.post(connectFailedMsg{session: session, err: err})
			return
		}
		if !b.post(connectedMsg{session: session, handle: handle}) {
			_ = handle.Disconnect("supervisor shut down")
		}
	}()
}

func (b *Bot) handleConnected(st *loopState, m connectedMsg) {
	if m.session != st.session {
		b.logger.Debug("discarding handle from stale connect attempt", "session", m.session)
		_ = m.handle.Disconnect("superseded")
		return
	}

	st.handle = m.handle
	st.sessionCtx, st.sessionCancel = context.WithCancel(b.ctx)
	go b.pumpEvents(st.sessionCtx, m.session, m.handle)
	b.logger.Debug("connected, waiting for spawn", "session", m.session)
}

// pumpEvents forwards client events into the mailbox, tagged with their
// session so the loop can reject them once the session is superseded.
func (b *Bot) pumpEvents(ctx context.Context, session uint64, handle mc.Handle) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-handle.Events():
			if !ok {
				return
			}
			if !b.post(clientEventMsg{session: session, event: ev}) {
				return
			}
		}
	}
}

func (b *Bot) handleConnectFailed(st *loopState, m connectFailedMsg) {
	if m.session != st.session {
		b.logger.Debug("dropping stale connect failure", "session", m.session)
		return
	}
	st.state = StateError
	b.status.setDown(m.err.Error())
	b.logger.Warn("connect failed", "error", m.err)
	b.maybeScheduleReconnect(st)
}

func (b *Bot) handleClientEvent(st *loopState, m clientEventMsg) {
	if m.session != st.session {
		b.logger.Debug("dropping event from stale session", "session", m.session)
		return
	}

	switch ev := m.event.(type) {
	case mc.SpawnedEvent:
		b.handleSpawned(st)
	case mc.ChatEvent:
		b.sink.Publish(Notification{
			BotID: b.id,
			Time:  time.Now(),
			Kind:  KindChat,
			Chat:  &ChatMessage{Sender: ev.Sender, Text: ev.Text},
		})
	case mc.SystemMessageEvent:
		b.sink.Publish(Notification{
			BotID: b.id,
			Time:  time.Now(),
			Kind:  KindLog,
			Line:  ev.Text,
		})
	case mc.MovedEvent:
		b.status.mergeTelemetry(ev.Telemetry)
	case mc.KickedEvent:
		b.logger.Warn("kicked", "reason", ev.Reason)
		b.endSession(st, ev.Reason)
	case mc.ErroredEvent:
		reason := "session error"
		if ev.Err != nil {
			reason = ev.Err.Error()
		}
		b.logger.Warn("session errored", "error", reason)
		b.endSession(st, reason)
	case mc.EndedEvent:
		b.logger.Info("session ended", "reason", ev.Reason)
		b.endSession(st, ev.Reason)
	}
}

func (b *Bot) handleSpawned(st *loopState) {
	if st.state == StateOnline {
		return
	}
	st.state = StateOnline
	st.attempts = 0
	b.status.setOnline(time.Now())
	b.logger.Info("online", "session", st.session)

	b.startKeepAlive(st.sessionCtx, st.session)
	b.flush(st.sessionCtx, st.session, st.handle)
}

// endSession tears down the live session and, unless auto-reconnect is
// off, schedules a retry. A non-empty reason rests the bot in Error,
// otherwise Offline.
func (b *Bot) endSession(st *loopState, reason string) {
	if st.sessionCancel != nil {
		st.sessionCancel()
		st.sessionCancel = nil
	}
	st.sessionCtx = nil
	st.handle = nil
	// Invalidate anything still in flight for the dead session.
	st.session++

	if reason != "" {
		st.state = StateError
	} else {
		st.state = StateOffline
	}
	b.status.setDown(reason)
	b.maybeScheduleReconnect(st)
}

// maybeScheduleReconnect arms the retry timer. Stop and Close bump the
// session id, so a firing that was already queued when the operator
// stopped the bot is rejected as stale; there is no mutable "manually
// stopped" flag to race on.
func (b *Bot) maybeScheduleReconnect(st *loopState) {
	if !st.cfg.AutoReconnect {
		b.logger.Info("auto-reconnect disabled, resting")
		return
	}
	st.attempts++
	delay := b.settings.Policy.Delay(st.attempts)
	session := st.session
	st.retryTimer = time.AfterFunc(delay, func() {
		b.post(retryMsg{session: session})
	})
	b.logger.Info("reconnect scheduled", "attempt", st.attempts, "delay", delay)
}

func (b *Bot) handleRetry(st *loopState, m retryMsg) {
	if m.session != st.session {
		b.logger.Debug("dropping stale reconnect firing", "session", m.session)
		return
	}
	st.retryTimer = nil
	b.beginConnect(st)
}

func (b *Bot) handleStop(st *loopState) {
	b.cancelRetry(st)
	st.attempts = 0

	handle := st.handle
	if st.sessionCancel != nil {
		st.sessionCancel()
		st.sessionCancel = nil
	}
	st.sessionCtx = nil
	st.handle = nil
	// Stale out any in-flight connect result, client event, or timer
	// firing for the old session.
	st.session++

	st.state = StateOffline
	b.status.setOffline()

	if handle != nil {
		go func() {
			_ = handle.Disconnect("stopped by operator")
		}()
	}
	b.logger.Info("stopped")
}

func (b *Bot) handleSend(st *loopState, text string) SendResult {
	if st.state == StateOnline && st.handle != nil {
		err := st.handle.SendChat(text)
		if err == nil {
			return SendDelivered
		}
		b.logger.Warn("chat send failed, queueing", "error", err)
	}
	b.queue.Push(text)
	return SendQueued
}

func (b *Bot) cancelRetry(st *loopState) {
	if st.retryTimer != nil {
		st.retryTimer.Stop()
		st.retryTimer = nil
	}
}

// startKeepAlive runs the anti-idle ticker for one session. Ticks are
// delivered through the mailbox, so the activity itself is serialized with
// the rest of the lifecycle and dies with the session.
func (b *Bot) startKeepAlive(ctx context.Context, session uint64) {
	go func() {
		ticker := time.NewTicker(b.settings.KeepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !b.post(keepAliveMsg{session: session}) {
					return
				}
			}
		}
	}()
}

func (b *Bot) handleKeepAlive(st *loopState, m keepAliveMsg) {
	if m.session != st.session || st.state != StateOnline || st.handle == nil {
		return
	}

	st.keepAliveTicks++
	var err error
	if st.keepAliveTicks%2 == 1 {
		// Short jump pulse.
		if err = st.handle.SetControlState("jump", true); err == nil {
			err = st.handle.SetControlState("jump", false)
		}
	} else {
		err = st.handle.LookAt(rand.Float64()*360-180, 0)
	}
	if err != nil {
		// Logged only: keep-alive failures never change state.
		b.logger.Warn("keep-alive action failed", "error", err)
	}
}

// flush delivers the queued backlog after a spawn. The queue is drained at
// flush start, before any delivery is confirmed: a send failure or a
// session that ends mid-flush loses the remaining lines. That at-most-once
// behavior is deliberate and kept.
func (b *Bot) flush(ctx context.Context, session uint64, handle mc.Handle) {
	backlog := b.queue.Drain()
	if len(backlog) == 0 {
		return
	}
	b.logger.Info("flushing queued chat", "count", len(backlog), "session", session)

	spacing := b.settings.FlushSpacing
	go func() {
		for i, qm := range backlog {
			if i > 0 {
				select {
				case <-ctx.Done():
					b.logger.Warn("session ended mid-flush, dropping remainder",
						"dropped", len(backlog)-i, "session", session)
					return
				case <-time.After(spacing):
				}
			}
			if err := handle.SendChat(qm.Text); err != nil {
				b.logger.Warn("queued chat delivery failed", "error", err, "session", session)
			}
		}
	}()
}
