// ABOUTME: Registry mapping bot ids to their lifecycle drivers.
// ABOUTME: Public entry point for start/stop/send/status/shutdown used by the surrounding app.

package fleet

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/botherd/botherd/internal/mc"
)

// ErrUnknownBot indicates no bot with the given id has ever been started.
var ErrUnknownBot = errors.New("unknown bot")

// ErrShuttingDown indicates the supervisor has been shut down.
var ErrShuttingDown = errors.New("supervisor shutting down")

// Supervisor owns the fleet: one Bot per endpoint id. It is an explicitly
// constructed instance passed by reference; there is no package-level
// singleton. The id map is the only state shared between endpoints.
type Supervisor struct {
	connector mc.Connector
	sink      Sink
	settings  Settings
	logger    *slog.Logger

	mu           sync.RWMutex
	bots         map[string]*Bot
	closed       bool
	shutdownDone chan struct{}
}

// NewSupervisor creates a supervisor. Pass a nil sink to discard
// notifications and a nil logger for slog.Default.
func NewSupervisor(connector mc.Connector, sink Sink, settings Settings, logger *slog.Logger) *Supervisor {
	if sink == nil {
		sink = nopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		connector: connector,
		sink:      sink,
		settings:  settings.withDefaults(),
		logger:    logger.With("component", "fleet"),
		bots:      make(map[string]*Bot),
	}
}

// Start registers the bot if needed and begins connecting with the given
// config. Starting a bot that is already Connecting or Online is a logged
// no-op.
func (s *Supervisor) Start(cfg BotConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("bot id is required")
	}
	if cfg.Host == "" {
		return fmt.Errorf("bot %q: host is required", cfg.ID)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrShuttingDown
	}
	bot, ok := s.bots[cfg.ID]
	if !ok {
		bot = newBot(cfg.ID, s.connector, s.sink, s.settings, s.logger)
		s.bots[cfg.ID] = bot
		s.logger.Info("bot registered", "bot", cfg.ID, "total_bots", len(s.bots))
	}
	s.mu.Unlock()

	return bot.Start(cfg)
}

// Stop disconnects the bot and suppresses any reconnect until the next
// Start.
func (s *Supervisor) Stop(id string) error {
	bot, err := s.get(id)
	if err != nil {
		return err
	}
	return bot.Stop()
}

// Send delivers a chat line on the bot's live session, or queues it for
// the next reconnect. The result tells the caller which happened.
func (s *Supervisor) Send(id, text string) (SendResult, error) {
	bot, err := s.get(id)
	if err != nil {
		return SendQueued, err
	}
	return bot.Send(text)
}

// Status returns the bot's current status record.
func (s *Supervisor) Status(id string) (StatusRecord, error) {
	bot, err := s.get(id)
	if err != nil {
		return StatusRecord{}, err
	}
	return bot.Status(), nil
}

// AllStatuses returns a snapshot of every registered bot's status, keyed
// by bot id. Returns nil once the supervisor has been shut down, matching
// the per-id accessors.
func (s *Supervisor) AllStatuses() map[string]StatusRecord {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil
	}
	bots := make([]*Bot, 0, len(s.bots))
	for _, bot := range s.bots {
		bots = append(bots, bot)
	}
	s.mu.RUnlock()

	out := make(map[string]StatusRecord, len(bots))
	for _, bot := range bots {
		out[bot.ID()] = bot.Status()
	}
	return out
}

// Shutdown stops every bot without scheduling reconnects and waits until
// no bot-owned timer can fire again. Idempotent: concurrent callers all
// return only once shutdown has completed.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	if s.closed {
		done := s.shutdownDone
		s.mu.Unlock()
		<-done
		return
	}
	s.closed = true
	s.shutdownDone = make(chan struct{})
	bots := make([]*Bot, 0, len(s.bots))
	for _, bot := range s.bots {
		bots = append(bots, bot)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, bot := range bots {
		wg.Add(1)
		go func(b *Bot) {
			defer wg.Done()
			b.Close()
		}(bot)
	}
	wg.Wait()

	close(s.shutdownDone)
	s.logger.Info("fleet shut down", "bots", len(bots))
}

func (s *Supervisor) get(id string) (*Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrShuttingDown
	}
	bot, ok := s.bots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBot, id)
	}
	return bot, nil
}
