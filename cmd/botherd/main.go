// ABOUTME: Entry point for the botherd fleet supervisor
// ABOUTME: Runs the fleet and an interactive operator console on stdin

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/botherd/botherd/internal/commands"
	"github.com/botherd/botherd/internal/config"
	"github.com/botherd/botherd/internal/events"
	"github.com/botherd/botherd/internal/fleet"
	"github.com/botherd/botherd/internal/mc"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _           _   _                   _
| |__   ___ | |_| |__   ___ _ __ __| |
| '_ \ / _ \| __| '_ \ / _ \ '__/ _' |
| |_) | (_) | |_| | | |  __/ | | (_| |
|_.__/ \___/ \__|_| |_|\___|_|  \__,_|
`

// getConfigPath returns the path to the botherd config file.
// Priority: BOTHERD_CONFIG env var > XDG_CONFIG_HOME/botherd/botherd.yaml > ~/.config/botherd/botherd.yaml
func getConfigPath() string {
	if envPath := os.Getenv("BOTHERD_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "botherd.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "botherd", "botherd.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: botherd <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Run the fleet and the operator console")
		fmt.Println("  init     Create a starter config file")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	// Quick-command catalog is optional.
	catalog := commands.Empty()
	if cfg.QuickCommands.Path != "" {
		catalog, err = commands.Load(cfg.QuickCommands.Path)
		if err != nil {
			return fmt.Errorf("loading quick commands: %w", err)
		}
	}

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:         %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Bots:           %d\n", len(cfg.Bots))
	green.Print("    ▶ ")
	fmt.Printf("Quick commands: %d\n", catalog.Len())
	fmt.Println()

	logger.Info("starting botherd",
		"config", configPath,
		"bots", len(cfg.Bots),
	)

	broadcaster := events.NewBroadcaster(logger)
	defer broadcaster.Close()

	// Unset fields keep the fleet defaults.
	policy := fleet.DefaultReconnectPolicy()
	if cfg.Fleet.ReconnectBase > 0 {
		policy.Base = cfg.Fleet.ReconnectBase
	}
	if cfg.Fleet.ReconnectGrowth > 0 {
		policy.Growth = cfg.Fleet.ReconnectGrowth
	}
	if cfg.Fleet.ReconnectMax > 0 {
		policy.Max = cfg.Fleet.ReconnectMax
	}
	settings := fleet.Settings{
		Policy:            policy,
		KeepAliveInterval: cfg.Fleet.KeepAliveInterval,
		FlushSpacing:      cfg.Fleet.FlushSpacing,
	}

	connector := mc.NewSimulator(mc.WithAutoSpawn(500 * time.Millisecond))

	sup := fleet.NewSupervisor(connector, broadcaster, settings, logger)
	defer sup.Shutdown()

	for _, bot := range cfg.Bots {
		if !bot.AutoStart {
			continue
		}
		if err := sup.Start(botConfig(bot)); err != nil {
			logger.Error("auto-start failed", "bot", bot.ID, "error", err)
		}
	}

	console := newConsole(sup, cfg, catalog, broadcaster)
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		console.run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down on signal")
	case <-consoleDone:
		logger.Info("console closed, shutting down")
	}
	return nil
}

func botConfig(bot config.BotConfig) fleet.BotConfig {
	return fleet.BotConfig{
		ID:            bot.ID,
		DisplayName:   bot.DisplayName,
		Host:          bot.Host,
		Port:          bot.Port,
		Username:      bot.Username,
		Password:      bot.Password,
		Version:       bot.Version,
		AutoReconnect: bot.AutoReconnect,
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	// Handler-level attrs first (from WithAttrs), then record attrs.
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists: %s", configPath)
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	quickPath := filepath.Join(configDir, "quick.toml")

	configContent := fmt.Sprintf(`# botherd configuration
# Generated by botherd init

fleet:
  keepalive_interval: "45s"
  flush_spacing: "1s"
  reconnect_base: "5s"
  reconnect_growth: 1.5
  reconnect_max: "5m"

bots:
  - id: alpha
    display_name: Alpha
    host: mc.example.com
    port: 25565
    username: alpha
    # password: "${ALPHA_PASSWORD}"
    version: "1.20.4"
    auto_reconnect: true
    auto_start: true

quick_commands:
  path: "%s"

logging:
  level: "info"
  format: "text"
`, quickPath)

	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	quickContent := `# botherd quick commands
# Generated by botherd init

[[command]]
name = "greet"
description = "Say hello to everyone nearby"
say = ["Hello!", "o/"]

[[command]]
name = "home"
description = "Return to the home waypoint"
say = ["/home"]
`

	if err := os.WriteFile(quickPath, []byte(quickContent), 0644); err != nil {
		return fmt.Errorf("writing quick commands file: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Created config: %s\n", configPath)
	green.Printf("  ✓ Created quick commands: %s\n", quickPath)
	fmt.Println("\nTo start the fleet:")
	fmt.Println("  botherd serve")

	return nil
}
