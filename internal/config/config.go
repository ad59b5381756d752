// ABOUTME: Configuration loading and parsing for botherd.
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing.

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultPort is the usual game-server port, filled in when a bot entry
// omits one.
const defaultPort = 25565

// Config represents the complete botherd configuration.
type Config struct {
	Fleet         FleetConfig         `yaml:"fleet"`
	Bots          []BotConfig         `yaml:"bots"`
	QuickCommands QuickCommandsConfig `yaml:"quick_commands"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// FleetConfig holds supervisor timing configuration.
type FleetConfig struct {
	KeepAliveInterval time.Duration `yaml:"-"`
	FlushSpacing      time.Duration `yaml:"-"`
	ReconnectBase     time.Duration `yaml:"-"`
	ReconnectMax      time.Duration `yaml:"-"`
	ReconnectGrowth   float64       `yaml:"reconnect_growth"`

	// Raw string values for YAML unmarshaling
	KeepAliveIntervalRaw string `yaml:"keepalive_interval"`
	FlushSpacingRaw      string `yaml:"flush_spacing"`
	ReconnectBaseRaw     string `yaml:"reconnect_base"`
	ReconnectMaxRaw      string `yaml:"reconnect_max"`
}

// BotConfig describes one managed bot entry.
type BotConfig struct {
	ID            string `yaml:"id"`
	DisplayName   string `yaml:"display_name"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	Version       string `yaml:"version"`
	AutoReconnect bool   `yaml:"auto_reconnect"`
	AutoStart     bool   `yaml:"auto_start"`
}

// QuickCommandsConfig points at the quick-command catalog file.
type QuickCommandsConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in per-bot defaults that validation relies on.
func (c *Config) applyDefaults() {
	for i := range c.Bots {
		if c.Bots[i].Port == 0 {
			c.Bots[i].Port = defaultPort
		}
		if c.Bots[i].DisplayName == "" {
			c.Bots[i].DisplayName = c.Bots[i].ID
		}
	}
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first validation failure.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Bots))
	for i, bot := range c.Bots {
		if bot.ID == "" {
			return fmt.Errorf("bots[%d]: id is required", i)
		}
		if seen[bot.ID] {
			return fmt.Errorf("bots[%d]: duplicate id %q", i, bot.ID)
		}
		seen[bot.ID] = true

		if bot.Host == "" {
			return fmt.Errorf("bot %q: host is required", bot.ID)
		}
		if bot.Port < 1 || bot.Port > 65535 {
			return fmt.Errorf("bot %q: port %d out of range", bot.ID, bot.Port)
		}
	}

	if c.Fleet.ReconnectGrowth != 0 && c.Fleet.ReconnectGrowth < 1 {
		return fmt.Errorf("fleet.reconnect_growth must be >= 1")
	}

	return nil
}

// Bot returns the configured bot entry with the given id.
func (c *Config) Bot(id string) (BotConfig, bool) {
	for _, bot := range c.Bots {
		if bot.ID == id {
			return bot, true
		}
	}
	return BotConfig{}, false
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Fleet.KeepAliveIntervalRaw != "" {
		cfg.Fleet.KeepAliveInterval, err = time.ParseDuration(cfg.Fleet.KeepAliveIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing keepalive_interval %q: %w", cfg.Fleet.KeepAliveIntervalRaw, err)
		}
	}

	if cfg.Fleet.FlushSpacingRaw != "" {
		cfg.Fleet.FlushSpacing, err = time.ParseDuration(cfg.Fleet.FlushSpacingRaw)
		if err != nil {
			return fmt.Errorf("parsing flush_spacing %q: %w", cfg.Fleet.FlushSpacingRaw, err)
		}
	}

	if cfg.Fleet.ReconnectBaseRaw != "" {
		cfg.Fleet.ReconnectBase, err = time.ParseDuration(cfg.Fleet.ReconnectBaseRaw)
		if err != nil {
			return fmt.Errorf("parsing reconnect_base %q: %w", cfg.Fleet.ReconnectBaseRaw, err)
		}
	}

	if cfg.Fleet.ReconnectMaxRaw != "" {
		cfg.Fleet.ReconnectMax, err = time.ParseDuration(cfg.Fleet.ReconnectMaxRaw)
		if err != nil {
			return fmt.Errorf("parsing reconnect_max %q: %w", cfg.Fleet.ReconnectMaxRaw, err)
		}
	}

	return nil
}
