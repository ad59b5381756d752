// ABOUTME: Tests for configuration loading, env expansion, and validation.
// ABOUTME: Exercises duration parsing, defaults, and the error paths of Validate.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "botherd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
fleet:
  keepalive_interval: "30s"
  flush_spacing: "500ms"
  reconnect_base: "2s"
  reconnect_growth: 2.0
  reconnect_max: "1m"

bots:
  - id: alpha
    display_name: Alpha
    host: mc.example.com
    port: 25566
    username: alpha-bot
    version: "1.20.4"
    auto_reconnect: true
    auto_start: true
  - id: beta
    host: mc.example.com

quick_commands:
  path: /etc/botherd/quick.toml

logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Fleet.KeepAliveInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Fleet.FlushSpacing)
	assert.Equal(t, 2*time.Second, cfg.Fleet.ReconnectBase)
	assert.Equal(t, 2.0, cfg.Fleet.ReconnectGrowth)
	assert.Equal(t, time.Minute, cfg.Fleet.ReconnectMax)

	require.Len(t, cfg.Bots, 2)
	assert.Equal(t, "alpha", cfg.Bots[0].ID)
	assert.Equal(t, "Alpha", cfg.Bots[0].DisplayName)
	assert.Equal(t, 25566, cfg.Bots[0].Port)
	assert.True(t, cfg.Bots[0].AutoReconnect)
	assert.True(t, cfg.Bots[0].AutoStart)

	assert.Equal(t, "/etc/botherd/quick.toml", cfg.QuickCommands.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
bots:
  - id: alpha
    host: mc.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Unset durations stay zero; the fleet package applies its own defaults.
	assert.Zero(t, cfg.Fleet.KeepAliveInterval)
	assert.Equal(t, 25565, cfg.Bots[0].Port)
	assert.Equal(t, "alpha", cfg.Bots[0].DisplayName)
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("BOTHERD_TEST_PASSWORD", "s3cret")

	path := writeConfig(t, `
bots:
  - id: alpha
    host: mc.example.com
    password: "${BOTHERD_TEST_PASSWORD}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Bots[0].Password)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidDuration(t *testing.T) {
	path := writeConfig(t, `
fleet:
  keepalive_interval: "soon"
bots:
  - id: alpha
    host: mc.example.com
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keepalive_interval")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing id",
			yaml: `
bots:
  - host: mc.example.com
`,
			wantErr: "id is required",
		},
		{
			name: "duplicate id",
			yaml: `
bots:
  - id: alpha
    host: mc.example.com
  - id: alpha
    host: mc.example.com
`,
			wantErr: "duplicate id",
		},
		{
			name: "missing host",
			yaml: `
bots:
  - id: alpha
`,
			wantErr: "host is required",
		},
		{
			name: "port out of range",
			yaml: `
bots:
  - id: alpha
    host: mc.example.com
    port: 70000
`,
			wantErr: "out of range",
		},
		{
			name: "growth below one",
			yaml: `
fleet:
  reconnect_growth: 0.5
bots:
  - id: alpha
    host: mc.example.com
`,
			wantErr: "reconnect_growth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBotLookup(t *testing.T) {
	cfg := &Config{Bots: []BotConfig{{ID: "alpha"}, {ID: "beta"}}}

	bot, ok := cfg.Bot("beta")
	require.True(t, ok)
	assert.Equal(t, "beta", bot.ID)

	_, ok = cfg.Bot("gamma")
	assert.False(t, ok)
}
