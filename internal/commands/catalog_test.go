// ABOUTME: Tests for the quick-command catalog loader.
// ABOUTME: Covers parsing, validation errors, and lookup helpers.

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quick.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeCatalog(t, `
[[command]]
name = "greet"
description = "Say hello to everyone nearby"
say = ["Hello!", "o/"]

[[command]]
name = "home"
say = ["/home"]
`)

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, []string{"greet", "home"}, cat.Names())

	greet, ok := cat.Get("greet")
	require.True(t, ok)
	assert.Equal(t, "Say hello to everyone nearby", greet.Description)
	assert.Equal(t, []string{"Hello!", "o/"}, greet.Say)

	_, ok = cat.Get("missing")
	assert.False(t, ok)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		toml    string
		wantErr string
	}{
		{
			name: "missing name",
			toml: `
[[command]]
say = ["hi"]
`,
			wantErr: "name is required",
		},
		{
			name: "duplicate name",
			toml: `
[[command]]
name = "greet"
say = ["hi"]

[[command]]
name = "greet"
say = ["hello"]
`,
			wantErr: "duplicate name",
		},
		{
			name: "empty say",
			toml: `
[[command]]
name = "greet"
`,
			wantErr: "say line is required",
		},
		{
			name:    "bad toml",
			toml:    `[[command`,
			wantErr: "parsing quick commands",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeCatalog(t, tt.toml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEmpty(t *testing.T) {
	cat := Empty()
	assert.Zero(t, cat.Len())
	assert.Empty(t, cat.Names())
	_, ok := cat.Get("anything")
	assert.False(t, ok)
}
