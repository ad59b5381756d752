// ABOUTME: Quick-command catalog loaded from a TOML file.
// ABOUTME: Maps short operator names to canned sequences of chat lines.

package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

// Command is one named quick command: a short operator-facing name that
// expands into one or more chat lines sent verbatim to the server.
type Command struct {
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Say         []string `toml:"say"`
}

// catalogFile matches the on-disk TOML layout: a list of [[command]]
// tables.
type catalogFile struct {
	Commands []Command `toml:"command"`
}

// Catalog is an immutable set of quick commands keyed by name.
type Catalog struct {
	byName map[string]Command
	names  []string
}

// Load reads a quick-command catalog from a TOML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading quick commands: %w", err)
	}

	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing quick commands: %w", err)
	}

	byName := make(map[string]Command, len(file.Commands))
	for i, cmd := range file.Commands {
		if cmd.Name == "" {
			return nil, fmt.Errorf("command[%d]: name is required", i)
		}
		if _, dup := byName[cmd.Name]; dup {
			return nil, fmt.Errorf("command %q: duplicate name", cmd.Name)
		}
		if len(cmd.Say) == 0 {
			return nil, fmt.Errorf("command %q: at least one say line is required", cmd.Name)
		}
		byName[cmd.Name] = cmd
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Catalog{byName: byName, names: names}, nil
}

// Empty returns a catalog with no commands, for when no catalog file is
// configured.
func Empty() *Catalog {
	return &Catalog{byName: map[string]Command{}}
}

// Get returns the command with the given name.
func (c *Catalog) Get(name string) (Command, bool) {
	cmd, ok := c.byName[name]
	return cmd, ok
}

// Names returns all command names in sorted order.
func (c *Catalog) Names() []string {
	return c.names
}

// Len returns the number of commands in the catalog.
func (c *Catalog) Len() int {
	return len(c.byName)
}
