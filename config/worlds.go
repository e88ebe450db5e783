package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smartcontractkit/comet-scenarios/scenario"
)

// Manifest is the YAML representation of the worlds.
type Manifest struct {
	Worlds []scenario.World `yaml:"worlds"`
}

// WorldsConfig is a collection of worlds keyed by name.
type WorldsConfig struct {
	worlds map[string]scenario.World
}

// NewWorldsConfig creates a config from worlds. A later world replaces an earlier one of the
// same name.
func NewWorldsConfig(worlds []scenario.World) *WorldsConfig {
	m := make(map[string]scenario.World, len(worlds))
	for _, w := range worlds {
		m[w.Name] = w
	}

	return &WorldsConfig{worlds: m}
}

// Worlds returns the worlds sorted by name.
func (c *WorldsConfig) Worlds() []scenario.World {
	return slices.SortedFunc(maps.Values(c.worlds), func(a, b scenario.World) int {
		return strings.Compare(a.Name, b.Name)
	})
}

// World returns the world named name.
func (c *WorldsConfig) World(name string) (scenario.World, error) {
	w, ok := c.worlds[name]
	if !ok {
		return scenario.World{}, fmt.Errorf("world %q not found in configuration", name)
	}

	return w, nil
}

// Validate ensures every world is valid.
func (c *WorldsConfig) Validate() error {
	for _, w := range c.Worlds() {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("world %q: %w", w.Name, err)
		}
	}

	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (c *WorldsConfig) MarshalYAML() (any, error) {
	return Manifest{Worlds: c.Worlds()}, nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (c *WorldsConfig) UnmarshalYAML(value *yaml.Node) error {
	node := Manifest{}
	if err := value.Decode(&node); err != nil {
		return err
	}
	*c = *NewWorldsConfig(node.Worlds)

	return nil
}

// WorldFilter selects worlds.
type WorldFilter func(scenario.World) bool

// FilterWith returns the worlds passing every filter.
func (c *WorldsConfig) FilterWith(filters ...WorldFilter) *WorldsConfig {
	worlds := c.Worlds()
	for _, filter := range filters {
		worlds = slices.DeleteFunc(worlds, func(w scenario.World) bool {
			return !filter(w)
		})
	}

	return NewWorldsConfig(worlds)
}

// NameFilter matches worlds with one of names. No names match every world.
func NameFilter(names ...string) WorldFilter {
	return func(w scenario.World) bool {
		return len(names) == 0 || slices.Contains(names, w.Name)
	}
}

// NetworkFilter matches worlds on one of networks. No networks match every world.
func NetworkFilter(networks ...string) WorldFilter {
	return func(w scenario.World) bool {
		return len(networks) == 0 || slices.Contains(networks, w.Network)
	}
}

// LoadWorlds reads the worlds manifest at filePath.
func LoadWorlds(filePath string) (*WorldsConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read worlds file: %w", err)
	}

	var cfg WorldsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal worlds YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
