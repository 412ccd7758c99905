package world

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the host world configuration, read from world.yaml.
type Config struct {
	ID                 string          `yaml:"id"`
	TickRateHz         int             `yaml:"tick_rate_hz"`
	DefaultDimension   string          `yaml:"default_dimension"`
	Dimensions         []DimensionSpec `yaml:"dimensions"`
	InventorySize      int             `yaml:"inventory_size"`
	MaxTags            int             `yaml:"max_tags"`
	ItemTTLTicks       int             `yaml:"item_ttl_ticks"`
	AutosaveEveryTicks int             `yaml:"autosave_every_ticks"`
}

type DimensionSpec struct {
	ID    string `yaml:"id"`
	Spawn Vec3i  `yaml:"spawn"`
}

const (
	DefaultInventorySize = 36
	DefaultMaxTags       = 1024
)

func DefaultConfig() Config {
	return Config{
		ID:               "world",
		TickRateHz:       20,
		DefaultDimension: "minecraft:overworld",
		Dimensions: []DimensionSpec{
			{ID: "minecraft:overworld", Spawn: Vec3i{X: 0, Y: 64, Z: 0}},
			{ID: "minecraft:the_nether", Spawn: Vec3i{X: 0, Y: 70, Z: 0}},
			{ID: "minecraft:the_end", Spawn: Vec3i{X: 100, Y: 49, Z: 0}},
		},
		InventorySize:      DefaultInventorySize,
		MaxTags:            DefaultMaxTags,
		ItemTTLTicks:       6000,
		AutosaveEveryTicks: 6000,
	}
}

// LoadConfig reads path over the defaults. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		c.ID = "world"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	for i := range c.Dimensions {
		c.Dimensions[i].ID = strings.TrimSpace(c.Dimensions[i].ID)
	}
	c.DefaultDimension = strings.TrimSpace(c.DefaultDimension)
	if c.DefaultDimension == "" && len(c.Dimensions) > 0 {
		c.DefaultDimension = c.Dimensions[0].ID
	}
	if c.InventorySize <= 0 {
		c.InventorySize = DefaultInventorySize
	}
	if c.MaxTags <= 0 {
		c.MaxTags = DefaultMaxTags
	}
	if c.ItemTTLTicks <= 0 {
		c.ItemTTLTicks = 6000
	}
}

func (c Config) Validate() error {
	if len(c.Dimensions) == 0 {
		return fmt.Errorf("dimensions: at least one dimension is required")
	}
	seen := map[string]bool{}
	for i, d := range c.Dimensions {
		if d.ID == "" {
			return fmt.Errorf("dimensions[%d]: empty id", i)
		}
		if seen[d.ID] {
			return fmt.Errorf("dimensions[%d]: duplicate id %q", i, d.ID)
		}
		seen[d.ID] = true
	}
	if !seen[c.DefaultDimension] {
		return fmt.Errorf("default_dimension %q is not a configured dimension", c.DefaultDimension)
	}
	if c.AutosaveEveryTicks < 0 {
		return fmt.Errorf("autosave_every_ticks must be >= 0")
	}
	return nil
}

func (c Config) dimension(id string) (DimensionSpec, bool) {
	for _, d := range c.Dimensions {
		if d.ID == id {
			return d, true
		}
	}
	return DimensionSpec{}, false
}

func (c Config) dimensionIDs() []string {
	out := make([]string, 0, len(c.Dimensions))
	for _, d := range c.Dimensions {
		out = append(out, d.ID)
	}
	return out
}
