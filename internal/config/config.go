package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	UnknownItemFatal = "fatal"
	UnknownItemSkip  = "skip"

	InventoryFullDrop  = "drop"
	InventoryFullAbort = "abort"
)

type Config struct {
	ClearInventoryBeforeGivingItems bool `yaml:"clear_inventory_before_giving_items" doc:"Set to true to clear the player's inventory before adding the starter items. [default = false]\nUseful when other plugins add their own items on first join: the join hook runs after theirs,\nclears the inventory, and a second sweep at the end of the first tick removes anything\nthat is not a starter item."`

	StarterItems []string `yaml:"starter_items" doc:"Items given to a player the first time they join the world.\nFormat: [count] <item id> [{nbt}]. The count defaults to 1 and bare ids use the minecraft namespace.\nExample:\n  starter_items:\n    - minecraft:diamond\n    - \"minecraft:iron_sword {Damage:10}\"\n    - 5 minecraft:apple\n    - 20 minecraft:bread"`

	FirstJoinMessages []Message `yaml:"first_join_messages" doc:"Messages sent to a player on their first join, one chat line each.\nEach entry has a required 'text' and an optional 'color' (\"#RRGGBB\" or an RGB decimal)."`

	WelcomeMessages []Message `yaml:"welcome_messages" doc:"Messages sent when a returning player logs in. Sent once per login session;\nchanging dimensions does not repeat them. Same format as first_join_messages."`

	ServerStartCommands []string `yaml:"server_start_commands" doc:"Server commands run once, in order, when the server starts. Failures are logged."`

	UnknownItemPolicy string `yaml:"unknown_item_policy" doc:"What to do with a starter item id missing from the item registry. [default = fatal]\n  fatal: refuse to start\n  skip:  log an error and skip the item on every grant"`

	InventoryFullPolicy string `yaml:"inventory_full_policy" doc:"What to do when a starter item does not fit in the inventory. [default = drop]\n  drop:  drop the remainder at the player's feet\n  abort: log an error and stop granting further items"`

	DelayedClearTicks int `yaml:"delayed_clear_ticks" doc:"Ticks after the first join at which the non-starter item sweep runs when\nclear_inventory_before_giving_items is true. [default = 1]"`
}

type Message struct {
	Text  string `yaml:"text"`
	Color string `yaml:"color,omitempty"`
}

func Defaults() Config {
	return Config{
		ClearInventoryBeforeGivingItems: false,
		StarterItems:                    []string{},
		FirstJoinMessages: []Message{
			{Text: "Welcome to the Oasis!", Color: "#47f5af"},
			{Text: "Ready Player One?", Color: "16074611"},
		},
		WelcomeMessages:     []Message{},
		ServerStartCommands: []string{},
		UnknownItemPolicy:   UnknownItemFatal,
		InventoryFullPolicy: InventoryFullDrop,
		DelayedClearTicks:   1,
	}
}

// Load reads the config file at path over the defaults. Keys absent from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := validateSchema(b); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
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

// Ensure writes the commented default file when path does not exist yet.
func Ensure(path string) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := WriteDefault(path); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Config) Normalize() {
	c.UnknownItemPolicy = strings.ToLower(strings.TrimSpace(c.UnknownItemPolicy))
	if c.UnknownItemPolicy == "" {
		c.UnknownItemPolicy = UnknownItemFatal
	}
	c.InventoryFullPolicy = strings.ToLower(strings.TrimSpace(c.InventoryFullPolicy))
	if c.InventoryFullPolicy == "" {
		c.InventoryFullPolicy = InventoryFullDrop
	}
	if c.DelayedClearTicks <= 0 {
		c.DelayedClearTicks = 1
	}
	for i := range c.FirstJoinMessages {
		c.FirstJoinMessages[i].Color = strings.TrimSpace(c.FirstJoinMessages[i].Color)
	}
	for i := range c.WelcomeMessages {
		c.WelcomeMessages[i].Color = strings.TrimSpace(c.WelcomeMessages[i].Color)
	}
	cmds := c.ServerStartCommands[:0]
	for _, cmd := range c.ServerStartCommands {
		cmd = strings.TrimPrefix(strings.TrimSpace(cmd), "/")
		if cmd != "" {
			cmds = append(cmds, cmd)
		}
	}
	c.ServerStartCommands = cmds
}

// Validate checks field-level constraints. Starter item lines and message
// colors are validated by the starter package, which owns their grammar.
func (c Config) Validate() error {
	switch c.UnknownItemPolicy {
	case UnknownItemFatal, UnknownItemSkip:
	default:
		return fmt.Errorf("unknown_item_policy: %q is not one of fatal, skip", c.UnknownItemPolicy)
	}
	switch c.InventoryFullPolicy {
	case InventoryFullDrop, InventoryFullAbort:
	default:
		return fmt.Errorf("inventory_full_policy: %q is not one of drop, abort", c.InventoryFullPolicy)
	}
	if c.DelayedClearTicks < 1 {
		return fmt.Errorf("delayed_clear_ticks must be >= 1")
	}
	return nil
}

const fileHeader = `starteritems configuration.
Edit and restart the server to apply. Delete this file to regenerate defaults.`

// WriteDefault renders the default config as YAML with every key documented.
func WriteDefault(path string) error {
	var doc yaml.Node
	if err := doc.Encode(Defaults()); err != nil {
		return err
	}
	docs := fieldDocs()
	doc.HeadComment = fileHeader
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		if d, ok := docs[key.Value]; ok {
			key.HeadComment = d
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func fieldDocs() map[string]string {
	out := map[string]string{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if d := f.Tag.Get("doc"); name != "" && d != "" {
			out[name] = d
		}
	}
	return out
}
