package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"starteritems.gg/internal/item"
)

const DefaultMaxStack = 64

// ItemCatalog is the host item registry.
type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID       string `json:"id"`
	MaxStack int    `json:"max_stack,omitempty"`
}

// Load reads <configDir>/items.json. A missing file yields the built-in palette.
func Load(configDir string) (*ItemCatalog, error) {
	path := filepath.Join(configDir, "items.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, err
	}
	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("items.json: %w", err)
	}
	c, err := build(defs)
	if err != nil {
		return nil, fmt.Errorf("items.json: %w", err)
	}
	c.DefsDigest = sha256Hex(raw)
	return c, nil
}

// Defaults is a small vanilla-like palette used when no items.json exists.
func Defaults() *ItemCatalog {
	var defs []ItemDef
	for _, id := range []string{
		"apple", "bread", "cooked_beef", "diamond", "iron_ingot", "gold_ingot", "coal",
		"oak_log", "oak_planks", "cobblestone", "dirt", "torch", "stick",
		"wooden_pickaxe", "stone_pickaxe", "iron_pickaxe", "wooden_sword", "stone_sword",
		"iron_sword", "diamond_sword", "bow", "shield", "iron_helmet", "iron_chestplate",
		"iron_leggings", "iron_boots", "compass", "map", "written_book",
	} {
		def := ItemDef{ID: item.DefaultNamespace + ":" + id}
		switch id {
		case "wooden_pickaxe", "stone_pickaxe", "iron_pickaxe", "wooden_sword", "stone_sword",
			"iron_sword", "diamond_sword", "bow", "shield", "iron_helmet", "iron_chestplate",
			"iron_leggings", "iron_boots", "compass", "written_book":
			def.MaxStack = 1
		}
		defs = append(defs, def)
	}
	c, _ := build(defs)
	raw, _ := json.Marshal(defs)
	c.DefsDigest = sha256Hex(raw)
	return c
}

func build(defs []ItemDef) (*ItemCatalog, error) {
	out := &ItemCatalog{Defs: map[string]ItemDef{}}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("empty id")
		}
		id, err := item.NormalizeID(d.ID)
		if err != nil {
			return nil, err
		}
		if d.MaxStack < 0 {
			return nil, fmt.Errorf("%s: negative max_stack", id)
		}
		d.ID = id
		out.Defs[id] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return out, nil
}

func (c *ItemCatalog) Contains(id string) bool {
	if c == nil {
		return false
	}
	_, ok := c.Defs[id]
	return ok
}

func (c *ItemCatalog) MaxStack(id string) int {
	if c == nil {
		return DefaultMaxStack
	}
	if d, ok := c.Defs[id]; ok && d.MaxStack > 0 {
		return d.MaxStack
	}
	return DefaultMaxStack
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
