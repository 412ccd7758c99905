package starter

import (
	"errors"
	"strings"
	"testing"

	"starteritems.gg/internal/config"
)

func testConfig(items ...string) config.Config {
	cfg := config.Defaults()
	cfg.StarterItems = items
	cfg.FirstJoinMessages = nil
	return cfg
}

func TestNewKit_Valid(t *testing.T) {
	cfg := testConfig("minecraft:diamond", "5 minecraft:apple")
	cfg.FirstJoinMessages = []config.Message{{Text: "hi", Color: "#47f5af"}, {Text: "plain"}}
	k, err := NewKit("config/starteritems.yaml", cfg, testRegistry)
	if err != nil {
		t.Fatalf("NewKit: %v", err)
	}
	if len(k.Entries) != 2 || !k.HasItems() {
		t.Fatalf("entries = %#v", k.Entries)
	}
	if !k.IsStarterItem("minecraft:apple") || k.IsStarterItem("minecraft:bread") {
		t.Fatalf("starter id set wrong")
	}
	if len(k.FirstJoin) != 2 || !k.FirstJoin[0].HasColor || k.FirstJoin[0].Color != 0x47f5af || k.FirstJoin[1].HasColor {
		t.Fatalf("first join = %#v", k.FirstJoin)
	}
}

func TestNewKit_FormatErrorNamesValueAndPath(t *testing.T) {
	_, err := NewKit("config/starteritems.yaml", testConfig("lots of apples"), testRegistry)
	var fe *ConfigFormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "lots of apples") || !strings.Contains(msg, "config/starteritems.yaml") {
		t.Fatalf("message %q should name the value and the config path", msg)
	}
}

func TestNewKit_BadColor(t *testing.T) {
	cfg := testConfig()
	cfg.WelcomeMessages = []config.Message{{Text: "x", Color: "green"}}
	_, err := NewKit("c.yaml", cfg, testRegistry)
	var fe *ConfigFormatError
	if !errors.As(err, &fe) || fe.Value != "green" || fe.Path != "c.yaml" {
		t.Fatalf("err = %#v", err)
	}
}

func TestNewKit_UnknownItemPolicy(t *testing.T) {
	cfg := testConfig("minecraft:diamond", "mymod:unknown")
	_, err := NewKit("c.yaml", cfg, testRegistry)
	var re *RegistryLookupError
	if !errors.As(err, &re) || re.ItemID != "mymod:unknown" {
		t.Fatalf("fatal policy: err = %v", err)
	}

	cfg.UnknownItemPolicy = config.UnknownItemSkip
	k, err := NewKit("c.yaml", cfg, testRegistry)
	if err != nil {
		t.Fatalf("skip policy: %v", err)
	}
	if len(k.Entries) != 2 || k.Entries[1].Known || !k.Entries[0].Known {
		t.Fatalf("entries = %#v", k.Entries)
	}
	if k.IsStarterItem("mymod:unknown") {
		t.Fatalf("unknown item must not count as a starter item")
	}
}
