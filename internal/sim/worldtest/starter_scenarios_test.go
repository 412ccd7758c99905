package worldtest

import (
	"testing"

	"starteritems.gg/internal/config"
	"starteritems.gg/internal/host"
	"starteritems.gg/internal/item"
	world "starteritems.gg/internal/sim/world"
	"starteritems.gg/internal/starter"
)

func kitConfig(items ...string) config.Config {
	cfg := config.Defaults()
	cfg.StarterItems = items
	cfg.FirstJoinMessages = nil
	return cfg
}

func TestFreshJoin_GrantsItemsAndTag(t *testing.T) {
	h := NewHarness(t, kitConfig("minecraft:diamond", "5 minecraft:apple"), nil)
	id := h.Join("alice")

	inv := h.LastInventory(id)
	if CountItem(inv, "minecraft:diamond") != 1 || CountItem(inv, "minecraft:apple") != 5 {
		t.Fatalf("inventory = %#v", inv.Slots)
	}
	if !h.W.Player(id).HasTag(starter.JoinedTag) {
		t.Fatalf("joined tag missing")
	}
	if n := len(h.Chats(id)); n != 0 {
		t.Fatalf("expected no chat, got %d", n)
	}
}

func TestDimensionReload_NoDuplicateMessages(t *testing.T) {
	cfg := kitConfig("minecraft:diamond")
	cfg.FirstJoinMessages = []config.Message{{Text: "Welcome to the Oasis!", Color: "#47f5af"}}
	cfg.WelcomeMessages = []config.Message{{Text: "Welcome back"}}
	h := NewHarness(t, cfg, nil)
	id := h.Join("alice")

	h.ChangeDimension(id, "minecraft:the_nether")
	h.ChangeDimension(id, "minecraft:overworld")

	chats := h.Chats(id)
	if len(chats) != 1 || chats[0].Text != "Welcome to the Oasis!" || chats[0].Color != "#47f5af" {
		t.Fatalf("chats = %#v", chats)
	}
	if CountItem(h.LastInventory(id), "minecraft:diamond") != 1 {
		t.Fatalf("items granted more than once")
	}
}

func TestReconnect_WelcomeBackOncePerSession(t *testing.T) {
	cfg := kitConfig("minecraft:diamond")
	cfg.WelcomeMessages = []config.Message{{Text: "Welcome back", Color: "16074611"}}
	h := NewHarness(t, cfg, nil)
	id := h.Join("alice")
	h.Leave(id)

	if !h.Store.Recs[id].HasTag(starter.JoinedTag) {
		t.Fatalf("joined tag not persisted")
	}

	id = h.Join("alice")
	h.ChangeDimension(id, "minecraft:the_end")
	chats := h.Chats(id)
	if len(chats) != 1 || chats[0].Text != "Welcome back" || chats[0].Color != "#f54773" {
		t.Fatalf("chats = %#v", chats)
	}
	if CountItem(h.LastInventory(id), "minecraft:diamond") != 1 {
		t.Fatalf("items granted again on reconnect")
	}
	kinds := h.Grants.Kinds()
	if len(kinds) != 2 || kinds[0] != starter.GrantFirstJoin || kinds[1] != starter.GrantWelcome {
		t.Fatalf("grant kinds = %v", kinds)
	}
}

func TestClearInventory_SweepsOtherPluginItems(t *testing.T) {
	cfg := kitConfig("minecraft:diamond")
	cfg.ClearInventoryBeforeGivingItems = true
	injected := false
	h := NewHarness(t, cfg, func(bus *host.Bus) {
		bus.OnEntityLoad(host.PhaseDefault, func(e host.Entity, _ string) error {
			st := item.Stack{Item: "minecraft:compass", Count: 1}
			e.(*world.Player).Inventory().Insert(&st)
			return nil
		})
		// A plugin that hands out an item during the first tick, after the
		// starter load hook has already run.
		bus.OnPlayerTickEnd(func(e host.Entity, _ uint64) error {
			if !injected {
				injected = true
				st := item.Stack{Item: "minecraft:map", Count: 1}
				e.(*world.Player).Inventory().Insert(&st)
			}
			return nil
		})
	})
	id := h.Join("alice")

	inv := h.LastInventory(id)
	if CountItem(inv, "minecraft:compass") != 0 || CountItem(inv, "minecraft:map") != 0 || CountItem(inv, "minecraft:diamond") != 1 {
		t.Fatalf("inventory after first tick = %#v", inv.Slots)
	}

	// The sweep is one-shot: later loads keep what other plugins add.
	h.ChangeDimension(id, "minecraft:the_nether")
	inv = h.LastInventory(id)
	if CountItem(inv, "minecraft:compass") != 1 || CountItem(inv, "minecraft:map") != 0 || CountItem(inv, "minecraft:diamond") != 1 {
		t.Fatalf("inventory after reload = %#v", inv.Slots)
	}
}

func TestFullInventory_DropsInWorld(t *testing.T) {
	h := NewHarness(t, kitConfig("40 minecraft:iron_sword"), nil)
	id := h.Join("alice")

	if n := CountItem(h.LastInventory(id), "minecraft:iron_sword"); n != world.DefaultInventorySize {
		t.Fatalf("swords in inventory = %d", n)
	}
	ents := h.W.ItemEntities()
	if len(ents) != 1 || ents[0].Stack.Count != 40-world.DefaultInventorySize {
		t.Fatalf("dropped = %#v", ents)
	}
}

func TestStartCommands_RunAgainstWorld(t *testing.T) {
	cfg := kitConfig()
	cfg.ServerStartCommands = []string{"say Server started", "bogus command", "tag nobody add x"}
	h := NewHarness(t, cfg, nil)
	if ok := h.Plugin.RunStartCommands(execRunner{h.W}); ok != 1 {
		t.Fatalf("ok = %d, want 1", ok)
	}
}

// execRunner runs commands synchronously; the harness never starts Run.
type execRunner struct{ w *world.World }

func (r execRunner) RunCommand(cmd string) error { return r.w.ExecCommand(cmd) }
