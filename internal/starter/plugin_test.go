package starter

import (
	"errors"
	"testing"

	"starteritems.gg/internal/host"
	"starteritems.gg/internal/item"
	"starteritems.gg/internal/session"
)

func newPluginEnv(t *testing.T, clear bool, items ...string) (*Plugin, *host.Bus, *session.Tracker, *fixedClock) {
	t.Helper()
	cfg := testConfig(items...)
	cfg.ClearInventoryBeforeGivingItems = clear
	d, _ := newDispenser(t, cfg)
	sessions := session.NewTracker()
	clock := new(fixedClock)
	pl := NewPlugin(d, sessions, clock, nil)
	bus := host.NewBus()
	return pl, bus, sessions, clock
}

func TestPlugin_LateHookSweepsInjectedItems(t *testing.T) {
	pl, bus, _, clock := newPluginEnv(t, true, "minecraft:diamond")
	pl.Register(bus)
	// Registered after the plugin, but in the default phase.
	bus.OnEntityLoad(host.PhaseDefault, func(e host.Entity, _ string) error {
		p := e.(*fakePlayer)
		p.inv.Insert(&item.Stack{Item: "minecraft:bread", Count: 1})
		return nil
	})

	p := newPlayer("p1")
	*clock = 7
	if err := bus.FireEntityLoad(p, "overworld"); err != nil {
		t.Fatalf("FireEntityLoad: %v", err)
	}
	// The late hook cleared the inventory after the injection.
	if p.inv.count("minecraft:bread") != 0 || p.inv.count("minecraft:diamond") != 1 {
		t.Fatalf("inventory after load = %#v", p.inv.slots[:2])
	}

	// Injection that happens after the late hook is caught at tick end.
	p.inv.Insert(&item.Stack{Item: "minecraft:apple", Count: 3})
	if err := bus.FirePlayerTickEnd(p, 7); err != nil {
		t.Fatalf("FirePlayerTickEnd: %v", err)
	}
	if p.inv.count("minecraft:apple") != 0 || p.inv.count("minecraft:diamond") != 1 {
		t.Fatalf("inventory after sweep = %#v", p.inv.slots[:2])
	}
}

func TestPlugin_DefaultPhaseWithoutClearing(t *testing.T) {
	pl, bus, _, _ := newPluginEnv(t, false, "minecraft:diamond")
	var order []string
	bus.OnEntityLoad(host.PhaseLate, func(host.Entity, string) error {
		order = append(order, "late")
		return nil
	})
	pl.Register(bus)
	bus.OnEntityLoad(host.PhaseDefault, func(host.Entity, string) error {
		order = append(order, "other")
		return nil
	})
	p := newPlayer("p1")
	_ = bus.FireEntityLoad(p, "overworld")
	if p.inv.count("minecraft:diamond") != 1 {
		t.Fatalf("not granted")
	}
	if len(order) != 2 || order[0] != "other" || order[1] != "late" {
		t.Fatalf("order = %v", order)
	}
}

func TestPlugin_IgnoresNonPlayers(t *testing.T) {
	pl, bus, sessions, _ := newPluginEnv(t, true, "minecraft:diamond")
	pl.Register(bus)
	if err := bus.FireEntityLoad(zombie{}, "overworld"); err != nil {
		t.Fatalf("FireEntityLoad: %v", err)
	}
	if err := bus.FireDisconnect(zombie{}); err != nil {
		t.Fatalf("FireDisconnect: %v", err)
	}
	if sessions.Len() != 0 {
		t.Fatalf("session opened for a non-player")
	}
}

func TestPlugin_DisconnectClosesSession(t *testing.T) {
	pl, bus, sessions, _ := newPluginEnv(t, false, "minecraft:diamond")
	pl.Register(bus)
	p := newPlayer("p1")
	_ = bus.FireEntityLoad(p, "overworld")
	_ = bus.FireEntityLoad(p, "the_nether")
	sess, ok := sessions.Lookup("p1")
	if !ok || sess.Loads() != 2 {
		t.Fatalf("session = %#v", sess)
	}
	_ = bus.FireDisconnect(p)
	if _, ok := sessions.Lookup("p1"); ok {
		t.Fatalf("session survived disconnect")
	}
}

func TestPlugin_FatalErrorPropagates(t *testing.T) {
	pl, bus, _, _ := newPluginEnv(t, false, "minecraft:diamond")
	pl.Register(bus)
	p := newPlayer("p1")
	p.maxTags = 0
	err := bus.FireEntityLoad(p, "overworld")
	var iv *InvariantViolation
	if !errors.As(err, &iv) || iv.PlayerID != "p1" {
		t.Fatalf("err = %v", err)
	}
}

type recordingRunner struct {
	ran  []string
	fail map[string]bool
}

func (r *recordingRunner) RunCommand(cmd string) error {
	r.ran = append(r.ran, cmd)
	if r.fail[cmd] {
		return errors.New("unknown command")
	}
	return nil
}

func TestRunStartCommands_InOrderContinuingOnFailure(t *testing.T) {
	cfg := testConfig()
	cfg.ServerStartCommands = []string{"say hello", "bogus", "say bye"}
	d, _ := newDispenser(t, cfg)
	pl := NewPlugin(d, session.NewTracker(), new(fixedClock), nil)

	r := &recordingRunner{fail: map[string]bool{"bogus": true}}
	if ok := pl.RunStartCommands(r); ok != 2 {
		t.Fatalf("ok = %d, want 2", ok)
	}
	if len(r.ran) != 3 || r.ran[0] != "say hello" || r.ran[1] != "bogus" || r.ran[2] != "say bye" {
		t.Fatalf("ran = %v", r.ran)
	}
}
