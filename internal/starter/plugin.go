package starter

import (
	"log"

	"starteritems.gg/internal/host"
	"starteritems.gg/internal/session"
)

// Clock reports the host's current tick.
type Clock interface {
	CurrentTick() uint64
}

// Plugin adapts host events to the dispenser. Entities that do not satisfy
// Player are ignored.
type Plugin struct {
	d        *Dispenser
	sessions *session.Tracker
	clock    Clock
	log      *log.Logger
}

func NewPlugin(d *Dispenser, sessions *session.Tracker, clock Clock, logger *log.Logger) *Plugin {
	if logger == nil {
		logger = d.log
	}
	return &Plugin{d: d, sessions: sessions, clock: clock, log: logger}
}

// Register subscribes the plugin. With inventory clearing enabled the load
// hook joins the late phase so it runs after other plugins' load hooks.
func (pl *Plugin) Register(bus *host.Bus) {
	phase := host.PhaseDefault
	if pl.d.kit.ClearInventory {
		phase = host.PhaseLate
	}
	bus.OnEntityLoad(phase, pl.onEntityLoad)
	bus.OnDisconnect(pl.onDisconnect)
	if pl.d.kit.ClearInventory && pl.d.kit.HasItems() {
		bus.OnPlayerTickEnd(pl.onTickEnd)
	}
}

func (pl *Plugin) onEntityLoad(e host.Entity, dimension string) error {
	p, ok := e.(Player)
	if !ok {
		return nil
	}
	sess, ok := pl.sessions.Lookup(p.PlayerID())
	if !ok {
		sess = pl.sessions.Open(p.PlayerID())
	}
	return pl.d.OnPlayerLoad(sess, p, pl.clock.CurrentTick())
}

func (pl *Plugin) onDisconnect(e host.Entity) error {
	if p, ok := e.(Player); ok {
		pl.d.OnDisconnect(pl.sessions, p)
	}
	return nil
}

func (pl *Plugin) onTickEnd(e host.Entity, tick uint64) error {
	p, ok := e.(Player)
	if !ok {
		return nil
	}
	if sess, ok := pl.sessions.Lookup(p.PlayerID()); ok {
		pl.d.OnTickEnd(sess, p, tick)
	}
	return nil
}

// RunStartCommands executes the kit's server start commands once, in order.
// Failures are logged and do not stop later commands.
func (pl *Plugin) RunStartCommands(runner host.CommandRunner) (ok int) {
	for _, cmd := range pl.d.kit.Commands {
		if err := runner.RunCommand(cmd); err != nil {
			pl.log.Printf("server start command %q: %v", cmd, err)
			continue
		}
		pl.log.Printf("ran server start command %q", cmd)
		ok++
	}
	return ok
}
