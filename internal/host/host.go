// Package host is the callback surface a world exposes to plugins.
//
// Dispatch is synchronous on the caller's goroutine, in phase order and then
// registration order. A listener error stops dispatch and is returned to the
// world, which decides whether it is fatal.
package host

import "sync"

type Phase int

const (
	PhaseDefault Phase = iota
	// PhaseLate runs after every PhaseDefault listener.
	PhaseLate

	numPhases
)

// Entity is anything the world loads. Plugins narrow it to the capabilities
// they need.
type Entity interface {
	EntityID() string
}

type (
	EntityLoadFunc func(e Entity, dimension string) error
	DisconnectFunc func(e Entity) error
	TickEndFunc    func(e Entity, tick uint64) error
)

// CommandRunner executes a server console command.
type CommandRunner interface {
	RunCommand(cmd string) error
}

type Bus struct {
	mu         sync.RWMutex
	load       [numPhases][]EntityLoadFunc
	disconnect []DisconnectFunc
	tickEnd    []TickEndFunc
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) OnEntityLoad(phase Phase, fn EntityLoadFunc) {
	if phase < 0 || phase >= numPhases {
		phase = PhaseDefault
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.load[phase] = append(b.load[phase], fn)
}

func (b *Bus) OnDisconnect(fn DisconnectFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnect = append(b.disconnect, fn)
}

func (b *Bus) OnPlayerTickEnd(fn TickEndFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickEnd = append(b.tickEnd, fn)
}

func (b *Bus) FireEntityLoad(e Entity, dimension string) error {
	b.mu.RLock()
	var fns []EntityLoadFunc
	for _, phase := range b.load {
		fns = append(fns, phase...)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		if err := fn(e, dimension); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) FireDisconnect(e Entity) error {
	b.mu.RLock()
	fns := append([]DisconnectFunc(nil), b.disconnect...)
	b.mu.RUnlock()
	for _, fn := range fns {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) FirePlayerTickEnd(e Entity, tick uint64) error {
	b.mu.RLock()
	fns := append([]TickEndFunc(nil), b.tickEnd...)
	b.mu.RUnlock()
	for _, fn := range fns {
		if err := fn(e, tick); err != nil {
			return err
		}
	}
	return nil
}
