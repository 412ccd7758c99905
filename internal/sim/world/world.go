package world

import (
	"context"
	"io"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"starteritems.gg/internal/host"
	"starteritems.gg/internal/protocol"
	"starteritems.gg/internal/session"
	"starteritems.gg/internal/sim/catalogs"
)

// Options wires the world to its collaborators. Every field may be left nil.
type Options struct {
	Bus        *host.Bus
	Sessions   *session.Tracker
	Store      Store
	TickLogger TickLogger
	Logger     *log.Logger
}

// World is a single-threaded authoritative host for player entities.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg  Config
	cats *catalogs.ItemCatalog
	log  *log.Logger

	bus      *host.Bus
	sessions *session.Tracker
	store    Store

	tick atomic.Uint64

	players map[string]*Player
	items   map[string]*ItemEntity

	inbox    chan ActionEnvelope
	join     chan JoinRequest
	leave    chan string
	commands chan commandReq
	stop     chan struct{}
	done     chan struct{}

	nextItemNum atomic.Uint64

	tickLogger TickLogger
	logStarted bool

	// fatal is the first listener error; it stops Run.
	fatal error

	ranCommands []string

	metrics         atomic.Value
	droppedMessages uint64
	saves           uint64
	saveErrors      uint64
}

func New(cfg Config, cats *catalogs.ItemCatalog, opts Options) (*World, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cats == nil {
		cats = catalogs.Defaults()
	}
	if opts.Bus == nil {
		opts.Bus = host.NewBus()
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewTracker()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	w := &World{
		cfg:        cfg,
		cats:       cats,
		log:        opts.Logger,
		bus:        opts.Bus,
		sessions:   opts.Sessions,
		store:      opts.Store,
		tickLogger: opts.TickLogger,
		players:    map[string]*Player{},
		items:      map[string]*ItemEntity{},
		inbox:      make(chan ActionEnvelope, 1024),
		join:       make(chan JoinRequest, 64),
		leave:      make(chan string, 64),
		commands:   make(chan commandReq, 16),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	w.metrics.Store(Metrics{})
	return w, nil
}

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) Bus() *host.Bus                 { return w.bus }
func (w *World) Sessions() *session.Tracker     { return w.sessions }
func (w *World) Catalog() *catalogs.ItemCatalog { return w.cats }
func (w *World) Config() Config                 { return w.cfg }

// CurrentTick is the tick being (or about to be) processed.
func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// Player returns an online player. Call it from the loop goroutine or while
// Run is not active.
func (w *World) Player(id string) *Player { return w.players[id] }

// PlayerByName finds an online player by login name.
func (w *World) PlayerByName(name string) *Player {
	for _, p := range w.players {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (w *World) sortedPlayerIDs() []string {
	ids := make([]string, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *World) welcome(p *Player) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        p.id,
		Name:            p.name,
		Dimension:       p.Dimension,
		WorldParams: protocol.WorldParams{
			TickRateHz:    w.cfg.TickRateHz,
			Dimensions:    w.cfg.dimensionIDs(),
			InventorySize: w.cfg.InventorySize,
		},
		ItemPalette: protocol.DigestRef{Digest: w.cats.PaletteDigest, Count: len(w.cats.Palette)},
	}
}

// fail records the first fatal listener error.
func (w *World) fail(err error) {
	if err == nil || w.fatal != nil {
		return
	}
	w.log.Printf("fatal: %v", err)
	w.fatal = err
}

func (w *World) savePlayer(p *Player) {
	if w.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.store.Save(ctx, p.record()); err != nil {
		w.saveErrors++
		w.log.Printf("save player %s (%s): %v", p.name, p.id, err)
		return
	}
	w.saves++
}

func (w *World) saveAll() {
	for _, id := range w.sortedPlayerIDs() {
		w.savePlayer(w.players[id])
	}
}
