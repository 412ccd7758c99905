package worldtest

import (
	"context"
	"encoding/json"
	"testing"

	"starteritems.gg/internal/config"
	"starteritems.gg/internal/host"
	"starteritems.gg/internal/persistence/playerdb"
	"starteritems.gg/internal/protocol"
	"starteritems.gg/internal/session"
	"starteritems.gg/internal/sim/catalogs"
	world "starteritems.gg/internal/sim/world"
	"starteritems.gg/internal/starter"
)

// Harness drives a world with the starter plugin registered, through the
// world's exported step API:
// - Join()/Leave() issue requests via StepOnce()
// - per-player Out channels carry CHAT/INVENTORY/ERROR JSON
// - player saves live in an in-memory store that survives Leave
type Harness struct {
	T      *testing.T
	W      *world.World
	Plugin *starter.Plugin
	Store  *MemStore
	Grants *MemRecorder

	clients map[string]*client
}

type client struct {
	Out  chan []byte
	Msgs []json.RawMessage
}

// NewHarness builds a world using the default world config and catalog.
// register runs before the starter plugin registers, so tests can add
// competing plugins.
func NewHarness(t *testing.T, cfg config.Config, register func(bus *host.Bus)) *Harness {
	t.Helper()

	cats := catalogs.Defaults()
	kit, err := starter.NewKit("starteritems.yaml", cfg, cats)
	if err != nil {
		t.Fatalf("NewKit: %v", err)
	}

	bus := host.NewBus()
	if register != nil {
		register(bus)
	}
	sessions := session.NewTracker()
	store := NewMemStore()
	wcfg := world.DefaultConfig()
	wcfg.AutosaveEveryTicks = 0
	w, err := world.New(wcfg, cats, world.Options{Bus: bus, Sessions: sessions, Store: store})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}

	grants := &MemRecorder{}
	plugin := starter.NewPlugin(starter.NewDispenser(kit, nil, grants), sessions, w, nil)
	plugin.Register(bus)

	return &Harness{T: t, W: w, Plugin: plugin, Store: store, Grants: grants, clients: map[string]*client{}}
}

func (h *Harness) Join(name string) string {
	h.T.Helper()
	out := make(chan []byte, 256)
	resp := make(chan world.JoinResponse, 1)
	if _, err := h.W.StepOnce([]world.JoinRequest{{Name: name, Out: out, Resp: resp}}, nil, nil); err != nil {
		h.T.Fatalf("join %s: %v", name, err)
	}
	jr := <-resp
	if jr.Err != nil {
		h.T.Fatalf("join %s refused: %v", name, jr.Err)
	}
	h.clients[jr.Welcome.PlayerID] = &client{Out: out}
	h.drain()
	return jr.Welcome.PlayerID
}

func (h *Harness) Leave(id string) {
	h.T.Helper()
	if _, err := h.W.StepOnce(nil, []string{id}, nil); err != nil {
		h.T.Fatalf("leave: %v", err)
	}
	h.drain()
	delete(h.clients, id)
}

func (h *Harness) ChangeDimension(id, dim string) {
	h.T.Helper()
	act := protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Action: protocol.ActionChangeDimension, Dimension: dim}
	if _, err := h.W.StepOnce(nil, nil, []world.ActionEnvelope{{PlayerID: id, Act: act}}); err != nil {
		h.T.Fatalf("change dimension: %v", err)
	}
	h.drain()
}

func (h *Harness) StepNoop() {
	h.T.Helper()
	if _, err := h.W.StepOnce(nil, nil, nil); err != nil {
		h.T.Fatalf("step: %v", err)
	}
	h.drain()
}

// Chats returns every CHAT text the player has received so far.
func (h *Harness) Chats(id string) []protocol.ChatMsg {
	h.T.Helper()
	c := h.clients[id]
	if c == nil {
		h.T.Fatalf("unknown player id: %q", id)
	}
	var out []protocol.ChatMsg
	for _, raw := range c.Msgs {
		base, _ := protocol.DecodeBase(raw)
		if base.Type != protocol.TypeChat {
			continue
		}
		var m protocol.ChatMsg
		_ = json.Unmarshal(raw, &m)
		out = append(out, m)
	}
	return out
}

// LastInventory returns the most recent INVENTORY the player received.
func (h *Harness) LastInventory(id string) protocol.InventoryMsg {
	h.T.Helper()
	c := h.clients[id]
	if c == nil {
		h.T.Fatalf("unknown player id: %q", id)
	}
	var last protocol.InventoryMsg
	for _, raw := range c.Msgs {
		base, _ := protocol.DecodeBase(raw)
		if base.Type == protocol.TypeInventory {
			_ = json.Unmarshal(raw, &last)
		}
	}
	return last
}

func (h *Harness) drain() {
	for _, c := range h.clients {
		for {
			select {
			case b := <-c.Out:
				c.Msgs = append(c.Msgs, json.RawMessage(b))
				continue
			default:
			}
			break
		}
	}
}

// CountItem totals id across an inventory view.
func CountItem(inv protocol.InventoryMsg, id string) int {
	n := 0
	for _, s := range inv.Slots {
		if s.Item == id {
			n += s.Count
		}
	}
	return n
}

type MemStore struct {
	Recs map[string]playerdb.Record
}

func NewMemStore() *MemStore { return &MemStore{Recs: map[string]playerdb.Record{}} }

func (s *MemStore) Load(_ context.Context, id string) (playerdb.Record, bool, error) {
	r, ok := s.Recs[id]
	return r, ok, nil
}

func (s *MemStore) Save(_ context.Context, rec playerdb.Record) error {
	s.Recs[rec.ID] = rec
	return nil
}

type MemRecorder struct {
	Records []starter.GrantRecord
}

func (r *MemRecorder) RecordGrant(g starter.GrantRecord) error {
	r.Records = append(r.Records, g)
	return nil
}

func (r *MemRecorder) Kinds() []string {
	out := make([]string, 0, len(r.Records))
	for _, g := range r.Records {
		out = append(out, g.Kind)
	}
	return out
}
