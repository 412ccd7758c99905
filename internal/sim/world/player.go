package world

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"starteritems.gg/internal/chat"
	"starteritems.gg/internal/item"
	"starteritems.gg/internal/persistence/playerdb"
	"starteritems.gg/internal/protocol"
)

// OfflinePlayerID derives a stable player id from the login name.
func OfflinePlayerID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("OfflinePlayer:"+name)).String()
}

// Player is a connected player entity. All methods must be called from the
// world loop goroutine.
type Player struct {
	w *World

	id   string
	name string

	Dimension string
	Pos       Vec3i

	tags    map[string]struct{}
	maxTags int

	inv *Inventory

	out      chan []byte
	pending  [][]byte
	sentInv  uint64
	forceInv bool
}

func (w *World) newPlayer(id, name string, out chan []byte) *Player {
	spawn, _ := w.cfg.dimension(w.cfg.DefaultDimension)
	return &Player{
		w:         w,
		id:        id,
		name:      name,
		Dimension: spawn.ID,
		Pos:       spawn.Spawn,
		tags:      map[string]struct{}{},
		maxTags:   w.cfg.MaxTags,
		inv:       NewInventory(w.cfg.InventorySize, w.cats.MaxStack),
		out:       out,
		forceInv:  true,
	}
}

func (p *Player) EntityID() string { return "player:" + p.id }
func (p *Player) PlayerID() string { return p.id }
func (p *Player) Name() string     { return p.name }

func (p *Player) HasTag(tag string) bool {
	_, ok := p.tags[tag]
	return ok
}

// AddTag stores tag. It reports false when the tag set is full.
func (p *Player) AddTag(tag string) bool {
	if p.HasTag(tag) {
		return true
	}
	if len(p.tags) >= p.maxTags {
		return false
	}
	p.tags[tag] = struct{}{}
	return true
}

func (p *Player) RemoveTag(tag string) bool {
	if !p.HasTag(tag) {
		return false
	}
	delete(p.tags, tag)
	return true
}

func (p *Player) Tags() []string {
	out := make([]string, 0, len(p.tags))
	for t := range p.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (p *Player) Inventory() item.Inventory { return p.inv }

// Items exposes the concrete inventory for host-side callers.
func (p *Player) Items() *Inventory { return p.inv }

func (p *Player) SendMessage(m chat.Message) {
	p.queue(protocol.ChatMsg{
		Type:            protocol.TypeChat,
		ProtocolVersion: protocol.Version,
		Tick:            p.w.tick.Load(),
		Text:            m.Text,
		Color:           m.Hex(),
	})
}

// Drop spawns s as an item entity at the player's feet.
func (p *Player) Drop(s item.Stack) {
	p.w.spawnItemEntity(p.w.tick.Load(), p.Dimension, p.Pos, s)
}

func (p *Player) sendError(code, msg string) {
	p.queue(protocol.NewError(code, msg))
}

func (p *Player) queue(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	p.pending = append(p.pending, b)
}

// flush sends the inventory view when it changed, then queued messages.
// Messages that do not fit the client queue are dropped and counted.
func (p *Player) flush(nowTick uint64) (dropped int) {
	if p.forceInv || p.inv.Version() != p.sentInv {
		p.forceInv = false
		p.sentInv = p.inv.Version()
		p.queue(p.inventoryMsg(nowTick))
	}
	if p.out == nil {
		p.pending = p.pending[:0]
		return 0
	}
	for _, b := range p.pending {
		select {
		case p.out <- b:
		default:
			dropped++
		}
	}
	p.pending = p.pending[:0]
	return dropped
}

func (p *Player) inventoryMsg(nowTick uint64) protocol.InventoryMsg {
	slots := p.inv.Slots()
	msg := protocol.InventoryMsg{
		Type:            protocol.TypeInventory,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		Dimension:       p.Dimension,
		Slots:           make([]protocol.InventorySlot, 0, len(slots)),
	}
	for _, s := range slots {
		msg.Slots = append(msg.Slots, protocol.InventorySlot{Slot: s.Slot, Item: s.Item, Count: s.Count, NBT: s.NBT})
	}
	return msg
}

func (p *Player) record() playerdb.Record {
	return playerdb.Record{
		ID:        p.id,
		Name:      p.name,
		Dimension: p.Dimension,
		Tags:      p.Tags(),
		Inventory: p.inv.Slots(),
		UpdatedAt: time.Now().UTC(),
	}
}

func (p *Player) restore(rec playerdb.Record) {
	if spec, ok := p.w.cfg.dimension(rec.Dimension); ok {
		p.Dimension = spec.ID
		p.Pos = spec.Spawn
	}
	for _, t := range rec.Tags {
		p.tags[t] = struct{}{}
	}
	p.inv.restore(rec.Inventory, func(s playerdb.Slot, err error) {
		if err != nil {
			p.w.log.Printf("player %s: slot %d: dropping unreadable tag on %s: %v", p.id, s.Slot, s.Item, err)
			return
		}
		p.w.log.Printf("player %s: skipping invalid saved slot %d (%s x%d)", p.id, s.Slot, s.Item, s.Count)
	})
}
