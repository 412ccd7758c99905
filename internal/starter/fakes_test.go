package starter

import (
	"starteritems.gg/internal/chat"
	"starteritems.gg/internal/item"
)

type fakeRegistry map[string]bool

func (r fakeRegistry) Contains(id string) bool { return r[id] }

var testRegistry = fakeRegistry{
	"minecraft:diamond":    true,
	"minecraft:apple":      true,
	"minecraft:iron_sword": true,
	"minecraft:bread":      true,
}

// slotInventory is a fixed-size inventory with a 64 item stack limit.
type slotInventory struct {
	slots []item.Stack
}

func newInventory(size int) *slotInventory {
	return &slotInventory{slots: make([]item.Stack, size)}
}

func (inv *slotInventory) Size() int             { return len(inv.slots) }
func (inv *slotInventory) At(slot int) item.Stack { return inv.slots[slot] }
func (inv *slotInventory) Clear()                 { inv.slots = make([]item.Stack, len(inv.slots)) }

func (inv *slotInventory) RemoveAt(slot int) item.Stack {
	s := inv.slots[slot]
	inv.slots[slot] = item.Stack{}
	return s
}

func (inv *slotInventory) Insert(s *item.Stack) bool {
	for i := range inv.slots {
		if s.Count == 0 {
			break
		}
		cur := &inv.slots[i]
		if !cur.Empty() && cur.CanMerge(*s) && cur.Count < 64 {
			n := min(64-cur.Count, s.Count)
			cur.Count += n
			s.Count -= n
		}
	}
	for i := range inv.slots {
		if s.Count == 0 {
			break
		}
		if inv.slots[i].Empty() {
			n := min(64, s.Count)
			inv.slots[i] = item.Stack{Item: s.Item, Count: n, NBT: s.NBT}
			s.Count -= n
		}
	}
	return s.Count == 0
}

func (inv *slotInventory) count(id string) int {
	n := 0
	for _, s := range inv.slots {
		if s.Item == id {
			n += s.Count
		}
	}
	return n
}

type fakePlayer struct {
	id       string
	tags     map[string]bool
	maxTags  int
	inv      *slotInventory
	messages []chat.Message
	dropped  []item.Stack
}

func newPlayer(id string) *fakePlayer {
	return &fakePlayer{id: id, tags: map[string]bool{}, maxTags: 1024, inv: newInventory(36)}
}

func (p *fakePlayer) EntityID() string          { return "player:" + p.id }
func (p *fakePlayer) PlayerID() string          { return p.id }
func (p *fakePlayer) Name() string              { return "name-" + p.id }
func (p *fakePlayer) HasTag(tag string) bool    { return p.tags[tag] }
func (p *fakePlayer) Inventory() item.Inventory { return p.inv }
func (p *fakePlayer) SendMessage(m chat.Message) {
	p.messages = append(p.messages, m)
}
func (p *fakePlayer) Drop(s item.Stack) { p.dropped = append(p.dropped, s) }

func (p *fakePlayer) AddTag(tag string) bool {
	if len(p.tags) >= p.maxTags {
		return false
	}
	p.tags[tag] = true
	return true
}

type memRecorder struct {
	records []GrantRecord
}

func (r *memRecorder) RecordGrant(g GrantRecord) error {
	r.records = append(r.records, g)
	return nil
}

type fixedClock uint64

func (c *fixedClock) CurrentTick() uint64 { return uint64(*c) }

type zombie struct{}

func (zombie) EntityID() string { return "zombie:1" }
