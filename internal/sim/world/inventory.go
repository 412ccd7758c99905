package world

import (
	"starteritems.gg/internal/item"
	"starteritems.gg/internal/nbt"
	"starteritems.gg/internal/persistence/playerdb"
)

// Inventory is a fixed-size slot container. Per-item stack limits come from
// the item catalog. version increases on every mutation so the world knows
// when to resend the client's view.
type Inventory struct {
	slots    []item.Stack
	maxStack func(id string) int
	version  uint64
}

func NewInventory(size int, maxStack func(id string) int) *Inventory {
	if maxStack == nil {
		maxStack = func(string) int { return 64 }
	}
	return &Inventory{slots: make([]item.Stack, size), maxStack: maxStack}
}

func (inv *Inventory) Size() int { return len(inv.slots) }

func (inv *Inventory) At(slot int) item.Stack {
	if slot < 0 || slot >= len(inv.slots) {
		return item.Stack{}
	}
	return inv.slots[slot]
}

func (inv *Inventory) RemoveAt(slot int) item.Stack {
	if slot < 0 || slot >= len(inv.slots) {
		return item.Stack{}
	}
	s := inv.slots[slot]
	if s.Empty() {
		return item.Stack{}
	}
	inv.slots[slot] = item.Stack{}
	inv.version++
	return s
}

func (inv *Inventory) Clear() {
	for i := range inv.slots {
		inv.slots[i] = item.Stack{}
	}
	inv.version++
}

// Insert tops up matching stacks first, then fills empty slots in order.
func (inv *Inventory) Insert(s *item.Stack) bool {
	if s == nil || s.Empty() {
		return true
	}
	limit := inv.maxStack(s.Item)
	if limit < 1 {
		limit = 1
	}
	before := s.Count
	for i := range inv.slots {
		if s.Count == 0 {
			break
		}
		cur := &inv.slots[i]
		if cur.Empty() || !cur.CanMerge(*s) || cur.Count >= limit {
			continue
		}
		n := min(limit-cur.Count, s.Count)
		cur.Count += n
		s.Count -= n
	}
	for i := range inv.slots {
		if s.Count == 0 {
			break
		}
		if !inv.slots[i].Empty() {
			continue
		}
		n := min(limit, s.Count)
		inv.slots[i] = item.Stack{Item: s.Item, Count: n, NBT: s.NBT}
		s.Count -= n
	}
	if s.Count != before {
		inv.version++
	}
	return s.Count == 0
}

// Count totals every stack of id.
func (inv *Inventory) Count(id string) int {
	n := 0
	for _, s := range inv.slots {
		if !s.Empty() && s.Item == id {
			n += s.Count
		}
	}
	return n
}

func (inv *Inventory) Version() uint64 { return inv.version }

// Slots returns the non-empty slots in save form.
func (inv *Inventory) Slots() []playerdb.Slot {
	out := []playerdb.Slot{}
	for i, s := range inv.slots {
		if s.Empty() {
			continue
		}
		slot := playerdb.Slot{Slot: i, Item: s.Item, Count: s.Count}
		if s.NBT.Len() > 0 {
			slot.NBT = s.NBT.String()
		}
		out = append(out, slot)
	}
	return out
}

// restore loads saved slots. Slots outside the inventory and tags that no
// longer parse are reported through bad and skipped.
func (inv *Inventory) restore(slots []playerdb.Slot, bad func(playerdb.Slot, error)) {
	for i := range inv.slots {
		inv.slots[i] = item.Stack{}
	}
	for _, s := range slots {
		if s.Slot < 0 || s.Slot >= len(inv.slots) || s.Item == "" || s.Count <= 0 {
			bad(s, nil)
			continue
		}
		st := item.Stack{Item: s.Item, Count: s.Count}
		if s.NBT != "" {
			tag, err := nbt.Parse(s.NBT)
			if err != nil {
				bad(s, err)
			} else {
				st.NBT = tag
			}
		}
		inv.slots[s.Slot] = st
	}
	inv.version++
}
