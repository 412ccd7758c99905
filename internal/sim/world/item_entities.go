package world

import (
	"fmt"
	"sort"

	"starteritems.gg/internal/item"
)

// ItemEntity is a dropped item stack lying in the world.
type ItemEntity struct {
	ID          string
	Dimension   string
	Pos         Vec3i
	Stack       item.Stack
	CreatedTick uint64
	ExpiresTick uint64
}

func (e *ItemEntity) EntityID() string { return e.ID }

func (w *World) newItemEntityID() string {
	n := w.nextItemNum.Add(1)
	return fmt.Sprintf("IT%06d", n)
}

// spawnItemEntity drops s at pos, merging into an existing entity of the same
// item at the same spot.
func (w *World) spawnItemEntity(nowTick uint64, dimension string, pos Vec3i, s item.Stack) string {
	if s.Empty() {
		return ""
	}
	exp := nowTick + uint64(w.cfg.ItemTTLTicks)
	for _, e := range w.items {
		if e.Dimension == dimension && e.Pos == pos && e.Stack.CanMerge(s) {
			e.Stack.Count += s.Count
			if exp > e.ExpiresTick {
				e.ExpiresTick = exp
			}
			return e.ID
		}
	}
	e := &ItemEntity{
		ID:          w.newItemEntityID(),
		Dimension:   dimension,
		Pos:         pos,
		Stack:       *s.Copy(),
		CreatedTick: nowTick,
		ExpiresTick: exp,
	}
	w.items[e.ID] = e
	return e.ID
}

func (w *World) expireItemEntities(nowTick uint64) {
	for id, e := range w.items {
		if nowTick >= e.ExpiresTick {
			delete(w.items, id)
		}
	}
}

// ItemEntities lists dropped items ordered by id. Call it from the loop
// goroutine or while Run is not active.
func (w *World) ItemEntities() []ItemEntity {
	out := make([]ItemEntity, 0, len(w.items))
	for _, e := range w.items {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
