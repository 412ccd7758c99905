package starter

import (
	"errors"
	"io"
	"log"
	"time"

	"starteritems.gg/internal/chat"
	"starteritems.gg/internal/config"
	"starteritems.gg/internal/host"
	"starteritems.gg/internal/item"
	"starteritems.gg/internal/session"
)

// Player is the capability set the dispenser needs from a host player entity.
type Player interface {
	host.Entity
	PlayerID() string
	Name() string
	HasTag(tag string) bool
	// AddTag reports false when the tag could not be stored.
	AddTag(tag string) bool
	Inventory() item.Inventory
	SendMessage(m chat.Message)
	// Drop spawns the stack in the world at the player's position.
	Drop(s item.Stack)
}

const (
	GrantFirstJoin    = "first_join"
	GrantWelcome      = "welcome"
	GrantDelayedClear = "delayed_clear"
)

// GrantRecord is the audit entry for one dispenser action.
type GrantRecord struct {
	Time     time.Time `json:"time"`
	Kind     string    `json:"kind"`
	PlayerID string    `json:"player_id"`
	Name     string    `json:"name"`
	Tick     uint64    `json:"tick"`
	Granted  []string  `json:"granted,omitempty"`
	Dropped  []string  `json:"dropped,omitempty"`
	Removed  []string  `json:"removed,omitempty"`
	Messages int       `json:"messages,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type Recorder interface {
	RecordGrant(GrantRecord) error
}

// Dispenser runs the first-join state machine for one kit.
type Dispenser struct {
	kit *Kit
	log *log.Logger
	rec Recorder
	now func() time.Time
}

func NewDispenser(kit *Kit, logger *log.Logger, rec Recorder) *Dispenser {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Dispenser{kit: kit, log: logger, rec: rec, now: time.Now}
}

func (d *Dispenser) Kit() *Kit { return d.kit }

// OnPlayerLoad handles every load of a player entity. A player without the
// joined tag gets it, the first-join messages and the starter items, exactly
// once for the lifetime of their save. A returning player gets the welcome
// messages on the first load of each login session only.
//
// The only error returned is *InvariantViolation; grant problems are logged.
func (d *Dispenser) OnPlayerLoad(sess *session.Session, p Player, tick uint64) error {
	firstLoad := sess.MarkLoaded()

	if p.HasTag(JoinedTag) {
		if firstLoad && len(d.kit.Welcome) > 0 {
			d.log.Printf("sending welcome messages to %s (%s)", p.Name(), p.PlayerID())
			sendAll(p, d.kit.Welcome)
			d.record(GrantRecord{Kind: GrantWelcome, PlayerID: p.PlayerID(), Name: p.Name(), Tick: tick, Messages: len(d.kit.Welcome)})
		}
		return nil
	}

	d.log.Printf("player %s (%s) is joining the world for the first time", p.Name(), p.PlayerID())
	if !p.AddTag(JoinedTag) {
		return &InvariantViolation{
			PlayerID: p.PlayerID(),
			Msg:      "tag storage is full; cannot record the first join. A different join tracking mechanism is needed",
		}
	}
	sendAll(p, d.kit.FirstJoin)

	rec := GrantRecord{Kind: GrantFirstJoin, PlayerID: p.PlayerID(), Name: p.Name(), Tick: tick, Messages: len(d.kit.FirstJoin)}
	if d.kit.HasItems() {
		if d.kit.ClearInventory {
			d.log.Printf("clearing inventory of %s before giving starter items", p.Name())
			p.Inventory().Clear()
		}
		granted, dropped, err := d.grant(p)
		rec.Granted, rec.Dropped = granted, dropped
		if err != nil {
			d.log.Printf("starter items for %s: %v", p.Name(), err)
			rec.Error = err.Error()
		}
		if d.kit.ClearInventory {
			sess.ScheduleClear(tick + uint64(d.kit.ClearDelay) - 1)
		}
	}
	d.record(rec)
	return nil
}

// grant inserts fresh copies of the kit stacks in configured order.
func (d *Dispenser) grant(p Player) (granted, dropped []string, err error) {
	inv := p.Inventory()
	for i, e := range d.kit.Entries {
		if !e.Known {
			d.log.Printf("skipping starter item for %s: %v", p.Name(), &RegistryLookupError{Path: d.kit.Path, ItemID: e.Spec.ItemID, Line: e.Line})
			continue
		}
		st := e.Spec.Stack()
		want := st.Count
		if inv.Insert(&st) {
			granted = append(granted, e.Spec.String())
			continue
		}
		if n := want - st.Count; n > 0 {
			partial := e.Spec
			partial.Count = n
			granted = append(granted, partial.String())
		}
		if d.kit.InventoryFull == config.InventoryFullAbort {
			skipped := 0
			for _, rest := range d.kit.Entries[i+1:] {
				if rest.Known {
					skipped++
				}
			}
			return granted, dropped, &CapacityError{PlayerID: p.PlayerID(), Remaining: st, Skipped: skipped}
		}
		p.Drop(st)
		dropped = append(dropped, st.String())
	}
	return granted, dropped, nil
}

// OnDisconnect ends the player's session so the next login is a fresh one.
func (d *Dispenser) OnDisconnect(sessions *session.Tracker, p Player) {
	sessions.Close(p.PlayerID())
}

// OnTickEnd runs the delayed sweep once it is due: every stack whose item is
// not a starter item is removed.
func (d *Dispenser) OnTickEnd(sess *session.Session, p Player, tick uint64) {
	if !sess.TakeClear(tick) {
		return
	}
	d.log.Printf("clearing non-starter items from %s in case other plugins added some", p.Name())
	inv := p.Inventory()
	var removed []string
	for slot := 0; slot < inv.Size(); slot++ {
		st := inv.At(slot)
		if st.Empty() || d.kit.IsStarterItem(st.Item) {
			continue
		}
		inv.RemoveAt(slot)
		removed = append(removed, st.String())
	}
	d.record(GrantRecord{Kind: GrantDelayedClear, PlayerID: p.PlayerID(), Name: p.Name(), Tick: tick, Removed: removed})
}

func (d *Dispenser) record(r GrantRecord) {
	if d.rec == nil {
		return
	}
	r.Time = d.now().UTC()
	if err := d.rec.RecordGrant(r); err != nil {
		d.log.Printf("record grant: %v", err)
	}
}

func sendAll(p Player, msgs []chat.Message) {
	for _, m := range msgs {
		p.SendMessage(m)
	}
}

// IsFatal reports whether err must stop the server.
func IsFatal(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}
