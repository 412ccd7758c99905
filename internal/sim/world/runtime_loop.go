package world

import (
	"context"
	"strings"
	"time"

	"starteritems.gg/internal/protocol"
)

// Run drives the tick loop until ctx is done, Stop is called, or a listener
// returns a fatal error. Online players are disconnected and saved on the
// way out.
func (w *World) Run(ctx context.Context) error {
	defer close(w.done)

	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []ActionEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			w.shutdown()
			return ctx.Err()
		case <-w.stop:
			w.shutdown()
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case req := <-w.commands:
			req.Resp <- w.ExecCommand(req.Cmd)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
		if w.fatal != nil {
			w.shutdown()
			return w.fatal
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// Done is closed when Run returns.
func (w *World) Done() <-chan struct{} { return w.done }

// StepOnce advances the world by a single tick using the same ordering
// semantics as the server. It is intended for tests and tools; it must not be
// called while Run is active.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, actions []ActionEnvelope) (tick uint64, err error) {
	tick = w.tick.Load()
	w.step(joins, leaves, actions)
	return tick, w.fatal
}

// Err returns the fatal listener error, if any.
func (w *World) Err() error { return w.fatal }

// step applies leaves, joins and actions at the tick boundary, then fires the
// end-of-tick hooks and flushes client queues.
func (w *World) step(joins []JoinRequest, leaves []string, actions []ActionEnvelope) {
	stepStart := time.Now()
	nowTick := w.tick.Load()

	recordedLeaves := make([]string, 0, len(leaves))
	for _, id := range leaves {
		if _, ok := w.players[id]; ok {
			w.handleLeave(id)
			recordedLeaves = append(recordedLeaves, id)
		}
	}
	recordedJoins := make([]RecordedJoin, 0, len(joins))
	for _, req := range joins {
		resp := w.joinPlayer(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
		if resp.Err == nil {
			recordedJoins = append(recordedJoins, RecordedJoin{PlayerID: resp.Welcome.PlayerID, Name: resp.Welcome.Name})
		}
	}

	// Actions apply in inbox order.
	recorded := make([]RecordedAction, 0, len(actions))
	for _, env := range actions {
		p := w.players[env.PlayerID]
		if p == nil {
			continue
		}
		recorded = append(recorded, RecordedAction{PlayerID: env.PlayerID, Action: env.Act.Action, Dimension: env.Act.Dimension})
		w.applyAct(p, env.Act)
	}

	w.expireItemEntities(nowTick)

	for _, id := range w.sortedPlayerIDs() {
		if w.fatal != nil {
			break
		}
		if err := w.bus.FirePlayerTickEnd(w.players[id], nowTick); err != nil {
			w.fail(err)
		}
	}

	dropped := 0
	for _, id := range w.sortedPlayerIDs() {
		dropped += w.players[id].flush(nowTick)
	}
	w.droppedMessages += uint64(dropped)

	if every := uint64(w.cfg.AutosaveEveryTicks); every > 0 && nowTick != 0 && nowTick%every == 0 {
		w.saveAll()
	}

	if w.tickLogger != nil && (!w.logStarted || len(recordedJoins) > 0 || len(recordedLeaves) > 0 || len(recorded) > 0 || len(w.ranCommands) > 0) {
		entry := TickLogEntry{Tick: nowTick, Start: !w.logStarted, Joins: recordedJoins, Leaves: recordedLeaves, Actions: recorded, Commands: w.ranCommands}
		w.logStarted = true
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.log.Printf("tick log: %v", err)
		}
	}
	w.ranCommands = nil

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)
	w.metrics.Store(Metrics{
		Tick:         nextTick,
		Players:      len(w.players),
		Sessions:     w.sessions.Len(),
		ItemEntities: len(w.items),
		QueueDepths: QueueDepths{
			Inbox:    len(w.inbox),
			Join:     len(w.join),
			Leave:    len(w.leave),
			Commands: len(w.commands),
		},
		StepMS:          stepMS,
		DroppedMessages: w.droppedMessages,
		Saves:           w.saves,
		SaveErrors:      w.saveErrors,
	})
}

func (w *World) joinPlayer(req JoinRequest) JoinResponse {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return JoinResponse{Err: errBadName, Code: protocol.ErrProtoBadRequest}
	}
	id := OfflinePlayerID(name)
	if _, ok := w.players[id]; ok {
		return JoinResponse{Err: ErrAlreadyOnline, Code: protocol.ErrAlreadyOnline}
	}

	p := w.newPlayer(id, name, req.Out)
	if w.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rec, ok, err := w.store.Load(ctx, id)
		cancel()
		if err != nil {
			w.log.Printf("load player %s (%s): %v", name, id, err)
			return JoinResponse{Err: err, Code: protocol.ErrInternal}
		}
		if ok {
			p.restore(rec)
		}
	}

	w.players[id] = p
	w.sessions.Open(id)
	w.log.Printf("%s (%s) joined in %s", name, id, p.Dimension)
	if err := w.bus.FireEntityLoad(p, p.Dimension); err != nil {
		w.fail(err)
	}
	return JoinResponse{Welcome: w.welcome(p)}
}

func (w *World) handleLeave(id string) {
	p := w.players[id]
	if err := w.bus.FireDisconnect(p); err != nil {
		w.fail(err)
	}
	w.savePlayer(p)
	delete(w.players, id)
	w.sessions.Close(id)
	w.log.Printf("%s (%s) left", p.name, id)
}

func (w *World) applyAct(p *Player, act protocol.ActMsg) {
	switch act.Action {
	case protocol.ActionChangeDimension:
		dim := strings.TrimSpace(act.Dimension)
		spec, ok := w.cfg.dimension(dim)
		if !ok {
			p.sendError(protocol.ErrInvalidTarget, "unknown dimension "+dim)
			return
		}
		if dim == p.Dimension {
			p.sendError(protocol.ErrInvalidTarget, "already in "+dim)
			return
		}
		p.Dimension = spec.ID
		p.Pos = spec.Spawn
		p.forceInv = true
		if err := w.bus.FireEntityLoad(p, p.Dimension); err != nil {
			w.fail(err)
		}
	case protocol.ActionInventory:
		p.forceInv = true
	default:
		p.sendError(protocol.ErrUnknownAction, "unknown action "+act.Action)
	}
}

// Close disconnects and saves every online player. It is for tools driving the
// world through StepOnce; do not call it while Run is active.
func (w *World) Close() { w.shutdown() }

func (w *World) shutdown() {
	for _, id := range w.sortedPlayerIDs() {
		w.handleLeave(id)
	}
}
