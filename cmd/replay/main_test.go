package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"path/filepath"
	"testing"

	"starteritems.gg/internal/config"
	persistlog "starteritems.gg/internal/persistence/log"
	"starteritems.gg/internal/sim/catalogs"
	"starteritems.gg/internal/sim/world"
	"starteritems.gg/internal/starter"
)

// replayLog writes entries to a fresh event log, replays it and returns the
// replayer with the grant kinds it printed.
func replayLog(t *testing.T, entries []world.TickLogEntry) (*replayer, []string) {
	t.Helper()
	dataDir := t.TempDir()
	tl := persistlog.NewTickLogger(dataDir)
	for _, e := range entries {
		if err := tl.WriteTick(e); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := tl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	cfg := config.Defaults()
	cfg.StarterItems = []string{"2 bread"}
	cfg.WelcomeMessages = []config.Message{{Text: "Welcome back"}}
	cats := catalogs.Defaults()
	kit, err := starter.NewKit("starteritems.yaml", cfg, cats)
	if err != nil {
		t.Fatalf("NewKit: %v", err)
	}

	var out bytes.Buffer
	r := &replayer{
		kit:    kit,
		cats:   cats,
		wcfg:   world.DefaultConfig(),
		store:  newMemStore(),
		enc:    json.NewEncoder(&out),
		logger: log.New(io.Discard, "", 0),
	}
	if err := r.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	files, err := persistlog.Files(filepath.Join(dataDir, "events"), "events")
	if err != nil || len(files) != 1 {
		t.Fatalf("Files = %v, %v", files, err)
	}
	err = persistlog.ReadJSONL(files[0], func(line []byte) error {
		var e world.TickLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		return r.apply(e)
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	r.drain()
	r.w.Close()

	var kinds []string
	dec := json.NewDecoder(&out)
	for dec.More() {
		var g starter.GrantRecord
		if err := dec.Decode(&g); err != nil {
			t.Fatalf("decode: %v", err)
		}
		kinds = append(kinds, g.Kind)
	}
	return r, kinds
}

func TestReplayer_AcrossRestart(t *testing.T) {
	alice := world.OfflinePlayerID("alice")
	r, kinds := replayLog(t, []world.TickLogEntry{
		{Tick: 0, Start: true, Joins: []world.RecordedJoin{{PlayerID: alice, Name: "alice"}}},
		{Tick: 3, Actions: []world.RecordedAction{{PlayerID: alice, Action: "CHANGE_DIMENSION", Dimension: "minecraft:the_nether"}}},
		{Tick: 5, Leaves: []string{alice}},
		{Tick: 1, Start: true, Joins: []world.RecordedJoin{{PlayerID: alice, Name: "alice"}}},
	})

	if r.runs != 2 || r.entries != 4 {
		t.Fatalf("runs=%d entries=%d", r.runs, r.entries)
	}
	if len(kinds) != 2 || kinds[0] != starter.GrantFirstJoin || kinds[1] != starter.GrantWelcome {
		t.Fatalf("grant kinds = %v", kinds)
	}
	if rec := r.store.recs[alice]; !rec.HasTag(starter.JoinedTag) || rec.Dimension != "minecraft:the_nether" {
		t.Fatalf("saved record = %+v", rec)
	}
}

func TestReplayer_StartMarkerSplitsRunsWithoutTickRewind(t *testing.T) {
	alice := world.OfflinePlayerID("alice")
	bob := world.OfflinePlayerID("bob")
	r, kinds := replayLog(t, []world.TickLogEntry{
		{Tick: 0, Start: true, Joins: []world.RecordedJoin{{PlayerID: alice, Name: "alice"}}},
		{Tick: 2, Leaves: []string{alice}},
		// The next run logs its first event later than the last tick of the
		// previous run.
		{Tick: 9, Start: true, Joins: []world.RecordedJoin{{PlayerID: bob, Name: "bob"}}},
	})

	if r.runs != 2 || r.entries != 3 {
		t.Fatalf("runs=%d entries=%d", r.runs, r.entries)
	}
	if len(kinds) != 2 || kinds[0] != starter.GrantFirstJoin || kinds[1] != starter.GrantFirstJoin {
		t.Fatalf("grant kinds = %v", kinds)
	}
	// The second world started from tick 0: bob joined on its tick 9 and
	// drain ran ClearDelay+1 more.
	if got, want := r.w.CurrentTick(), uint64(10+r.kit.ClearDelay+1); got != want {
		t.Fatalf("tick = %d, want %d", got, want)
	}
}

func TestReplayer_LegacyLogRestartByTickRewind(t *testing.T) {
	alice := world.OfflinePlayerID("alice")
	r, _ := replayLog(t, []world.TickLogEntry{
		{Tick: 4, Joins: []world.RecordedJoin{{PlayerID: alice, Name: "alice"}}},
		{Tick: 6, Leaves: []string{alice}},
		{Tick: 2, Joins: []world.RecordedJoin{{PlayerID: alice, Name: "alice"}}},
	})
	if r.runs != 2 || r.entries != 3 {
		t.Fatalf("runs=%d entries=%d", r.runs, r.entries)
	}
}
