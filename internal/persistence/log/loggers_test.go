package log

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"starteritems.gg/internal/host"
	"starteritems.gg/internal/sim/world"
	"starteritems.gg/internal/starter"
)

func TestGrantLogger_WritesReadableZstd(t *testing.T) {
	dir := t.TempDir()
	l := NewGrantLogger(dir)
	hour := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	l.w.now = func() time.Time { return hour }

	if err := l.RecordGrant(starter.GrantRecord{Kind: starter.GrantFirstJoin, PlayerID: "p1", Granted: []string{"1 minecraft:diamond"}}); err != nil {
		t.Fatalf("RecordGrant: %v", err)
	}
	hour = hour.Add(time.Hour)
	if err := l.RecordGrant(starter.GrantRecord{Kind: starter.GrantWelcome, PlayerID: "p1"}); err != nil {
		t.Fatalf("RecordGrant: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, name := range []string{"grants-2024-05-01-10.jsonl.zst", "grants-2024-05-01-11.jsonl.zst"} {
		if _, err := os.Stat(filepath.Join(dir, "grants", name)); err != nil {
			t.Fatalf("expected rotated file %s: %v", name, err)
		}
	}

	gs, err := ReadGrants(dir)
	if err != nil {
		t.Fatalf("ReadGrants: %v", err)
	}
	if len(gs) != 2 || gs[0].Kind != starter.GrantFirstJoin || gs[0].Granted[0] != "1 minecraft:diamond" || gs[1].Kind != starter.GrantWelcome {
		t.Fatalf("grants = %#v", gs)
	}
}

func TestGrantLogger_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	fixed := func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	for i := 0; i < 2; i++ {
		l := NewGrantLogger(dir)
		l.w.now = fixed
		if err := l.RecordGrant(starter.GrantRecord{Kind: starter.GrantWelcome, PlayerID: "p1", Tick: uint64(i)}); err != nil {
			t.Fatalf("RecordGrant: %v", err)
		}
		_ = l.Close()
	}
	gs, err := ReadGrants(dir)
	if err != nil {
		t.Fatalf("ReadGrants: %v", err)
	}
	if len(gs) != 2 || gs[1].Tick != 1 {
		t.Fatalf("grants = %#v", gs)
	}
}

type countRecorder struct{ n int }

func (c *countRecorder) RecordGrant(starter.GrantRecord) error {
	c.n++
	return nil
}

func TestMultiRecorder(t *testing.T) {
	a, b := &countRecorder{}, &countRecorder{}
	m := MultiRecorder{a, nil, b}
	if err := m.RecordGrant(starter.GrantRecord{}); err != nil {
		t.Fatalf("RecordGrant: %v", err)
	}
	if a.n != 1 || b.n != 1 {
		t.Fatalf("counts = %d %d", a.n, b.n)
	}
}

func TestTickLogger_ReadableAfterFatalStop(t *testing.T) {
	dir := t.TempDir()
	tl := NewTickLogger(dir)

	bus := host.NewBus()
	bus.OnEntityLoad(host.PhaseDefault, func(host.Entity, string) error {
		return errors.New("tag storage full")
	})
	w, err := world.New(world.DefaultConfig(), nil, world.Options{Bus: bus, TickLogger: tl})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	if _, err := w.StepOnce([]world.JoinRequest{{Name: "alice"}}, nil, nil); err == nil {
		t.Fatalf("expected fatal listener error")
	}
	// The server's exit path: stop the world, then close the log.
	w.Close()
	if err := tl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := Files(filepath.Join(dir, "events"), "events")
	if err != nil || len(files) != 1 {
		t.Fatalf("Files = %v, %v", files, err)
	}
	var entries []world.TickLogEntry
	err = ReadJSONL(files[0], func(line []byte) error {
		var e world.TickLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(entries) != 1 || !entries[0].Start || len(entries[0].Joins) != 1 || entries[0].Joins[0].Name != "alice" {
		t.Fatalf("entries = %#v", entries)
	}
}
