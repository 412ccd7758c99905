package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"starteritems.gg/internal/config"
	persistlog "starteritems.gg/internal/persistence/log"
	"starteritems.gg/internal/persistence/playerdb"
	"starteritems.gg/internal/sim/catalogs"
	"starteritems.gg/internal/sim/world"
	"starteritems.gg/internal/starter"
)

// replay feeds a recorded tick log into a fresh world running the starter
// plugin and prints the grant records it produces. Use it to check what a
// config change would have done to recorded traffic.
func main() {
	var (
		eventsDir  = flag.String("events", "./data/events", "events dir containing events-*.jsonl.zst")
		configPath = flag.String("config", "./config/starteritems.yaml", "starter items config path")
		configDir  = flag.String("configs", "./configs", "catalog directory (items.json)")
		worldPath  = flag.String("world", "", "world.yaml path (optional)")
		verbose    = flag.Bool("v", false, "log world and plugin output to stderr")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	kit, err := starter.NewKit(*configPath, cfg, cats)
	if err != nil {
		fmt.Fprintln(os.Stderr, "starter kit:", err)
		os.Exit(1)
	}
	wcfg, err := world.LoadConfig(*worldPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load world config:", err)
		os.Exit(1)
	}
	wcfg.AutosaveEveryTicks = 0

	files, err := persistlog.Files(*eventsDir, "events")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	r := &replayer{
		kit:    kit,
		cats:   cats,
		wcfg:   wcfg,
		store:  newMemStore(),
		enc:    json.NewEncoder(os.Stdout),
		logger: log.New(logOut, "[replay] ", log.Lmicroseconds),
	}
	if err := r.start(); err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}
	for _, path := range files {
		err := persistlog.ReadJSONL(path, func(line []byte) error {
			var entry world.TickLogEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
			}
			return r.apply(entry)
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	r.drain()
	r.w.Close()
	fmt.Fprintf(os.Stderr, "replay ok: runs=%d entries=%d grants=%d\n", r.runs, r.entries, r.grants)
}

type replayer struct {
	kit    *starter.Kit
	cats   *catalogs.ItemCatalog
	wcfg   world.Config
	store  *memStore
	enc    *json.Encoder
	logger *log.Logger

	w          *world.World
	runs       int
	entries    int
	runEntries int
	grants     int
}

// start builds a world for one server run. Saves carry over between runs.
func (r *replayer) start() error {
	w, err := world.New(r.wcfg, r.cats, world.Options{Store: r.store, Logger: r.logger})
	if err != nil {
		return err
	}
	disp := starter.NewDispenser(r.kit, r.logger, r)
	starter.NewPlugin(disp, w.Sessions(), w, r.logger).Register(w.Bus())
	r.w = w
	r.runs++
	r.runEntries = 0
	return nil
}

func (r *replayer) RecordGrant(g starter.GrantRecord) error {
	r.grants++
	return r.enc.Encode(g)
}

func (r *replayer) apply(entry world.TickLogEntry) error {
	// A start marker opens a new server run. Logs written without markers
	// still show a restart as the tick going backwards. Either way the old
	// run's shutdown saved everyone.
	if (entry.Start && r.runEntries > 0) || entry.Tick < r.w.CurrentTick() {
		r.drain()
		r.w.Close()
		if err := r.start(); err != nil {
			return err
		}
	}
	for r.w.CurrentTick() < entry.Tick {
		if _, err := r.w.StepOnce(nil, nil, nil); err != nil {
			return fmt.Errorf("tick %d: %w", r.w.CurrentTick()-1, err)
		}
	}
	for _, cmd := range entry.Commands {
		if err := r.w.ExecCommand(cmd); err != nil {
			r.logger.Printf("command %q: %v", cmd, err)
		}
	}

	joins := make([]world.JoinRequest, 0, len(entry.Joins))
	for _, j := range entry.Joins {
		joins = append(joins, world.JoinRequest{Name: j.Name})
	}
	acts := make([]world.ActionEnvelope, 0, len(entry.Actions))
	for _, ra := range entry.Actions {
		acts = append(acts, world.ActionEnvelope{PlayerID: ra.PlayerID, Act: ra.Act()})
	}
	tick, err := r.w.StepOnce(joins, entry.Leaves, acts)
	if err != nil {
		return fmt.Errorf("tick %d: %w", tick, err)
	}
	if tick != entry.Tick {
		return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, entry.Tick)
	}
	r.entries++
	r.runEntries++
	return nil
}

// drain runs enough empty ticks for pending delayed clears to come due.
func (r *replayer) drain() {
	for i := 0; i <= r.kit.ClearDelay; i++ {
		if _, err := r.w.StepOnce(nil, nil, nil); err != nil {
			r.logger.Printf("drain: %v", err)
			return
		}
	}
}

type memStore struct {
	recs map[string]playerdb.Record
}

func newMemStore() *memStore { return &memStore{recs: map[string]playerdb.Record{}} }

func (s *memStore) Load(_ context.Context, id string) (playerdb.Record, bool, error) {
	rec, ok := s.recs[id]
	return rec, ok, nil
}

func (s *memStore) Save(_ context.Context, rec playerdb.Record) error {
	s.recs[rec.ID] = rec
	return nil
}
