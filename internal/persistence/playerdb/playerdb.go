// Package playerdb stores player saves and the grant index in SQLite.
//
// Saves are written synchronously. Grant records are queued to a writer
// goroutine so the world loop never waits on disk; the zstd JSONL grant log
// remains the source of truth when the queue overflows.
package playerdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"starteritems.gg/internal/starter"
)

// Slot is one non-empty inventory slot. NBT holds the textual tag, if any.
type Slot struct {
	Slot  int    `json:"slot"`
	Item  string `json:"item"`
	Count int    `json:"count"`
	NBT   string `json:"nbt,omitempty"`
}

// Record is a player save.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dimension string    `json:"dimension"`
	Tags      []string  `json:"tags"`
	Inventory []Slot    `json:"inventory"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type DB struct {
	db *sql.DB

	ch   chan starter.GrantRecord
	wg   sync.WaitGroup
	once sync.Once

	// mu guards closed and every send on ch.
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	d := &DB{db: db, ch: make(chan starter.GrantRecord, 4096)}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
	return d, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			dimension TEXT NOT NULL,
			tags_json TEXT NOT NULL,
			inventory_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_players_name ON players(name);`,
		`CREATE TABLE IF NOT EXISTS grants (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			tick INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_grants_player ON grants(player_id, seq);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains queued grant records and closes the database.
func (d *DB) Close() error {
	var err error
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.ch)
		d.mu.Unlock()
		d.wg.Wait()
		err = d.db.Close()
	})
	return err
}

// Load returns the save for id. ok is false when the player has never been saved.
func (d *DB) Load(ctx context.Context, id string) (rec Record, ok bool, err error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id,name,dimension,tags_json,inventory_json,updated_at FROM players WHERE id=?`, id)
	rec, err = scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("load player %s: %w", id, err)
	}
	return rec, true, nil
}

func (d *DB) Save(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("save player: empty id")
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if rec.Inventory == nil {
		rec.Inventory = []Slot{}
	}
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return err
	}
	inv, err := json.Marshal(rec.Inventory)
	if err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO players(id,name,dimension,tags_json,inventory_json,updated_at) VALUES(?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, dimension=excluded.dimension,
		 tags_json=excluded.tags_json, inventory_json=excluded.inventory_json, updated_at=excluded.updated_at`,
		rec.ID, rec.Name, rec.Dimension, string(tags), string(inv), rec.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save player %s: %w", rec.ID, err)
	}
	return nil
}

// List returns every save ordered by name.
func (d *DB) List(ctx context.Context) ([]Record, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id,name,dimension,tags_json,inventory_json,updated_at FROM players ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec     Record
		tags    string
		inv     string
		updated string
	)
	if err := s.Scan(&rec.ID, &rec.Name, &rec.Dimension, &tags, &inv, &updated); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return Record{}, fmt.Errorf("tags_json: %w", err)
	}
	if err := json.Unmarshal([]byte(inv), &rec.Inventory); err != nil {
		return Record{}, fmt.Errorf("inventory_json: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		rec.UpdatedAt = t
	}
	return rec, nil
}
