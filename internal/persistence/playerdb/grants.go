package playerdb

import (
	"context"
	"encoding/json"
	"time"

	"starteritems.gg/internal/starter"
)

// RecordGrant queues g for the grant index. It never blocks; records are
// dropped when the writer falls behind.
func (d *DB) RecordGrant(g starter.GrantRecord) error {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil
	}
	select {
	case d.ch <- g:
	default:
		d.dropped.Add(1)
	}
	return nil
}

// DroppedGrants counts records RecordGrant could not queue.
func (d *DB) DroppedGrants() uint64 { return d.dropped.Load() }

func (d *DB) loop() {
	for g := range d.ch {
		_ = d.insertGrant(g)
	}
}

func (d *DB) insertGrant(g starter.GrantRecord) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	at := g.Time
	if at.IsZero() {
		at = time.Now()
	}
	_, err = d.db.Exec(`INSERT INTO grants(player_id,kind,tick,recorded_at,raw_json) VALUES(?,?,?,?,?)`,
		g.PlayerID, g.Kind, int64(g.Tick), at.UTC().Format(time.RFC3339Nano), string(raw))
	return err
}

// Grants returns the most recent grant records for a player, newest first.
func (d *DB) Grants(ctx context.Context, playerID string, limit int) ([]starter.GrantRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT raw_json FROM grants WHERE player_id=? ORDER BY seq DESC LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []starter.GrantRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var g starter.GrantRecord
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
