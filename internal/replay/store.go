// Package replay persists core events so finished matches can be replayed
// deterministically: applying the stored stream to the same starting state
// reproduces the match.
package replay

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"hexfront/server/internal/event"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS match_events (
	match_id   TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	turn       INTEGER NOT NULL,
	event_type TEXT    NOT NULL,
	payload    TEXT    NOT NULL,
	PRIMARY KEY (match_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_match_events_turn ON match_events (match_id, turn);
`

// Store persists match event streams in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a replay store at path, creating the schema when missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("replay: storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("replay: open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("replay: ping db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("replay: create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append stores a batch of core events for a match. Sequence numbers are
// unique per match; re-appending a stored sequence is an error.
func (s *Store) Append(ctx context.Context, matchID string, events []event.CoreEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("replay: storage is not configured")
	}
	if strings.TrimSpace(matchID) == "" {
		return fmt.Errorf("replay: match id is required")
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replay: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_events (match_id, seq, turn, event_type, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("replay: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, core := range events {
		payload, err := json.Marshal(core)
		if err != nil {
			return fmt.Errorf("replay: encode event seq %d: %w", core.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx, matchID, int64(core.Seq), core.Turn, string(core.Event.Type), string(payload)); err != nil {
			return fmt.Errorf("replay: insert event seq %d: %w", core.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replay: commit: %w", err)
	}
	return nil
}

// ListSince returns a match's stored events with sequence numbers greater
// than seq, in order.
func (s *Store) ListSince(ctx context.Context, matchID string, seq uint64) ([]event.CoreEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("replay: storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT payload FROM match_events WHERE match_id = ? AND seq > ? ORDER BY seq`, matchID, int64(seq))
	if err != nil {
		return nil, fmt.Errorf("replay: query events: %w", err)
	}
	defer rows.Close()

	var events []event.CoreEvent
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("replay: scan event: %w", err)
		}
		var core event.CoreEvent
		if err := json.Unmarshal([]byte(payload), &core); err != nil {
			return nil, fmt.Errorf("replay: decode event: %w", err)
		}
		events = append(events, core)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("replay: iterate events: %w", err)
	}
	return events, nil
}

// Matches lists the match ids with stored events, most recent first by
// rowid.
func (s *Store) Matches(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("replay: storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT match_id FROM match_events GROUP BY match_id ORDER BY MAX(rowid) DESC`)
	if err != nil {
		return nil, fmt.Errorf("replay: query matches: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("replay: scan match id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("replay: iterate matches: %w", err)
	}
	return ids, nil
}
