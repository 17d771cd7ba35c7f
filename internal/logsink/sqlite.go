package logsink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores invocation events in an "invocations" table.
type SQLite struct {
	db     *sql.DB
	owned  bool
	insert *sql.Stmt
}

// OpenSQLite opens (or creates) the database at path and prepares the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	s, err := NewSQLite(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSQLite uses an existing database handle. The caller keeps ownership of db.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("init invocation schema: %w", err)
	}
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO invocations (execution_id, workflow, node, type, resource, provider, region,
			result, started_at, ended_at, rtt_ms, success, memory, loop_counter, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	s.insert = stmt
	return s, nil
}

func (s *SQLite) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS invocations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			execution_id TEXT NOT NULL,
			workflow TEXT NOT NULL DEFAULT '',
			node TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			resource TEXT NOT NULL DEFAULT '',
			provider TEXT NOT NULL DEFAULT '',
			region TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL DEFAULT '',
			started_at INTEGER NOT NULL,
			ended_at INTEGER NOT NULL,
			rtt_ms INTEGER NOT NULL DEFAULT 0,
			success INTEGER NOT NULL DEFAULT 0,
			memory INTEGER NOT NULL DEFAULT 0,
			loop_counter INTEGER NOT NULL DEFAULT -1,
			seq INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_invocations_execution_id ON invocations(execution_id, id);
	`)
	return err
}

// Record implements Sink.
func (s *SQLite) Record(ctx context.Context, ev Event) error {
	success := 0
	if ev.Success {
		success = 1
	}
	_, err := s.insert.ExecContext(ctx,
		ev.ExecutionID,
		ev.Workflow,
		ev.Node,
		ev.Type,
		ev.Resource,
		ev.Provider,
		ev.Region,
		ev.Result,
		ev.Start.UnixNano(),
		ev.End.UnixNano(),
		ev.RTTMillis,
		success,
		ev.Memory,
		ev.LoopCounter,
		ev.Sequence,
	)
	if err != nil {
		return fmt.Errorf("insert invocation for %s: %w", ev.Node, err)
	}
	return nil
}

// List returns the events of one execution in insertion order.
func (s *SQLite) List(ctx context.Context, executionID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT execution_id, workflow, node, type, resource, provider, region, result,
			started_at, ended_at, rtt_ms, success, memory, loop_counter, seq
		FROM invocations
		WHERE execution_id = ?
		ORDER BY id ASC`, executionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev           Event
			startN, endN int64
			success      int
		)
		if err := rows.Scan(&ev.ExecutionID, &ev.Workflow, &ev.Node, &ev.Type, &ev.Resource,
			&ev.Provider, &ev.Region, &ev.Result, &startN, &endN, &ev.RTTMillis, &success,
			&ev.Memory, &ev.LoopCounter, &ev.Sequence); err != nil {
			return nil, err
		}
		ev.Start = time.Unix(0, startN)
		ev.End = time.Unix(0, endN)
		ev.Success = success == 1
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Close releases the prepared statement, and the database if it was opened
// by OpenSQLite.
func (s *SQLite) Close() error {
	var errs []error
	if s.insert != nil {
		if err := s.insert.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.owned {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
