package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS run_records (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id  TEXT NOT NULL,
	kind    TEXT NOT NULL,
	at_ms   INTEGER NOT NULL,
	payload BLOB NOT NULL,
	labels  TEXT
);
CREATE INDEX IF NOT EXISTS run_records_run ON run_records(run_id, seq);
`

// newestRuns selects the run ids whose first record is among the latest.
const newestRuns = `SELECT run_id FROM run_records GROUP BY run_id ORDER BY MIN(seq) DESC LIMIT ?`

const selectRecords = `SELECT seq, run_id, kind, at_ms, payload, labels FROM run_records`

// SQLiteStore is the Store behind the history database. The pool is capped
// at one connection, which also serializes writers.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
// ":memory:" opens a private in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDatabaseOpenFailed, err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseOpenFailed, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrInitializeSchemaFailed, err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	var labels []byte
	if len(rec.Labels) > 0 {
		var err error
		if labels, err = json.Marshal(rec.Labels); err != nil {
			return fmt.Errorf("%w: %w", ErrMarshalPayloadFailed, err)
		}
	}
	at := rec.At
	if at.IsZero() {
		at = s.now()
	}
	payload := []byte(rec.Payload)
	if payload == nil {
		payload = []byte("null")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO run_records (run_id, kind, at_ms, payload, labels) VALUES (?, ?, ?, ?, ?)",
		rec.RunID, rec.Kind, at.UnixMilli(), payload, labels,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEventAppendFailed, err)
	}
	return nil
}

// Run implements Store.
func (s *SQLiteStore) Run(ctx context.Context, runID string) ([]Record, error) {
	return s.query(ctx, selectRecords+" WHERE run_id = ? ORDER BY seq", runID)
}

// Recent implements Store.
func (s *SQLiteStore) Recent(ctx context.Context, runs int) ([]Record, error) {
	if runs <= 0 {
		return nil, nil
	}
	return s.query(ctx, selectRecords+" WHERE run_id IN ("+newestRuns+") ORDER BY seq", runs)
}

// Prune implements Store.
func (s *SQLiteStore) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM run_records WHERE run_id NOT IN ("+newestRuns+")", keep)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPruneFailed, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEventQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			atMS    int64
			payload []byte
			labels  []byte
		)
		if err := rows.Scan(&rec.Seq, &rec.RunID, &rec.Kind, &atMS, &payload, &labels); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEventScanFailed, err)
		}
		rec.At = time.UnixMilli(atMS)
		rec.Payload = payload
		if len(labels) > 0 {
			if err := json.Unmarshal(labels, &rec.Labels); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrEventScanFailed, err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEventScanFailed, err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
