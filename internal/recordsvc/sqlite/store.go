// Package sqlite provides an embedded record service backend storing rows as
// JSON payloads in a single table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"plancore/internal/recordsvc"
)

// Compile-time contract assertion.
var _ recordsvc.Backend = (*Store)(nil)

// Store persists each record as a JSON payload keyed by collection and id.
// Filtering and ordering happen in Go over the decoded payloads, which keeps
// the schema stable as feature stores add fields.
type Store struct {
	db    *sql.DB
	mu    sync.Mutex
	path  string
	nowFn func() time.Time
}

// NewStore opens (creating if needed) a sqlite-backed record service at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "plancore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (collection, id)
	)`); err != nil {
		return nil, fmt.Errorf("create records table: %w", err)
	}
	return &Store{
		db:    db,
		path:  path,
		nowFn: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// SetClock overrides the timestamp source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) { s.nowFn = now }

// Select returns decoded rows matching the filter in the requested order.
func (s *Store) Select(ctx context.Context, collection string, filter recordsvc.Filter, order recordsvc.Order) ([]recordsvc.Row, error) {
	if len(filter) == 0 {
		return nil, recordsvc.ErrEmptyFilter
	}
	rows, err := s.loadCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]recordsvc.Row, 0)
	for _, row := range rows {
		if recordsvc.Matches(row, filter) {
			out = append(out, row)
		}
	}
	recordsvc.SortRows(out, order)
	return out, nil
}

// Insert stamps and stores the rows, returning the stamped rows.
func (s *Store) Insert(ctx context.Context, collection string, rows []recordsvc.Row) ([]recordsvc.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	out := make([]recordsvc.Row, 0, len(rows))
	for _, row := range rows {
		stamped := recordsvc.StampInsert(recordsvc.CloneRow(row), now)
		payload, err := json.Marshal(stamped)
		if err != nil {
			return nil, fmt.Errorf("encode %s row: %w", collection, err)
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO records (collection, id, payload) VALUES (?, ?, ?)`,
			collection, stamped["id"], payload); err != nil {
			return nil, fmt.Errorf("insert %s row: %w", collection, err)
		}
		out = append(out, stamped)
	}
	return out, nil
}

// Update merges the patch into every matching row and stamps updated_at.
func (s *Store) Update(ctx context.Context, collection string, filter recordsvc.Filter, patch recordsvc.Patch) error {
	if len(filter) == 0 {
		return recordsvc.ErrEmptyFilter
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.loadCollection(ctx, collection)
	if err != nil {
		return err
	}
	cloned := recordsvc.Patch(recordsvc.CloneRow(recordsvc.Row(patch)))
	stamped := recordsvc.StampUpdate(cloned, s.nowFn())
	for _, row := range rows {
		if !recordsvc.Matches(row, filter) {
			continue
		}
		merged := recordsvc.ApplyPatch(row, stamped)
		payload, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode %s row: %w", collection, err)
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE records SET payload = ? WHERE collection = ? AND id = ?`,
			payload, collection, merged["id"]); err != nil {
			return fmt.Errorf("update %s row: %w", collection, err)
		}
	}
	return nil
}

// Delete removes every matching row.
func (s *Store) Delete(ctx context.Context, collection string, filter recordsvc.Filter) error {
	if len(filter) == 0 {
		return recordsvc.ErrEmptyFilter
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.loadCollection(ctx, collection)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if !recordsvc.Matches(row, filter) {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM records WHERE collection = ? AND id = ?`,
			collection, row["id"]); err != nil {
			return fmt.Errorf("delete %s row: %w", collection, err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) loadCollection(ctx context.Context, collection string) ([]recordsvc.Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM records WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()
	var out []recordsvc.Row
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		var row recordsvc.Row
		if err := json.Unmarshal(payload, &row); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
