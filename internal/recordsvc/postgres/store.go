// Package postgres provides a PostgreSQL record service backend that mirrors
// the sqlite store's JSON payload schema.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"plancore/internal/recordsvc"
)

// Compile-time contract assertion.
var _ recordsvc.Backend = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/plancore?sslmode=disable"
)

// Store persists each record as a JSONB payload keyed by collection and id.
type Store struct {
	db    *sql.DB
	mu    sync.Mutex
	nowFn func() time.Time
}

// NewStore opens a Postgres-backed record service using the provided DSN
// (falls back to a local default) and ensures the records table exists.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		payload JSONB NOT NULL,
		PRIMARY KEY (collection, id)
	)`); err != nil {
		return nil, fmt.Errorf("create records table: %w", err)
	}
	return &Store{
		db:    db,
		nowFn: func() time.Time { return time.Now().UTC() },
	}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

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
			`INSERT INTO records (collection, id, payload) VALUES ($1, $2, $3)`,
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
			`UPDATE records SET payload = $1 WHERE collection = $2 AND id = $3`,
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
			`DELETE FROM records WHERE collection = $1 AND id = $2`,
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
		`SELECT payload FROM records WHERE collection = $1`, collection)
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
