// Package memory provides an in-memory record service backend for tests and
// ephemeral runs.
package memory

import (
	"context"
	"sync"
	"time"

	"plancore/internal/recordsvc"
)

// Compile-time contract assertion.
var _ recordsvc.Backend = (*Store)(nil)

// Store keeps collections of rows in process memory. Rows are cloned on
// every read and write so callers never alias internal state.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]recordsvc.Row
	nowFn       func() time.Time
}

// NewStore constructs an empty in-memory backend.
func NewStore() *Store {
	return &Store{
		collections: make(map[string][]recordsvc.Row),
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = now
}

// Select returns cloned rows matching the filter in the requested order.
func (s *Store) Select(_ context.Context, collection string, filter recordsvc.Filter, order recordsvc.Order) ([]recordsvc.Row, error) {
	if len(filter) == 0 {
		return nil, recordsvc.ErrEmptyFilter
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recordsvc.Row, 0)
	for _, row := range s.collections[collection] {
		if recordsvc.Matches(row, filter) {
			out = append(out, recordsvc.CloneRow(row))
		}
	}
	recordsvc.SortRows(out, order)
	return out, nil
}

// Insert stamps and stores the rows, returning the stamped clones.
func (s *Store) Insert(_ context.Context, collection string, rows []recordsvc.Row) ([]recordsvc.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	out := make([]recordsvc.Row, 0, len(rows))
	for _, row := range rows {
		stamped := recordsvc.StampInsert(recordsvc.CloneRow(row), now)
		s.collections[collection] = append(s.collections[collection], stamped)
		out = append(out, recordsvc.CloneRow(stamped))
	}
	return out, nil
}

// Update merges the patch into every matching row and stamps updated_at.
func (s *Store) Update(_ context.Context, collection string, filter recordsvc.Filter, patch recordsvc.Patch) error {
	if len(filter) == 0 {
		return recordsvc.ErrEmptyFilter
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := recordsvc.Patch(recordsvc.CloneRow(recordsvc.Row(patch)))
	stamped := recordsvc.StampUpdate(cloned, s.nowFn())
	rows := s.collections[collection]
	for i, row := range rows {
		if recordsvc.Matches(row, filter) {
			rows[i] = recordsvc.ApplyPatch(row, stamped)
		}
	}
	return nil
}

// Delete removes every matching row.
func (s *Store) Delete(_ context.Context, collection string, filter recordsvc.Filter) error {
	if len(filter) == 0 {
		return recordsvc.ErrEmptyFilter
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.collections[collection]
	kept := rows[:0]
	for _, row := range rows {
		if !recordsvc.Matches(row, filter) {
			kept = append(kept, row)
		}
	}
	s.collections[collection] = kept
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *Store) Close() error { return nil }
