package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"plancore/internal/recordsvc"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := store.Insert(ctx, "projects", []recordsvc.Row{
		{"name": "Harbor Bridge", "owner_id": "u1"},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id := inserted[0]["id"]
	if id == "" {
		t.Fatal("expected stamped id")
	}

	rows, err := store.Select(ctx, "projects", recordsvc.Filter{"owner_id": "u1"}, recordsvc.Order{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Harbor Bridge" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	if err := store.Update(ctx, "projects", recordsvc.Filter{"id": id}, recordsvc.Patch{"name": "Harbor Bridge II"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	rows, err = store.Select(ctx, "projects", recordsvc.Filter{"id": id}, recordsvc.Order{})
	if err != nil {
		t.Fatalf("select after update: %v", err)
	}
	if rows[0]["name"] != "Harbor Bridge II" {
		t.Fatalf("patch not applied: %v", rows[0])
	}

	if err := store.Delete(ctx, "projects", recordsvc.Filter{"id": id}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rows, err = store.Select(ctx, "projects", recordsvc.Filter{"owner_id": "u1"}, recordsvc.Order{})
	if err != nil {
		t.Fatalf("select after delete: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %v", rows)
	}
}

func TestStoreRejectsEmptyFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Select(ctx, "projects", recordsvc.Filter{}, recordsvc.Order{}); err != recordsvc.ErrEmptyFilter {
		t.Fatalf("expected ErrEmptyFilter, got %v", err)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	ctx := context.Background()

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.Insert(ctx, "risk_entries", []recordsvc.Row{
		{"project_id": "p1", "title": "Permit delay", "score": 12},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	rows, err := reopened.Select(ctx, "risk_entries", recordsvc.Filter{"project_id": "p1"}, recordsvc.Order{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 1 || rows[0]["title"] != "Permit delay" {
		t.Fatalf("rows did not survive reopen: %v", rows)
	}
}

func TestStoreOrdersByScore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Insert(ctx, "risk_entries", []recordsvc.Row{
		{"project_id": "p1", "title": "low", "score": 6},
		{"project_id": "p1", "title": "high", "score": 20},
		{"project_id": "p1", "title": "mid", "score": 12},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rows, err := store.Select(ctx, "risk_entries", recordsvc.Filter{"project_id": "p1"},
		recordsvc.Order{Field: "score", Descending: true})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if rows[0]["title"] != "high" || rows[2]["title"] != "low" {
		t.Fatalf("unexpected order: %v", rows)
	}
}
