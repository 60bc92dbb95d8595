package urlsync

import (
	"context"
	"testing"
	"time"

	"plancore/internal/recordsvc"
	"plancore/internal/recordsvc/memory"
	"plancore/internal/selection"
	"plancore/internal/session"
	"plancore/pkg/domain"
)

func newStore(t *testing.T, projectNames ...string) (*selection.Store, []string) {
	t.Helper()
	backend := memory.NewStore()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	tick := 0
	backend.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	ids := make([]string, 0, len(projectNames))
	for _, name := range projectNames {
		rows, err := backend.Insert(context.Background(), string(domain.CollectionProjects),
			[]recordsvc.Row{{"name": name, "owner_id": "u1"}})
		if err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
		ids = append(ids, rows[0]["id"].(string))
	}
	store := selection.New(backend, session.Static("u1"))
	if len(projectNames) > 0 {
		if err := store.LoadProjects(context.Background()); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	return store, ids
}

func newLocation(t *testing.T, raw string) *MemoryLocation {
	t.Helper()
	loc, err := NewMemoryLocation(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return loc
}

func TestBindAdoptsURLValue(t *testing.T) {
	store, ids := newStore(t, "first", "second")
	// Loading auto-selected ids[1] (newest); the URL carries ids[0].
	loc := newLocation(t, "https://app.example/dashboard?project="+ids[0])

	sync := New(store, loc)
	defer sync.Bind()()

	if store.SelectedID() != ids[0] {
		t.Fatalf("selection = %q, want URL value %q", store.SelectedID(), ids[0])
	}
	if loc.Get(DefaultKey) != ids[0] {
		t.Fatalf("URL changed unexpectedly: %q", loc.Get(DefaultKey))
	}
}

func TestBindWritesSelectionToEmptyURL(t *testing.T) {
	store, ids := newStore(t, "only")
	loc := newLocation(t, "https://app.example/dashboard")

	sync := New(store, loc)
	defer sync.Bind()()

	if loc.Get(DefaultKey) != ids[0] {
		t.Fatalf("URL param = %q, want %q", loc.Get(DefaultKey), ids[0])
	}
}

func TestBindLeavesEmptySidesUntouched(t *testing.T) {
	store, _ := newStore(t)
	if err := store.LoadProjects(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	loc := newLocation(t, "https://app.example/dashboard")

	sync := New(store, loc)
	defer sync.Bind()()
	sync.Reconcile()

	if got := store.SelectedID(); got != "" {
		t.Fatalf("selection appeared from nowhere: %q", got)
	}
	if got := loc.Get(DefaultKey); got != "" {
		t.Fatalf("param written with no selection: %q", got)
	}
	if loc.String() != "https://app.example/dashboard" {
		t.Fatalf("URL changed: %q", loc.String())
	}
}

func TestSelectionChangePropagatesToURL(t *testing.T) {
	store, ids := newStore(t, "first", "second")
	loc := newLocation(t, "https://app.example/dashboard")

	sync := New(store, loc)
	defer sync.Bind()()

	store.Select(ids[0])
	if loc.Get(DefaultKey) != ids[0] {
		t.Fatalf("URL param = %q, want %q", loc.Get(DefaultKey), ids[0])
	}
}

func TestClearedSelectionRemovesParam(t *testing.T) {
	store, _ := newStore(t, "only")
	loc := newLocation(t, "https://app.example/dashboard")

	sync := New(store, loc)
	defer sync.Bind()()

	store.Select("")
	if got := loc.Get(DefaultKey); got != "" {
		t.Fatalf("param should be removed, got %q", got)
	}
}

func TestExternalURLEditAdopted(t *testing.T) {
	store, ids := newStore(t, "first", "second")
	loc := newLocation(t, "https://app.example/dashboard")

	sync := New(store, loc)
	defer sync.Bind()()

	// Simulate the address bar being edited out from under us.
	loc.Set(DefaultKey, ids[0])
	sync.Reconcile()

	if store.SelectedID() != ids[0] {
		t.Fatalf("selection = %q, want %q", store.SelectedID(), ids[0])
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	store, ids := newStore(t, "only")
	loc := newLocation(t, "https://app.example/dashboard?project="+ids[0])

	sync := New(store, loc)
	defer sync.Bind()()

	before := loc.String()
	selected := store.SelectedID()
	for i := 0; i < 5; i++ {
		sync.Reconcile()
	}
	if loc.String() != before || store.SelectedID() != selected {
		t.Fatalf("reconcile changed an already-agreed state: %q / %q", loc.String(), store.SelectedID())
	}
}

func TestCustomKey(t *testing.T) {
	store, ids := newStore(t, "only")
	loc := newLocation(t, "https://app.example/dashboard?p="+ids[0])

	sync := New(store, loc, WithKey("p"))
	defer sync.Bind()()

	if store.SelectedID() != ids[0] {
		t.Fatalf("selection = %q, want %q", store.SelectedID(), ids[0])
	}
}

func TestMemoryLocationPreservesOtherParams(t *testing.T) {
	loc := newLocation(t, "https://app.example/dashboard?tab=charter&project=p1")
	loc.Set("project", "p2")
	if loc.Get("tab") != "charter" {
		t.Fatalf("unrelated param lost: %q", loc.Get("tab"))
	}
	loc.Delete("project")
	if loc.Get("project") != "" || loc.Get("tab") != "charter" {
		t.Fatalf("delete touched the wrong param: %s", loc.String())
	}
}
