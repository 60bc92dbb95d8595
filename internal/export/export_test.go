package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"plancore/internal/blob"
	"plancore/pkg/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestExportRoundTrip(t *testing.T) {
	store := blob.NewMemoryStore()
	exporter := NewExporter(store)
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	exporter.SetClock(fixedClock(at))

	project := domain.Project{
		Base:     domain.Base{ID: "p1"},
		Name:     "Harbor Bridge Upgrade",
		Category: domain.CategoryInfrastructure,
		Status:   domain.StatusActive,
		OwnerID:  "u1",
	}
	sections := []domain.CharterSection{
		{Base: domain.Base{ID: "s1"}, ProjectID: "p1", Title: "Purpose", Position: 1, Completed: true},
	}
	risks := []domain.RiskEntry{
		{Base: domain.Base{ID: "r1"}, ProjectID: "p1", Title: "Permit delay", Probability: 4, Impact: 5, Score: 20},
	}

	info, err := exporter.Export(context.Background(), project, sections, risks)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if info.Key != "exports/harbor-bridge-upgrade-20260314T092653Z.json" {
		t.Fatalf("unexpected key %q", info.Key)
	}
	if info.ContentType != "application/json" {
		t.Fatalf("content type = %q", info.ContentType)
	}
	if info.Metadata["project_id"] != "p1" {
		t.Fatalf("metadata = %v", info.Metadata)
	}

	doc, err := Read(context.Background(), store, info.Key)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.Project.ID != "p1" || doc.Project.Name != project.Name {
		t.Fatalf("project lost: %+v", doc.Project)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].Title != "Purpose" {
		t.Fatalf("sections lost: %v", doc.Sections)
	}
	if len(doc.Risks) != 1 || doc.Risks[0].Score != 20 {
		t.Fatalf("risks lost: %v", doc.Risks)
	}
	if !doc.ExportedAt.Equal(at) {
		t.Fatalf("exported at = %v, want %v", doc.ExportedAt, at)
	}
}

func TestExportRequiresPersistedProject(t *testing.T) {
	exporter := NewExporter(blob.NewMemoryStore())
	if _, err := exporter.Export(context.Background(), domain.Project{Name: "draft"}, nil, nil); err == nil {
		t.Fatal("expected error for project without id")
	}
}

func TestKeySlugsUnfriendlyNames(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	key := Key("Phase 2: Überholung & Ausbau!", at)
	if !strings.HasPrefix(key, "exports/") || !strings.HasSuffix(key, ".json") {
		t.Fatalf("malformed key %q", key)
	}
	if strings.ContainsAny(key, " :&!") {
		t.Fatalf("key not slugged: %q", key)
	}

	if got := Key("", at); !strings.HasPrefix(got, "exports/project-") {
		t.Fatalf("empty name fallback wrong: %q", got)
	}
}

func TestRepeatedExportsGetDistinctKeys(t *testing.T) {
	store := blob.NewMemoryStore()
	exporter := NewExporter(store)
	project := domain.Project{Base: domain.Base{ID: "p1"}, Name: "Depot Refit"}

	exporter.SetClock(fixedClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)))
	if _, err := exporter.Export(context.Background(), project, nil, nil); err != nil {
		t.Fatalf("first export: %v", err)
	}
	exporter.SetClock(fixedClock(time.Date(2026, 3, 14, 9, 0, 1, 0, time.UTC)))
	if _, err := exporter.Export(context.Background(), project, nil, nil); err != nil {
		t.Fatalf("second export: %v", err)
	}

	infos, err := store.List(context.Background(), "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(infos))
	}
}
