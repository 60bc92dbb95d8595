package observe

import (
	"context"
	"testing"
	"time"
)

func TestExpvarRecorderAggregates(t *testing.T) {
	rec := NewExpvarRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "load_projects", true, 20*time.Millisecond)
	rec.Observe(ctx, "load_projects", true, 30*time.Millisecond)
	rec.Observe(ctx, "load_projects", false, 5*time.Millisecond)
	rec.Observe(ctx, "charter_update", true, time.Millisecond)

	snap := rec.Snapshot()
	stats := snap.Operations["load_projects"]
	if stats.Success != 2 {
		t.Fatalf("success count = %d, want 2", stats.Success)
	}
	if stats.Error != 1 {
		t.Fatalf("error count = %d, want 1", stats.Error)
	}
	if stats.DurationMS != 55 {
		t.Fatalf("durations total = %v, want 55", stats.DurationMS)
	}
	if _, ok := snap.Operations["charter_update"]; !ok {
		t.Fatal("missing charter_update stats")
	}
}

func TestExpvarRecorderIgnoresEmptyOperation(t *testing.T) {
	rec := NewExpvarRecorder("")
	rec.Observe(context.Background(), "", true, time.Second)
	if len(rec.Snapshot().Operations) != 0 {
		t.Fatal("empty operation must be discarded")
	}
}

func TestExpvarRecorderGeneratesUniqueNames(t *testing.T) {
	a := NewExpvarRecorder("")
	b := NewExpvarRecorder("")
	if a.Name() == b.Name() {
		t.Fatalf("expected unique names, both %q", a.Name())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	rec := NewExpvarRecorder("")
	rec.Observe(context.Background(), "load", true, time.Millisecond)
	snap := rec.Snapshot()
	snap.Operations["load"] = OperationStats{Success: 99}
	if rec.Snapshot().Operations["load"].Success != 1 {
		t.Fatal("snapshot aliased recorder state")
	}
}
