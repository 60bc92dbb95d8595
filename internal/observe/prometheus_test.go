package observe

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()

	rec.Observe(ctx, "load_projects", true, 20*time.Millisecond)
	rec.Observe(ctx, "load_projects", false, 5*time.Millisecond)
	rec.Observe(ctx, "risk_create", true, time.Millisecond)

	if got := testutil.ToFloat64(rec.operations.WithLabelValues("load_projects", "success")); got != 1 {
		t.Fatalf("success counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.operations.WithLabelValues("load_projects", "error")); got != 1 {
		t.Fatalf("error counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.operations.WithLabelValues("risk_create", "success")); got != 1 {
		t.Fatalf("risk_create counter = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	if !names["plancore_store_operations_total"] || !names["plancore_store_operation_duration_seconds"] {
		t.Fatalf("expected both metric families, got %v", names)
	}
}

func TestPrometheusRecorderDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusRecorder(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := NewPrometheusRecorder(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestPrometheusRecorderIgnoresEmptyOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.Observe(context.Background(), "", true, time.Second)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if len(fam.GetMetric()) != 0 {
			t.Fatalf("expected no samples, got %v", fam)
		}
	}
}
