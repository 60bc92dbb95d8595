package observe

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsRecorder receives one observation per store operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

// Observe implements MetricsRecorder.
func (NopMetrics) Observe(context.Context, string, bool, time.Duration) {}

var expvarSeq uint64

// OperationStats aggregates the outcomes of one store operation.
type OperationStats struct {
	Success    int64   `json:"success"`
	Error      int64   `json:"error"`
	DurationMS float64 `json:"duration_ms_total"`
}

// ExpvarSnapshot captures a read-only view of the recorded metrics.
type ExpvarSnapshot struct {
	Operations map[string]OperationStats `json:"operations"`
	RecordedAt time.Time                 `json:"recorded_at"`
}

// ExpvarRecorder aggregates per-operation counters and duration totals and
// publishes them via expvar, for deployments that want process-local metrics
// without an external scrape target.
type ExpvarRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]OperationStats
}

// NewExpvarRecorder constructs an expvar-backed recorder and publishes it
// under the supplied name. An empty name gets a generated unique one.
func NewExpvarRecorder(name string) *ExpvarRecorder {
	if name == "" {
		name = fmt.Sprintf("plancore_store_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarRecorder{name: name, ops: make(map[string]OperationStats)}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarRecorder) Name() string { return r.name }

// Snapshot returns a copy of the aggregated metrics.
func (r *ExpvarRecorder) Snapshot() ExpvarSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make(map[string]OperationStats, len(r.ops))
	for op, stats := range r.ops {
		ops[op] = stats
	}
	return ExpvarSnapshot{Operations: ops, RecordedAt: time.Now().UTC()}
}

// Observe records a store operation outcome.
func (r *ExpvarRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	stats := r.ops[operation]
	stats.DurationMS += float64(duration) / float64(time.Millisecond)
	if success {
		stats.Success++
	} else {
		stats.Error++
	}
	r.ops[operation] = stats
	r.mu.Unlock()
}
