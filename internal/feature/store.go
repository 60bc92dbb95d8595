// Package feature implements the shared shape of per-tool record stores:
// the child records of the currently selected project, kept reasonably in
// sync with the remote record service under an explicit optimistic-write
// policy. Concrete tools (charter, risk register) instantiate Store with
// their record type, ordering rule, and defaults.
package feature

import (
	"context"
	"sort"
	"sync"
	"time"

	"plancore/internal/observe"
	"plancore/internal/recordsvc"
)

// WritePolicy names how an update's local merge relates to the remote write.
type WritePolicy int

const (
	// ApplyThenConfirm merges into local state before the remote write
	// returns. A failed write is surfaced to the caller but the local view
	// is not rolled back; the UI never waits on the network to show an edit.
	ApplyThenConfirm WritePolicy = iota
	// ConfirmThenApply mutates local state only after remote confirmation.
	ConfirmThenApply
)

// String returns the policy name.
func (p WritePolicy) String() string {
	switch p {
	case ApplyThenConfirm:
		return "apply-then-confirm"
	case ConfirmThenApply:
		return "confirm-then-apply"
	default:
		return "unknown"
	}
}

// Record is the contract feature records satisfy.
type Record interface {
	RecordID() string
	RecordProjectID() string
}

// Config parameterizes a feature store instance.
type Config[T Record] struct {
	// Name is the short feature name used in metric operation labels.
	Name string
	// Collection is the typed remote collection.
	Collection recordsvc.Collection[T]
	// Order is the remote ordering hint passed to every load.
	Order recordsvc.Order
	// Less, when set, keeps the in-memory list sorted after every mutation.
	Less func(a, b T) bool
	// Defaults, when set, produces the records materialized for a project
	// whose first load returns zero rows.
	Defaults func(projectID string) []T
	// UpdatePolicy governs the update path. Deletes always confirm first.
	UpdatePolicy WritePolicy
	Logger       observe.Logger
	Metrics      observe.MetricsRecorder
}

// State is an immutable snapshot published to subscribers.
type State[T Record] struct {
	Records   []T
	ProjectID string
	Loading   bool
	Err       string
}

// Store holds the feature records for one project at a time. Switching
// projects discards the previous project's records and reloads; there is no
// per-project cache.
type Store[T Record] struct {
	mu        sync.Mutex
	seedMu    sync.Mutex
	cfg       Config[T]
	records   []T
	projectID string
	loading   bool
	err       string
	loadGen   uint64

	subMu   sync.Mutex
	subs    map[int]func(State[T])
	nextSub int
}

// New constructs a feature store from the config.
func New[T Record](cfg Config[T]) *Store[T] {
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics{}
	}
	return &Store[T]{cfg: cfg, subs: make(map[int]func(State[T]))}
}

// Subscribe registers fn to receive every state change. The returned
// function removes the subscription.
func (s *Store[T]) Subscribe(fn func(State[T])) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Load fetches all records for projectID. When the fetch returns zero rows
// and the feature defines defaults, the default set is bulk-inserted and the
// returned rows adopted, so defaults are persisted rather than synthesized
// locally. Responses superseded by a newer load are discarded.
func (s *Store[T]) Load(ctx context.Context, projectID string) error {
	start := time.Now()
	s.mu.Lock()
	s.loadGen++
	gen := s.loadGen
	s.loading = true
	s.err = ""
	if s.projectID != projectID {
		s.records = nil
	}
	s.projectID = projectID
	s.mu.Unlock()
	s.notify()

	rows, err := s.cfg.Collection.Select(ctx,
		recordsvc.Filter{"project_id": projectID}, s.cfg.Order)
	if err == nil && len(rows) == 0 && s.cfg.Defaults != nil {
		rows, err = s.materializeDefaults(ctx, projectID)
	}
	if err != nil {
		s.cfg.Logger.Warn("load failed",
			"feature", s.name(), "project_id", projectID, "error", err)
		s.mu.Lock()
		if gen == s.loadGen {
			s.loading = false
			s.err = err.Error()
		}
		s.mu.Unlock()
		s.notify()
		s.observe(ctx, "load", start, err)
		return err
	}

	s.mu.Lock()
	if gen != s.loadGen {
		s.mu.Unlock()
		s.cfg.Logger.Debug("superseded load discarded",
			"feature", s.name(), "project_id", projectID)
		s.observe(ctx, "load", start, nil)
		return nil
	}
	s.records = rows
	s.sortLocked()
	s.loading = false
	s.mu.Unlock()
	s.notify()
	s.observe(ctx, "load", start, nil)
	return nil
}

// EnsureDefaults materializes the feature's default records for projectID if
// it has none, returning the project's records either way. It is the
// explicit form of the materialization Load performs implicitly.
func (s *Store[T]) EnsureDefaults(ctx context.Context, projectID string) ([]T, error) {
	rows, err := s.cfg.Collection.Select(ctx,
		recordsvc.Filter{"project_id": projectID}, s.cfg.Order)
	if err != nil || len(rows) > 0 || s.cfg.Defaults == nil {
		return rows, err
	}
	return s.materializeDefaults(ctx, projectID)
}

// materializeDefaults persists the default set for projectID unless another
// caller already has. The re-read under seedMu keeps overlapping first loads
// from inserting the defaults twice.
func (s *Store[T]) materializeDefaults(ctx context.Context, projectID string) ([]T, error) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	rows, err := s.cfg.Collection.Select(ctx,
		recordsvc.Filter{"project_id": projectID}, s.cfg.Order)
	if err != nil || len(rows) > 0 {
		return rows, err
	}
	defaults := s.cfg.Defaults(projectID)
	if len(defaults) == 0 {
		return rows, nil
	}
	rows, err = s.cfg.Collection.Insert(ctx, defaults)
	if err == nil {
		s.cfg.Logger.Info("default records materialized",
			"feature", s.name(), "project_id", projectID, "count", len(rows))
	}
	return rows, err
}

// Create inserts the record remotely, then prepends it to local state,
// re-sorting when the feature has an ordering rule.
func (s *Store[T]) Create(ctx context.Context, record T) (T, error) {
	start := time.Now()
	var zero T
	inserted, err := s.cfg.Collection.Insert(ctx, []T{record})
	if err != nil {
		s.recordErr("create", err)
		s.observe(ctx, "create", start, err)
		return zero, err
	}
	created := inserted[0]

	s.mu.Lock()
	if created.RecordProjectID() == s.projectID {
		s.records = append([]T{created}, s.records...)
		s.sortLocked()
	}
	s.mu.Unlock()
	s.notify()
	s.observe(ctx, "create", start, nil)
	return created, nil
}

// Update applies the patch under the configured write policy. Under
// ApplyThenConfirm the local merge is visible before the remote call is
// issued and survives its failure; under ConfirmThenApply the merge waits
// for confirmation. Either way the patch carries a fresh updated timestamp
// and a failure is returned to the caller.
func (s *Store[T]) Update(ctx context.Context, id string, patch recordsvc.Patch) error {
	start := time.Now()
	cloned := recordsvc.Patch(recordsvc.CloneRow(recordsvc.Row(patch)))
	stamped := recordsvc.StampUpdate(cloned, time.Now())

	if s.cfg.UpdatePolicy == ApplyThenConfirm {
		if err := s.mergeLocal(id, stamped); err != nil {
			s.recordErr("update", err)
			s.observe(ctx, "update", start, err)
			return err
		}
		s.notify()
	}
	if err := s.cfg.Collection.Update(ctx, recordsvc.Filter{"id": id}, stamped); err != nil {
		s.recordErr("update", err)
		s.observe(ctx, "update", start, err)
		return err
	}
	if s.cfg.UpdatePolicy == ConfirmThenApply {
		if err := s.mergeLocal(id, stamped); err != nil {
			s.recordErr("update", err)
			s.observe(ctx, "update", start, err)
			return err
		}
		s.notify()
	}
	s.observe(ctx, "update", start, nil)
	return nil
}

// Delete removes the record remotely, then locally on success only.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	start := time.Now()
	if err := s.cfg.Collection.Delete(ctx, recordsvc.Filter{"id": id}); err != nil {
		s.recordErr("delete", err)
		s.observe(ctx, "delete", start, err)
		return err
	}
	s.mu.Lock()
	kept := s.records[:0]
	for _, r := range s.records {
		if r.RecordID() != id {
			kept = append(kept, r)
		}
	}
	s.records = kept
	s.mu.Unlock()
	s.notify()
	s.observe(ctx, "delete", start, nil)
	return nil
}

// Clear resets the store to empty, preventing stale cross-project leakage
// when no project is selected.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	s.records = nil
	s.projectID = ""
	s.loading = false
	s.err = ""
	s.mu.Unlock()
	s.notify()
}

// Records returns a copy of the loaded records.
func (s *Store[T]) Records() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.records))
	copy(out, s.records)
	return out
}

// Find returns the loaded record with the given id.
func (s *Store[T]) Find(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.RecordID() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// Filter returns the loaded records satisfying pred.
func (s *Store[T]) Filter(pred func(T) bool) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0)
	for _, r := range s.records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// ProjectID returns the project the store currently holds records for.
func (s *Store[T]) ProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID
}

// State returns a snapshot of the store.
func (s *Store[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]T, len(s.records))
	copy(records, s.records)
	return State[T]{
		Records:   records,
		ProjectID: s.projectID,
		Loading:   s.loading,
		Err:       s.err,
	}
}

func (s *Store[T]) mergeLocal(id string, patch recordsvc.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.RecordID() != id {
			continue
		}
		merged, err := recordsvc.MergeRecord(r, patch)
		if err != nil {
			return err
		}
		s.records[i] = merged
		s.sortLocked()
		return nil
	}
	// Records not loaded for this project; the remote write still applies.
	return nil
}

func (s *Store[T]) sortLocked() {
	if s.cfg.Less == nil {
		return
	}
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.cfg.Less(s.records[i], s.records[j])
	})
}

func (s *Store[T]) recordErr(op string, err error) {
	s.cfg.Logger.Warn(op+" failed", "feature", s.name(), "error", err)
	s.mu.Lock()
	s.err = err.Error()
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

func (s *Store[T]) name() string {
	if s.cfg.Name == "" {
		return "feature"
	}
	return s.cfg.Name
}

func (s *Store[T]) notify() {
	state := s.State()
	s.subMu.Lock()
	fns := make([]func(State[T]), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(state)
	}
}

func (s *Store[T]) observe(ctx context.Context, op string, start time.Time, err error) {
	s.cfg.Metrics.Observe(ctx, s.name()+"_"+op, err == nil, time.Since(start))
}
