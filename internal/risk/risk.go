// Package risk holds the risk register of the selected project, ordered by
// descending risk score. Score is probability times impact and is recomputed
// on every write that touches either factor.
package risk

import (
	"context"

	"plancore/internal/feature"
	"plancore/internal/observe"
	"plancore/internal/recordsvc"
	"plancore/pkg/domain"
)

// DefaultHighPriorityThreshold is the score cutoff for the high-priority
// subset: probability and impact both above the midpoint.
const DefaultHighPriorityThreshold = 15

// Option configures the risk store.
type Option func(*feature.Config[domain.RiskEntry])

// WithLogger overrides the store logger.
func WithLogger(log observe.Logger) Option {
	return func(c *feature.Config[domain.RiskEntry]) { c.Logger = log }
}

// WithMetrics overrides the metrics recorder.
func WithMetrics(rec observe.MetricsRecorder) Option {
	return func(c *feature.Config[domain.RiskEntry]) { c.Metrics = rec }
}

// Store is the feature record store for risk entries.
type Store struct {
	*feature.Store[domain.RiskEntry]
}

// NewStore constructs a risk store over the backend.
func NewStore(backend recordsvc.Backend, opts ...Option) *Store {
	cfg := feature.Config[domain.RiskEntry]{
		Name:       "risk",
		Collection: recordsvc.NewCollection[domain.RiskEntry](backend, string(domain.CollectionRiskEntries)),
		Order:      recordsvc.Order{Field: "score", Descending: true},
		Less: func(a, b domain.RiskEntry) bool {
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			return a.CreatedAt.After(b.CreatedAt)
		},
		UpdatePolicy: feature.ApplyThenConfirm,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store{Store: feature.New(cfg)}
}

// Add inserts a risk entry with its score computed from probability and
// impact. Status and provenance default to open and human-authored.
func (s *Store) Add(ctx context.Context, r domain.RiskEntry) (domain.RiskEntry, error) {
	r.Score = r.ComputeScore()
	if r.Status == "" {
		r.Status = domain.RiskOpen
	}
	if r.Source == "" {
		r.Source = domain.SourceHuman
	}
	return s.Create(ctx, r)
}

// UpdateRisk applies a typed partial update. When the patch touches
// probability or impact, the stored score is recomputed from the resulting
// pair, which requires the record to be loaded.
func (s *Store) UpdateRisk(ctx context.Context, id string, patch domain.RiskPatch) error {
	fields := patch.Fields()
	if patch.Probability != nil || patch.Impact != nil {
		current, ok := s.Find(id)
		if !ok {
			return domain.NotFoundError{Collection: domain.CollectionRiskEntries, ID: id}
		}
		p := current.Probability
		if patch.Probability != nil {
			p = *patch.Probability
		}
		impact := current.Impact
		if patch.Impact != nil {
			impact = *patch.Impact
		}
		fields["score"] = p * impact
	}
	return s.Update(ctx, id, recordsvc.Patch(fields))
}

// HighPriority returns loaded entries at or above the threshold score. A
// non-positive threshold uses the default cutoff.
func (s *Store) HighPriority(threshold int) []domain.RiskEntry {
	if threshold <= 0 {
		threshold = DefaultHighPriorityThreshold
	}
	return s.Filter(func(r domain.RiskEntry) bool {
		return r.Score >= threshold
	})
}

// ByCategory returns loaded entries in the given category.
func (s *Store) ByCategory(cat domain.RiskCategory) []domain.RiskEntry {
	return s.Filter(func(r domain.RiskEntry) bool {
		return r.Category == cat
	})
}
