// Package charter holds the charter sections of the selected project. A
// project with no sections is materialized with the standard six on first
// load, so every charter starts from the same scaffold.
package charter

import (
	"context"

	"plancore/internal/feature"
	"plancore/internal/observe"
	"plancore/internal/recordsvc"
	"plancore/pkg/domain"
)

// DefaultTitles are the sections materialized for a new project charter, in
// ordinal position order.
var DefaultTitles = []string{
	"Purpose",
	"Scope",
	"Objectives",
	"Success Criteria",
	"Stakeholders",
	"Constraints",
}

// Option configures the charter store.
type Option func(*feature.Config[domain.CharterSection])

// WithLogger overrides the store logger.
func WithLogger(log observe.Logger) Option {
	return func(c *feature.Config[domain.CharterSection]) { c.Logger = log }
}

// WithMetrics overrides the metrics recorder.
func WithMetrics(rec observe.MetricsRecorder) Option {
	return func(c *feature.Config[domain.CharterSection]) { c.Metrics = rec }
}

// Store is the feature record store for charter sections, ordered by
// position.
type Store struct {
	*feature.Store[domain.CharterSection]
}

// NewStore constructs a charter store over the backend.
func NewStore(backend recordsvc.Backend, opts ...Option) *Store {
	cfg := feature.Config[domain.CharterSection]{
		Name:       "charter",
		Collection: recordsvc.NewCollection[domain.CharterSection](backend, string(domain.CollectionCharterSections)),
		Order:      recordsvc.Order{Field: "position"},
		Less: func(a, b domain.CharterSection) bool {
			if a.Position != b.Position {
				return a.Position < b.Position
			}
			return a.CreatedAt.Before(b.CreatedAt)
		},
		Defaults:     defaultSections,
		UpdatePolicy: feature.ApplyThenConfirm,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store{Store: feature.New(cfg)}
}

func defaultSections(projectID string) []domain.CharterSection {
	out := make([]domain.CharterSection, 0, len(DefaultTitles))
	for i, title := range DefaultTitles {
		out = append(out, domain.CharterSection{
			ProjectID: projectID,
			Title:     title,
			Position:  i + 1,
			Source:    domain.SourceHuman,
		})
	}
	return out
}

// Sections returns the loaded sections in position order.
func (s *Store) Sections() []domain.CharterSection {
	return s.Records()
}

// UpdateSection applies a typed partial update to one section.
func (s *Store) UpdateSection(ctx context.Context, id string, patch domain.CharterSectionPatch) error {
	return s.Update(ctx, id, recordsvc.Patch(patch.Fields()))
}

// SetContent replaces a section's content.
func (s *Store) SetContent(ctx context.Context, id, content string) error {
	return s.UpdateSection(ctx, id, domain.CharterSectionPatch{Content: &content})
}

// SetCompleted marks a section complete or incomplete.
func (s *Store) SetCompleted(ctx context.Context, id string, done bool) error {
	return s.UpdateSection(ctx, id, domain.CharterSectionPatch{Completed: &done})
}

// CompletedCount returns how many loaded sections are marked complete.
func (s *Store) CompletedCount() int {
	count := 0
	for _, sec := range s.Records() {
		if sec.Completed {
			count++
		}
	}
	return count
}
