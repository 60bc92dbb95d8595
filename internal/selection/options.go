package selection

import (
	"plancore/internal/observe"
	"plancore/internal/prefs"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the store logger.
func WithLogger(log observe.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics overrides the metrics recorder.
func WithMetrics(rec observe.MetricsRecorder) Option {
	return func(s *Store) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithStateFile persists the selected project id across sessions.
func WithStateFile(f *prefs.File) Option {
	return func(s *Store) { s.state = f }
}
