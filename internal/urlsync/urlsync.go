// Package urlsync keeps one URL query key and the selection store's selected
// id mutually consistent without navigation. Reconciliation is a small state
// machine around a last-agreed value, so every pass is a guaranteed no-op
// once the two sides already agree.
package urlsync

import (
	"sync"
	"sync/atomic"

	"plancore/internal/selection"
)

// DefaultKey is the query parameter carrying the selected project id.
const DefaultKey = "project"

// Location abstracts the address bar: read a query value and replace it
// without adding a history entry or reloading.
type Location interface {
	Get(key string) string
	Set(key, value string)
	Delete(key string)
}

// Synchronizer reconciles a Location with a selection store.
type Synchronizer struct {
	store *selection.Store
	loc   Location
	key   string

	mu          sync.Mutex
	lastAgreed  string
	reconciling atomic.Bool
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithKey overrides the query parameter name.
func WithKey(key string) Option {
	return func(s *Synchronizer) {
		if key != "" {
			s.key = key
		}
	}
}

// New constructs a synchronizer between the store and the location.
func New(store *selection.Store, loc Location, opts ...Option) *Synchronizer {
	s := &Synchronizer{store: store, loc: loc, key: DefaultKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind reconciles immediately and subscribes to store changes so every
// selection change propagates to the URL. The returned function unbinds.
// Location edits have no change feed; callers report them via Reconcile.
func (s *Synchronizer) Bind() func() {
	unsubscribe := s.store.Subscribe(func(selection.State) {
		s.Reconcile()
	})
	s.Reconcile()
	return unsubscribe
}

// Reconcile runs the inbound and outbound passes until URL and selection
// agree. Convergence takes at most one full cycle; re-entrant calls caused
// by the store notification of an inbound select are absorbed.
func (s *Synchronizer) Reconcile() {
	if !s.reconciling.CompareAndSwap(false, true) {
		return
	}
	defer s.reconciling.Store(false)
	for i := 0; i < 2; i++ {
		if s.pass() {
			return
		}
	}
}

// pass performs one reconciliation step and reports whether the two sides
// agree. Inbound wins when the URL moved away from the last agreed value;
// otherwise the selection is written out.
func (s *Synchronizer) pass() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	urlValue := s.loc.Get(s.key)
	selected := s.store.SelectedID()
	if urlValue == selected {
		s.lastAgreed = selected
		return true
	}
	if urlValue != "" && urlValue != s.lastAgreed {
		// Inbound: adopt the incoming id.
		s.lastAgreed = urlValue
		s.store.Select(urlValue)
		return false
	}
	// Outbound: rewrite the URL to carry the selection.
	if selected == "" {
		s.loc.Delete(s.key)
	} else {
		s.loc.Set(s.key, selected)
	}
	s.lastAgreed = selected
	return false
}
