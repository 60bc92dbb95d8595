package urlsync

import (
	"net/url"
	"sync"
)

// MemoryLocation is a Location over a parsed URL. Embedders wrap whatever
// address-bar handle their host environment exposes; this implementation
// serves process-local consumers and tests.
type MemoryLocation struct {
	mu sync.Mutex
	u  *url.URL
}

// Compile-time contract assertion.
var _ Location = (*MemoryLocation)(nil)

// NewMemoryLocation parses raw into a mutable location.
func NewMemoryLocation(raw string) (*MemoryLocation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &MemoryLocation{u: u}, nil
}

// Get returns the query value for key, empty when absent.
func (l *MemoryLocation) Get(key string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.u.Query().Get(key)
}

// Set replaces the query value for key without navigation.
func (l *MemoryLocation) Set(key, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.u.Query()
	q.Set(key, value)
	l.u.RawQuery = q.Encode()
}

// Delete strips key from the query.
func (l *MemoryLocation) Delete(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.u.Query()
	q.Del(key)
	l.u.RawQuery = q.Encode()
}

// String renders the current URL.
func (l *MemoryLocation) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.u.String()
}
