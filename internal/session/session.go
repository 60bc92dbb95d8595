// Package session defines the current-user boundary. The core treats the
// identity as opaque; absence of one is a hard failure for every operation
// that needs it.
package session

import (
	"context"

	"plancore/pkg/domain"
)

// Provider exposes the identity all reads and writes are scoped by.
type Provider interface {
	Identity(ctx context.Context) (string, error)
}

// Static is a provider with a fixed identity. An empty identity behaves as
// an unauthenticated session.
type Static string

// Identity implements Provider.
func (s Static) Identity(context.Context) (string, error) {
	if s == "" {
		return "", domain.ErrNoIdentity
	}
	return string(s), nil
}
