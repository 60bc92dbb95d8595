package domain

import (
	"errors"
	"fmt"
)

// ErrNoIdentity is returned by any operation that requires an authenticated
// user when the session provider has none.
var ErrNoIdentity = errors.New("no authenticated user")

// NotFoundError is returned when a record lookup fails.
type NotFoundError struct {
	Collection Collection
	ID         string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Collection, e.ID)
}

// AccessDeniedError is returned when a mutation targets a record the current
// user does not own. The remote service's owner filter remains the
// authoritative enforcement; this is the client-side check.
type AccessDeniedError struct {
	Collection Collection
	ID         string
}

func (e AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s %q is not owned by the current user", e.Collection, e.ID)
}
