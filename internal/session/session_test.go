package session

import (
	"context"
	"errors"
	"testing"

	"plancore/pkg/domain"
)

func TestStaticIdentity(t *testing.T) {
	ident, err := Static("u1").Identity(context.Background())
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	if ident != "u1" {
		t.Fatalf("identity = %q, want u1", ident)
	}
}

func TestEmptyStaticIsUnauthenticated(t *testing.T) {
	_, err := Static("").Identity(context.Background())
	if !errors.Is(err, domain.ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
}
