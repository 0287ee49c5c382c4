package domain

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated principal attached to a connection by the
// authentication middleware before the websocket handler runs. It is
// immutable for the life of the session.
type Identity struct {
	UserID          uuid.UUID
	IsAuthenticated bool
}

// UserDirectory resolves the tenant scope for a user. Backed by the main
// application's user store.
type UserDirectory interface {
	// LookupCompany returns the company id for a user. Returns
	// ErrUserNotFound when the user does not exist or carries no company
	// association (operator accounts).
	LookupCompany(ctx context.Context, userID uuid.UUID) (string, error)
}
