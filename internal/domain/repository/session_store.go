// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"
	"time"

	"portal/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for session persistence.
var (
	// ErrSessionNotFound is returned when a refresh token has no live mapping,
	// either because it never existed, was rotated away, or its TTL elapsed.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionStoreUnavailable is returned when the backing store cannot be
	// reached. Authentication cannot proceed without session durability, so
	// there is no degraded mode; callers surface this as a retryable failure.
	ErrSessionStoreUnavailable = errors.New("session store unavailable")
	// ErrBulkClearForbidden is returned when DeleteAll is invoked outside the
	// test environment.
	ErrBulkClearForbidden = errors.New("bulk session clear is only permitted in the test environment")
)

// SessionStore defines the contract for the expiring refresh-token store.
// Every operation is atomic per key; correctness never relies on
// transactions across keys.
type SessionStore interface {
	// Create writes the refreshToken -> userID mapping with the given TTL.
	// Idempotent per unique token.
	Create(ctx context.Context, userID uuid.UUID, refreshToken string, ttl time.Duration) (*entity.Session, error)

	// Get returns the session for a refresh token, or ErrSessionNotFound if
	// the key is absent or its remaining TTL is zero or negative (the latter
	// tolerates store clock skew).
	Get(ctx context.Context, refreshToken string) (*entity.Session, error)

	// Delete removes a session. Returns whether a record existed; deleting an
	// absent token is not an error.
	Delete(ctx context.Context, refreshToken string) (bool, error)

	// Refresh extends the TTL of an existing session in place without
	// changing the key. Used for idle-timeout renewal, distinct from rotation.
	Refresh(ctx context.Context, refreshToken string, ttl time.Duration) (*entity.Session, error)

	// GetAllForUser returns the refresh tokens of every live session for a user.
	GetAllForUser(ctx context.Context, userID uuid.UUID) ([]string, error)

	// DeleteAllForUser removes every session for a user and returns the count.
	// Supports "log out everywhere" and suspension-triggered revocation.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int, error)

	// DeleteAll clears every session. Administrative escape hatch for tests;
	// fails with ErrBulkClearForbidden in any non-test environment.
	DeleteAll(ctx context.Context) error
}
