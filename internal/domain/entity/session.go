// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is the ephemeral mapping from an opaque refresh token to a user.
// It lives only in the expiring key-value store, never in the relational
// database. Possession of a valid, non-expired refresh token is proof of a
// still-authenticated session.
type Session struct {
	RefreshToken string    // The opaque token string, also the store key.
	UserID       uuid.UUID // The user this session belongs to.
	CreatedAt    time.Time // Timestamp of when this session was created.
	ExpiresAt    time.Time // Derived from the store TTL at read time.
}

// SessionInfo is the user-facing summary of an active session, used by the
// session management surface. The raw refresh token is never exposed here.
type SessionInfo struct {
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
