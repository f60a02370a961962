// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core identity record of the portal. One row per person,
// regardless of how they authenticate.
type User struct {
	ID           uuid.UUID // The unique identifier for the user.
	Email        string    // The user's login email. Stored lowercase, unique across the system.
	Name         string    // The user's display name.
	PasswordHash string    // Encoded PBKDF2 hash. Empty for OAuth-only accounts.
	Role         Role      // The user's role: admin, teacher or student.
	Suspended    bool      // When true, all new authentication for this user is blocked.
	CreatedAt    time.Time // Timestamp of when this user account was created.
	UpdatedAt    time.Time // Timestamp of the last modification to this user's data.
}

// CanAuthenticate reports whether the account is allowed to start a new session.
func (u *User) CanAuthenticate() bool {
	return !u.Suspended
}

// HasPassword reports whether the account carries a local password credential.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
