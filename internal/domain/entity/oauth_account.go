// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// OAuthAccount links a User to an external identity provider.
// A user may hold at most one linked account per provider, and the
// (Provider, ProviderAccountID) pair is unique across the system.
type OAuthAccount struct {
	ID                uuid.UUID  // The unique ID for this link record.
	UserID            uuid.UUID  // The local user this external identity belongs to.
	Provider          string     // The provider name, e.g. "google".
	ProviderAccountID string     // The provider-assigned account id (e.g. Google's 'sub').
	AccessToken       string     // Provider access token, opaque to us. May be empty.
	RefreshToken      string     // Provider refresh token, opaque to us. May be empty.
	IDToken           string     // Raw id_token from the provider, if any.
	Scope             string     // Granted scopes as returned by the provider.
	ExpiresAt         *time.Time // Provider access token expiry, if known.
	CreatedAt         time.Time  // Timestamp of when this link was created.
	UpdatedAt         time.Time  // Timestamp of the last provider token refresh.
}
