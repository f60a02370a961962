package service

import (
	"context"
	"time"
)

// OAuthProfile is the normalized identity returned by a provider after a
// successful authorization-code exchange.
type OAuthProfile struct {
	ProviderAccountID string     // Provider-assigned stable account id.
	Email             string     // Verified email reported by the provider.
	Name              string     // Display name, may be empty.
	AccessToken       string     // Provider access token, opaque to us.
	RefreshToken      string     // Provider refresh token, may be empty.
	IDToken           string     // Raw id_token, if the provider issued one.
	Scope             string     // Granted scopes.
	ExpiresAt         *time.Time // Provider token expiry, if known.
}

// OAuthProvider abstracts an external identity provider's code-exchange and
// profile endpoints. One implementation per provider, looked up by Name.
type OAuthProvider interface {
	// Name returns the provider identifier used in routes and storage,
	// e.g. "google".
	Name() string

	// AuthorizationURL builds the provider consent URL for the given
	// CSRF state parameter.
	AuthorizationURL(state string) string

	// Exchange trades an authorization code for the user's profile.
	// All network calls are bounded by the caller's context.
	Exchange(ctx context.Context, code string) (*OAuthProfile, error)
}

// OAuthProviderRegistry resolves providers by name.
type OAuthProviderRegistry interface {
	// Lookup returns the provider registered under name, or false.
	Lookup(name string) (OAuthProvider, bool)
}
