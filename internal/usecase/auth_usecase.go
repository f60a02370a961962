// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"portal/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     entity.Role
}

// LoginInput defines the data required to log in with email and password.
type LoginInput struct {
	Email    string
	Password string
}

// RefreshInput carries the opaque refresh token presented for rotation.
type RefreshInput struct {
	RefreshToken string
}

// LogoutInput carries the refresh token whose session should end.
type LogoutInput struct {
	RefreshToken string
}

// OAuthCallbackInput carries the provider callback parameters.
type OAuthCallbackInput struct {
	Provider string
	Code     string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created user's basic information.
type RegisterOutput struct {
	User *entity.User
}

// LoginOutput returns the issued token pair after any successful
// authentication, password or OAuth alike.
type LoginOutput struct {
	AccessToken  string
	RefreshToken string
	User         *entity.User
}

// AuthUsecase defines the interface for authentication business operations.
// This is the contract that the delivery layer depends on.
type AuthUsecase interface {
	// Register creates a new local-credential account.
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)

	// Login verifies a password credential and opens a new session.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	// Refresh rotates a refresh token: the presented token is consumed and a
	// brand-new pair is issued. A replayed token always fails.
	Refresh(ctx context.Context, input *RefreshInput) (*LoginOutput, error)

	// Logout ends the session behind a refresh token. Logging out an already
	// dead session succeeds.
	Logout(ctx context.Context, input *LogoutInput) error

	// OAuthAuthorizationURL builds the provider consent URL for a login attempt.
	OAuthAuthorizationURL(ctx context.Context, provider, state string) (string, error)

	// OAuthCallback completes the authorization-code flow: it resolves or
	// creates the local account behind the provider identity and opens a
	// session for it.
	OAuthCallback(ctx context.Context, input *OAuthCallbackInput) (*LoginOutput, error)
}
