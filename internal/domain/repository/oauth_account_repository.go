// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"portal/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrOAuthAccountNotFound is returned when no link exists for a provider identity.
var ErrOAuthAccountNotFound = errors.New("oauth account not found")

// OAuthAccountRepository defines the standard operations for provider-link persistence.
type OAuthAccountRepository interface {
	// FindByProvider retrieves a link by its (provider, providerAccountID) pair.
	FindByProvider(ctx context.Context, provider, providerAccountID string) (*entity.OAuthAccount, error)

	// FindByUser retrieves the link a user holds for a given provider, if any.
	FindByUser(ctx context.Context, userID uuid.UUID, provider string) (*entity.OAuthAccount, error)

	// Create persists a new provider link. The storage layer enforces the
	// (provider, provider_account_id) uniqueness constraint.
	Create(ctx context.Context, account *entity.OAuthAccount) error

	// UpdateTokens refreshes the stored provider tokens on a subsequent login.
	UpdateTokens(ctx context.Context, account *entity.OAuthAccount) error
}
