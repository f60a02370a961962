package service

import (
	"errors"
	"time"

	"portal/internal/domain/entity"

	"github.com/google/uuid"
)

// Token verification failure modes. The delivery layer collapses all of
// these into a uniform 401 so callers cannot distinguish expired from
// tampered tokens.
var (
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid is returned for a bad signature or wrong signing method.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenMalformed is returned for structurally corrupt tokens.
	ErrTokenMalformed = errors.New("token is malformed")
)

// Claims is the verified content of an access token.
type Claims struct {
	UserID uuid.UUID
	Role   entity.Role
}

// TokenService defines the interface for issuing and verifying credentials.
// Access tokens are short-lived and self-verifying; refresh tokens are
// opaque random strings that carry no information without the session store.
type TokenService interface {
	// GenerateAccessToken mints a signed access token for a user and role.
	GenerateAccessToken(userID uuid.UUID, role entity.Role) (string, error)

	// GenerateRefreshToken produces a cryptographically random opaque string,
	// unrelated to any user data.
	GenerateRefreshToken() (string, error)

	// ValidateAccessToken verifies signature and expiry and returns the
	// embedded claims. Fails with ErrTokenExpired, ErrTokenInvalid or
	// ErrTokenMalformed.
	ValidateAccessToken(token string) (*Claims, error)

	// AccessTokenTTL returns the configured access token lifetime.
	AccessTokenTTL() time.Duration

	// RefreshTokenTTL returns the configured session lifetime.
	RefreshTokenTTL() time.Duration
}
