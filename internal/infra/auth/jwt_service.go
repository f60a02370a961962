// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"portal/config"
	"portal/internal/domain/entity"
	"portal/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const refreshTokenBytes = 32

// jwtService is a concrete implementation of the TokenService interface.
// Access tokens are HS256-signed JWTs; refresh tokens are opaque random
// strings that only gain meaning through the session store.
type jwtService struct {
	accessSecret []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

// accessClaims is the signed claims set carried by access tokens.
type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt access secret must be provided")
	}

	return &jwtService{
		accessSecret: []byte(cfg.SecretKey.Access),
		accessTTL:    cfg.Auth.AccessTokenTTL,
		refreshTTL:   cfg.Auth.RefreshTokenTTL,
	}, nil
}

// GenerateAccessToken mints a signed access token for a user and role.
func (s *jwtService) GenerateAccessToken(userID uuid.UUID, role entity.Role) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.accessSecret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}

	return signed, nil
}

// GenerateRefreshToken produces a cryptographically random opaque string.
// It carries no user information, so an intercepted token is worthless
// without the session store entry it maps to.
func (s *jwtService) GenerateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate refresh token")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidateAccessToken verifies signature and expiry and returns the claims.
func (s *jwtService) ValidateAccessToken(tokenString string) (*service.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.accessSecret, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, service.ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, service.ErrTokenMalformed
	}

	role := entity.Role(claims.Role)
	if !role.IsValid() {
		return nil, service.ErrTokenMalformed
	}

	return &service.Claims{UserID: userID, Role: role}, nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *jwtService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// RefreshTokenTTL returns the configured session lifetime.
func (s *jwtService) RefreshTokenTTL() time.Duration {
	return s.refreshTTL
}

// classifyTokenError maps jwt/v5 parse errors onto the domain sentinel errors.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return service.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return service.ErrTokenMalformed
	default:
		return service.ErrTokenInvalid
	}
}
