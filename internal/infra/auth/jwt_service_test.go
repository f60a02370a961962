package auth

import (
	"testing"
	"time"

	"portal/config"
	"portal/internal/domain/entity"
	"portal/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenConfig(accessTTL time.Duration) *config.Config {
	cfg := &config.Config{}
	cfg.SecretKey.Access = "test_access_secret_key_very_long_for_testing"
	cfg.Auth = &config.AuthConfig{
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}

	return cfg
}

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	svc, err := NewJWTService(newTestTokenConfig(15 * time.Minute))
	require.NoError(t, err)

	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, entity.RoleTeacher)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, entity.RoleTeacher, claims.Role)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc, err := NewJWTService(newTestTokenConfig(1 * time.Second))
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(uuid.New(), entity.RoleStudent)
	require.NoError(t, err)

	time.Sleep(1500 * time.Millisecond)

	claims, err := svc.ValidateAccessToken(token)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, service.ErrTokenExpired))
}

func TestJWTService_MalformedToken(t *testing.T) {
	svc, err := NewJWTService(newTestTokenConfig(15 * time.Minute))
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken("clearly-not-a-jwt-token")
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, service.ErrTokenMalformed))
}

func TestJWTService_TamperedSignature(t *testing.T) {
	svc, err := NewJWTService(newTestTokenConfig(15 * time.Minute))
	require.NoError(t, err)

	otherCfg := newTestTokenConfig(15 * time.Minute)
	otherCfg.SecretKey.Access = "a_completely_different_signing_secret_key"
	otherSvc, err := NewJWTService(otherCfg)
	require.NoError(t, err)

	token, err := otherSvc.GenerateAccessToken(uuid.New(), entity.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, service.ErrTokenInvalid))
}

func TestJWTService_RefreshTokenIsOpaqueAndUnique(t *testing.T) {
	svc, err := NewJWTService(newTestTokenConfig(15 * time.Minute))
	require.NoError(t, err)

	first, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	second, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
	// Opaque tokens must not parse as access tokens.
	_, err = svc.ValidateAccessToken(first)
	assert.Error(t, err)
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	cfg := newTestTokenConfig(15 * time.Minute)
	cfg.SecretKey.Access = ""

	svc, err := NewJWTService(cfg)
	assert.Nil(t, svc)
	assert.Error(t, err)
}
