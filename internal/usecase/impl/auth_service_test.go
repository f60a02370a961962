package impl

import (
	"context"
	"testing"
	"time"

	"portal/internal/domain/entity"
	domainerrors "portal/internal/domain/errors"
	"portal/internal/domain/repository"
	"portal/internal/domain/service"
	"portal/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testRefreshTTL = 7 * 24 * time.Hour

// authServiceFixtures holds all test dependencies for auth service tests.
type authServiceFixtures struct {
	service      usecase.AuthUsecase
	userRepo     *mockUserRepository
	oauthRepo    *mockOAuthAccountRepository
	sessionStore *mockSessionStore
	hasher       *mockPasswordHasher
	tokenService *mockTokenService
	provider     *mockOAuthProvider
}

func createTestAuthService(_ *testing.T) authServiceFixtures {
	userRepo := &mockUserRepository{}
	oauthRepo := &mockOAuthAccountRepository{}
	sessionStore := &mockSessionStore{}
	hasher := &mockPasswordHasher{}
	tokenService := &mockTokenService{}
	provider := &mockOAuthProvider{name: "google"}

	svc := NewAuthService(AuthServiceParams{
		TxManager:    &fakeTransactionManager{userRepo: userRepo, oauthRepo: oauthRepo},
		UserRepo:     userRepo,
		OAuthRepo:    oauthRepo,
		SessionStore: sessionStore,
		Hasher:       hasher,
		TokenService: tokenService,
		Providers:    &fakeProviderRegistry{providers: map[string]service.OAuthProvider{"google": provider}},
		Logger:       newDiscardLogger(),
	})

	return authServiceFixtures{
		service:      svc,
		userRepo:     userRepo,
		oauthRepo:    oauthRepo,
		sessionStore: sessionStore,
		hasher:       hasher,
		tokenService: tokenService,
		provider:     provider,
	}
}

func activeUser(role entity.Role) *entity.User {
	return &entity.User{
		ID:           uuid.New(),
		Email:        "student@example.com",
		Name:         "Test Student",
		PasswordHash: "stored_hash",
		Role:         role,
	}
}

func (fx *authServiceFixtures) expectSessionOpened(user *entity.User, accessToken, refreshToken string) {
	fx.tokenService.On("GenerateAccessToken", user.ID, user.Role).Return(accessToken, nil)
	fx.tokenService.On("GenerateRefreshToken").Return(refreshToken, nil)
	fx.tokenService.On("RefreshTokenTTL").Return(testRefreshTTL)
	fx.sessionStore.On("Create", mock.Anything, user.ID, refreshToken, testRefreshTTL).
		Return(&entity.Session{RefreshToken: refreshToken, UserID: user.ID}, nil)
}

func TestAuthService_Register_Success(t *testing.T) {
	fx := createTestAuthService(t)
	ctx := context.Background()

	fx.hasher.On("ValidatePasswordStrength", "StrongPass123!").Return(nil)
	fx.hasher.On("Hash", "StrongPass123!").Return("hashed_password", nil)
	fx.userRepo.On("FindByEmail", mock.Anything, "new@example.com").
		Return(nil, repository.ErrUserNotFound)
	fx.userRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*entity.User).ID = uuid.New()
		}).
		Return(nil)

	output, err := fx.service.Register(ctx, &usecase.RegisterInput{
		Name:     "New Student",
		Email:    "New@Example.com",
		Password: "StrongPass123!",
	})

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", output.User.Email)
	assert.Equal(t, entity.RoleStudent, output.User.Role)
	assert.Equal(t, "hashed_password", output.User.PasswordHash)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	fx := createTestAuthService(t)

	fx.hasher.On("ValidatePasswordStrength", "StrongPass123!").Return(nil)
	fx.hasher.On("Hash", "StrongPass123!").Return("hashed_password", nil)
	fx.userRepo.On("FindByEmail", mock.Anything, "taken@example.com").
		Return(activeUser(entity.RoleStudent), nil)

	output, err := fx.service.Register(context.Background(), &usecase.RegisterInput{
		Name:     "Somebody",
		Email:    "taken@example.com",
		Password: "StrongPass123!",
	})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrEmailAlreadyExists))
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	fx := createTestAuthService(t)

	fx.hasher.On("ValidatePasswordStrength", "weak").
		Return(domainerrors.ErrPasswordStrength)

	output, err := fx.service.Register(context.Background(), &usecase.RegisterInput{
		Name:     "Somebody",
		Email:    "weak@example.com",
		Password: "weak",
	})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrPasswordStrength))
	fx.userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login_Success(t *testing.T) {
	fx := createTestAuthService(t)
	user := activeUser(entity.RoleTeacher)

	fx.userRepo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
	fx.hasher.On("Check", "StrongPass123!", user.PasswordHash).Return(true)
	fx.hasher.On("NeedsRehash", user.PasswordHash).Return(false)
	fx.expectSessionOpened(user, "access-token", "refresh-token")

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    user.Email,
		Password: "StrongPass123!",
	})

	require.NoError(t, err)
	assert.Equal(t, "access-token", output.AccessToken)
	assert.Equal(t, "refresh-token", output.RefreshToken)
	assert.Equal(t, user.ID, output.User.ID)
}

func TestAuthService_Login_UpgradesStaleHash(t *testing.T) {
	fx := createTestAuthService(t)
	user := activeUser(entity.RoleStudent)

	fx.userRepo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
	fx.hasher.On("Check", "StrongPass123!", "stored_hash").Return(true)
	fx.hasher.On("NeedsRehash", "stored_hash").Return(true)
	fx.hasher.On("Hash", "StrongPass123!").Return("upgraded_hash", nil)
	fx.userRepo.On("Update", mock.Anything, user).Return(nil)
	fx.expectSessionOpened(user, "access-token", "refresh-token")

	_, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    user.Email,
		Password: "StrongPass123!",
	})

	require.NoError(t, err)
	assert.Equal(t, "upgraded_hash", user.PasswordHash)
	fx.userRepo.AssertCalled(t, "Update", mock.Anything, user)
}

func TestAuthService_Login_UnknownEmailAndWrongPasswordFailAlike(t *testing.T) {
	fx := createTestAuthService(t)
	user := activeUser(entity.RoleStudent)

	fx.userRepo.On("FindByEmail", mock.Anything, "nobody@example.com").
		Return(nil, repository.ErrUserNotFound)
	fx.userRepo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
	fx.hasher.On("Check", "WrongPass123!", user.PasswordHash).Return(false)

	_, unknownErr := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "nobody@example.com",
		Password: "WrongPass123!",
	})
	_, wrongErr := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    user.Email,
		Password: "WrongPass123!",
	})

	// Both failure modes must be indistinguishable to the caller.
	assert.True(t, errors.Is(unknownErr, domainerrors.ErrInvalidCredentials))
	assert.True(t, errors.Is(wrongErr, domainerrors.ErrInvalidCredentials))
}

func TestAuthService_Login_OAuthOnlyAccount(t *testing.T) {
	fx := createTestAuthService(t)
	user := activeUser(entity.RoleStudent)
	user.PasswordHash = ""

	fx.userRepo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    user.Email,
		Password: "StrongPass123!",
	})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
	fx.hasher.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
}

func TestAuthService_Login_SuspendedAccount(t *testing.T) {
	fx := createTestAuthService(t)
	user := activeUser(entity.RoleStudent)
	user.Suspended = true

	fx.userRepo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
	fx.hasher.On("Check", "StrongPass123!", user.PasswordHash).Return(true)

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    user.Email,
		Password: "StrongPass123!",
	})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrAccountSuspended))
	fx.sessionStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Refresh_RotatesSession(t *testing.T) {
	fx := createTestAuthService(t)
	user := activeUser(entity.RoleStudent)

	fx.sessionStore.On("Get", mock.Anything, "old-token").
		Return(&entity.Session{RefreshToken: "old-token", UserID: user.ID}, nil)
	fx.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	fx.sessionStore.On("Delete", mock.Anything, "old-token").Return(true, nil)
	fx.expectSessionOpened(user, "new-access", "new-refresh")

	output, err := fx.service.Refresh(context.Background(), &usecase.RefreshInput{RefreshToken: "old-token"})

	require.NoError(t, err)
	assert.Equal(t, "new-access", output.AccessToken)
	assert.Equal(t, "new-refresh", output.RefreshToken)
	fx.sessionStore.AssertCalled(t, "Delete", mock.Anything, "old-token")
}

func TestAuthService_Refresh_UnknownToken(t *testing.T) {
	fx := createTestAuthService(t)

	fx.sessionStore.On("Get", mock.Anything, "rotated-away").
		Return(nil, repository.ErrSessionNotFound)

	output, err := fx.service.Refresh(context.Background(), &usecase.RefreshInput{RefreshToken: "rotated-away"})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))
}

func TestAuthService_Refresh_SuspendedAccount(t *testing.T) {
	fx := createTestAuthService(t)
	user := activeUser(entity.RoleStudent)
	user.Suspended = true

	fx.sessionStore.On("Get", mock.Anything, "live-token").
		Return(&entity.Session{RefreshToken: "live-token", UserID: user.ID}, nil)
	fx.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	fx.sessionStore.On("Delete", mock.Anything, "live-token").Return(true, nil)

	output, err := fx.service.Refresh(context.Background(), &usecase.RefreshInput{RefreshToken: "live-token"})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))
	// The presented session is revoked, not kept alive.
	fx.sessionStore.AssertCalled(t, "Delete", mock.Anything, "live-token")
}

func TestAuthService_Refresh_ConcurrentRotationLoserFails(t *testing.T) {
	fx := createTestAuthService(t)
	user := activeUser(entity.RoleStudent)

	// Two requests race on the same token: both read the session, but the
	// delete reports that the winner already consumed it.
	fx.sessionStore.On("Get", mock.Anything, "contested-token").
		Return(&entity.Session{RefreshToken: "contested-token", UserID: user.ID}, nil)
	fx.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	fx.sessionStore.On("Delete", mock.Anything, "contested-token").Return(false, nil)
	fx.sessionStore.On("DeleteAllForUser", mock.Anything, user.ID).Return(2, nil)

	output, err := fx.service.Refresh(context.Background(), &usecase.RefreshInput{RefreshToken: "contested-token"})

	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))
	// The loser never gets a token pair, and the replay revokes everything.
	fx.tokenService.AssertNotCalled(t, "GenerateAccessToken", mock.Anything, mock.Anything)
	fx.sessionStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	fx.sessionStore.AssertCalled(t, "DeleteAllForUser", mock.Anything, user.ID)
}

func TestAuthService_Login_DatabaseUnavailable(t *testing.T) {
	fx := createTestAuthService(t)

	fx.userRepo.On("FindByEmail", mock.Anything, "student@example.com").
		Return(nil, errors.Wrap(repository.ErrDatabaseUnavailable, "failed to find user by email"))

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "student@example.com",
		Password: "StrongPass123!",
	})

	assert.Nil(t, output)
	// An outage answers as retryable, never as an internal error.
	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domainerrors.ErrServiceUnavailable.HTTPCode(), appErr.HTTPCode())
}

func TestAuthService_Login_DatabaseTimeout(t *testing.T) {
	fx := createTestAuthService(t)

	fx.userRepo.On("FindByEmail", mock.Anything, "student@example.com").
		Return(nil, context.DeadlineExceeded)

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "student@example.com",
		Password: "StrongPass123!",
	})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrServiceUnavailable))
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	fx := createTestAuthService(t)

	fx.sessionStore.On("Delete", mock.Anything, "gone-token").Return(false, nil)

	err := fx.service.Logout(context.Background(), &usecase.LogoutInput{RefreshToken: "gone-token"})

	assert.NoError(t, err)
}

func TestAuthService_Logout_EmptyToken(t *testing.T) {
	fx := createTestAuthService(t)

	err := fx.service.Logout(context.Background(), &usecase.LogoutInput{})

	assert.NoError(t, err)
	fx.sessionStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAuthService_Logout_StoreUnavailable(t *testing.T) {
	fx := createTestAuthService(t)

	fx.sessionStore.On("Delete", mock.Anything, "any-token").
		Return(false, repository.ErrSessionStoreUnavailable)

	err := fx.service.Logout(context.Background(), &usecase.LogoutInput{RefreshToken: "any-token"})

	assert.True(t, errors.Is(err, domainerrors.ErrServiceUnavailable))
}

func TestAuthService_OAuthCallback_ExistingLink(t *testing.T) {
	fx := createTestAuthService(t)
	user := activeUser(entity.RoleTeacher)
	link := &entity.OAuthAccount{
		ID:                uuid.New(),
		UserID:            user.ID,
		Provider:          "google",
		ProviderAccountID: "google-sub-1",
	}

	fx.provider.On("Exchange", mock.Anything, "good-code").
		Return(&service.OAuthProfile{ProviderAccountID: "google-sub-1", Email: user.Email, AccessToken: "provider-access"}, nil)
	fx.oauthRepo.On("FindByProvider", mock.Anything, "google", "google-sub-1").Return(link, nil)
	fx.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	fx.oauthRepo.On("UpdateTokens", mock.Anything, link).Return(nil)
	fx.expectSessionOpened(user, "access-token", "refresh-token")

	output, err := fx.service.OAuthCallback(context.Background(), &usecase.OAuthCallbackInput{
		Provider: "google",
		Code:     "good-code",
	})

	require.NoError(t, err)
	assert.Equal(t, user.ID, output.User.ID)
	assert.Equal(t, "provider-access", link.AccessToken)
}

func TestAuthService_OAuthCallback_LinksExistingAccountByEmail(t *testing.T) {
	fx := createTestAuthService(t)
	user := activeUser(entity.RoleStudent)

	fx.provider.On("Exchange", mock.Anything, "good-code").
		Return(&service.OAuthProfile{ProviderAccountID: "google-sub-2", Email: user.Email}, nil)
	fx.oauthRepo.On("FindByProvider", mock.Anything, "google", "google-sub-2").
		Return(nil, repository.ErrOAuthAccountNotFound)
	fx.userRepo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
	fx.oauthRepo.On("FindByUser", mock.Anything, user.ID, "google").
		Return(nil, repository.ErrOAuthAccountNotFound)
	fx.oauthRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.OAuthAccount")).Return(nil)
	fx.expectSessionOpened(user, "access-token", "refresh-token")

	output, err := fx.service.OAuthCallback(context.Background(), &usecase.OAuthCallbackInput{
		Provider: "google",
		Code:     "good-code",
	})

	require.NoError(t, err)
	assert.Equal(t, user.ID, output.User.ID)
	fx.oauthRepo.AssertCalled(t, "Create", mock.Anything, mock.AnythingOfType("*entity.OAuthAccount"))
}

func TestAuthService_OAuthCallback_ProvisionsNewStudent(t *testing.T) {
	fx := createTestAuthService(t)

	fx.provider.On("Exchange", mock.Anything, "good-code").
		Return(&service.OAuthProfile{ProviderAccountID: "google-sub-3", Email: "Fresh@Example.com", Name: "Fresh User"}, nil)
	fx.oauthRepo.On("FindByProvider", mock.Anything, "google", "google-sub-3").
		Return(nil, repository.ErrOAuthAccountNotFound)
	fx.userRepo.On("FindByEmail", mock.Anything, "fresh@example.com").
		Return(nil, repository.ErrUserNotFound)
	fx.userRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*entity.User).ID = uuid.New()
		}).
		Return(nil)
	fx.oauthRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.OAuthAccount")).Return(nil)
	fx.tokenService.On("GenerateAccessToken", mock.Anything, entity.RoleStudent).Return("access-token", nil)
	fx.tokenService.On("GenerateRefreshToken").Return("refresh-token", nil)
	fx.tokenService.On("RefreshTokenTTL").Return(testRefreshTTL)
	fx.sessionStore.On("Create", mock.Anything, mock.Anything, "refresh-token", testRefreshTTL).
		Return(&entity.Session{RefreshToken: "refresh-token"}, nil)

	output, err := fx.service.OAuthCallback(context.Background(), &usecase.OAuthCallbackInput{
		Provider: "google",
		Code:     "good-code",
	})

	require.NoError(t, err)
	assert.Equal(t, "fresh@example.com", output.User.Email)
	assert.Equal(t, entity.RoleStudent, output.User.Role)
	assert.False(t, output.User.HasPassword())
}

func TestAuthService_OAuthCallback_SuspendedAccount(t *testing.T) {
	fx := createTestAuthService(t)
	user := activeUser(entity.RoleStudent)
	user.Suspended = true
	link := &entity.OAuthAccount{ID: uuid.New(), UserID: user.ID, Provider: "google", ProviderAccountID: "google-sub-4"}

	fx.provider.On("Exchange", mock.Anything, "good-code").
		Return(&service.OAuthProfile{ProviderAccountID: "google-sub-4", Email: user.Email}, nil)
	fx.oauthRepo.On("FindByProvider", mock.Anything, "google", "google-sub-4").Return(link, nil)
	fx.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	fx.oauthRepo.On("UpdateTokens", mock.Anything, link).Return(nil)

	output, err := fx.service.OAuthCallback(context.Background(), &usecase.OAuthCallbackInput{
		Provider: "google",
		Code:     "good-code",
	})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrAccountSuspended))
	fx.sessionStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_OAuthCallback_BadCode(t *testing.T) {
	fx := createTestAuthService(t)

	fx.provider.On("Exchange", mock.Anything, "bad-code").
		Return(nil, errors.New("oauth2: invalid_grant"))

	output, err := fx.service.OAuthCallback(context.Background(), &usecase.OAuthCallbackInput{
		Provider: "google",
		Code:     "bad-code",
	})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrOAuthCodeInvalid))
}

func TestAuthService_OAuthCallback_UnknownProvider(t *testing.T) {
	fx := createTestAuthService(t)

	output, err := fx.service.OAuthCallback(context.Background(), &usecase.OAuthCallbackInput{
		Provider: "github",
		Code:     "any-code",
	})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestAuthService_OAuthAuthorizationURL(t *testing.T) {
	fx := createTestAuthService(t)

	fx.provider.On("AuthorizationURL", "state-123").
		Return("https://accounts.google.com/o/oauth2/v2/auth?state=state-123")

	url, err := fx.service.OAuthAuthorizationURL(context.Background(), "google", "state-123")
	require.NoError(t, err)
	assert.Contains(t, url, "state-123")

	_, err = fx.service.OAuthAuthorizationURL(context.Background(), "github", "state-123")
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}
