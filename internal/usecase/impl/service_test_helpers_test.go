package impl

import (
	"context"
	"io"
	"log/slog"
	"time"

	"portal/internal/domain/entity"
	"portal/internal/domain/repository"
	"portal/internal/domain/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- repository mocks ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*entity.User), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*entity.User), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockUserRepository) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)

	return args.Error(0)
}

func (m *mockUserRepository) Update(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)

	return args.Error(0)
}

func (m *mockUserRepository) CountActiveAdmins(ctx context.Context) (int, error) {
	args := m.Called(ctx)

	return args.Int(0), args.Error(1)
}

type mockOAuthAccountRepository struct {
	mock.Mock
}

func (m *mockOAuthAccountRepository) FindByProvider(ctx context.Context, provider, providerAccountID string) (*entity.OAuthAccount, error) {
	args := m.Called(ctx, provider, providerAccountID)
	if account := args.Get(0); account != nil {
		return account.(*entity.OAuthAccount), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockOAuthAccountRepository) FindByUser(ctx context.Context, userID uuid.UUID, provider string) (*entity.OAuthAccount, error) {
	args := m.Called(ctx, userID, provider)
	if account := args.Get(0); account != nil {
		return account.(*entity.OAuthAccount), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockOAuthAccountRepository) Create(ctx context.Context, account *entity.OAuthAccount) error {
	args := m.Called(ctx, account)

	return args.Error(0)
}

func (m *mockOAuthAccountRepository) UpdateTokens(ctx context.Context, account *entity.OAuthAccount) error {
	args := m.Called(ctx, account)

	return args.Error(0)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Create(ctx context.Context, userID uuid.UUID, refreshToken string, ttl time.Duration) (*entity.Session, error) {
	args := m.Called(ctx, userID, refreshToken, ttl)
	if session := args.Get(0); session != nil {
		return session.(*entity.Session), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockSessionStore) Get(ctx context.Context, refreshToken string) (*entity.Session, error) {
	args := m.Called(ctx, refreshToken)
	if session := args.Get(0); session != nil {
		return session.(*entity.Session), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockSessionStore) Delete(ctx context.Context, refreshToken string) (bool, error) {
	args := m.Called(ctx, refreshToken)

	return args.Bool(0), args.Error(1)
}

func (m *mockSessionStore) Refresh(ctx context.Context, refreshToken string, ttl time.Duration) (*entity.Session, error) {
	args := m.Called(ctx, refreshToken, ttl)
	if session := args.Get(0); session != nil {
		return session.(*entity.Session), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockSessionStore) GetAllForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if tokens := args.Get(0); tokens != nil {
		return tokens.([]string), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockSessionStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)

	return args.Int(0), args.Error(1)
}

func (m *mockSessionStore) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// fakeTransactionManager runs the callback directly against the supplied
// repositories, without any real transaction semantics.
type fakeTransactionManager struct {
	userRepo  repository.UserRepository
	oauthRepo repository.OAuthAccountRepository
}

func (tm *fakeTransactionManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(tm)
}

func (tm *fakeTransactionManager) UserRepo() repository.UserRepository {
	return tm.userRepo
}

func (tm *fakeTransactionManager) OAuthAccountRepo() repository.OAuthAccountRepository {
	return tm.oauthRepo
}

// --- service mocks ---

type mockPasswordHasher struct {
	mock.Mock
}

func (m *mockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)

	return args.String(0), args.Error(1)
}

func (m *mockPasswordHasher) Check(password, hash string) bool {
	args := m.Called(password, hash)

	return args.Bool(0)
}

func (m *mockPasswordHasher) NeedsRehash(hash string) bool {
	args := m.Called(hash)

	return args.Bool(0)
}

func (m *mockPasswordHasher) ValidatePasswordStrength(password string) error {
	args := m.Called(password)

	return args.Error(0)
}

type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) GenerateAccessToken(userID uuid.UUID, role entity.Role) (string, error) {
	args := m.Called(userID, role)

	return args.String(0), args.Error(1)
}

func (m *mockTokenService) GenerateRefreshToken() (string, error) {
	args := m.Called()

	return args.String(0), args.Error(1)
}

func (m *mockTokenService) ValidateAccessToken(token string) (*service.Claims, error) {
	args := m.Called(token)
	if claims := args.Get(0); claims != nil {
		return claims.(*service.Claims), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockTokenService) AccessTokenTTL() time.Duration {
	args := m.Called()

	return args.Get(0).(time.Duration)
}

func (m *mockTokenService) RefreshTokenTTL() time.Duration {
	args := m.Called()

	return args.Get(0).(time.Duration)
}

type mockOAuthProvider struct {
	mock.Mock
	name string
}

func (m *mockOAuthProvider) Name() string {
	return m.name
}

func (m *mockOAuthProvider) AuthorizationURL(state string) string {
	args := m.Called(state)

	return args.String(0)
}

func (m *mockOAuthProvider) Exchange(ctx context.Context, code string) (*service.OAuthProfile, error) {
	args := m.Called(ctx, code)
	if profile := args.Get(0); profile != nil {
		return profile.(*service.OAuthProfile), args.Error(1)
	}

	return nil, args.Error(1)
}

// fakeProviderRegistry is a map-backed registry for tests.
type fakeProviderRegistry struct {
	providers map[string]service.OAuthProvider
}

func (r *fakeProviderRegistry) Lookup(name string) (service.OAuthProvider, bool) {
	provider, ok := r.providers[name]

	return provider, ok
}
