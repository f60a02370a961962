// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"

	"portal/config"
	deliverycontext "portal/internal/delivery/context"
	"portal/internal/domain/entity"
	domainerrors "portal/internal/domain/errors"
	"portal/internal/domain/repository"
	"portal/internal/domain/service"
	"portal/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	oauthRepo    repository.OAuthAccountRepository
	sessionStore repository.SessionStore
	hasher       service.PasswordHasher
	tokenService service.TokenService
	providers    service.OAuthProviderRegistry
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	OAuthRepo    repository.OAuthAccountRepository
	SessionStore repository.SessionStore
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Providers    service.OAuthProviderRegistry
	Config       *config.Config
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		oauthRepo:    params.OAuthRepo,
		sessionStore: params.SessionStore,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		providers:    params.Providers,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the complete account registration process.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	role := input.Role
	if role == "" {
		role = entity.RoleStudent
	}
	if !role.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("unknown role")
	}

	srv.log(ctx).Info("Starting registration", slog.Any("role", role), slog.String("email", email))

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		srv.log(ctx).Warn("Password validation failed during registration", slog.String("email", email), slog.Any("error", err))

		return nil, err
	}

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	var registeredUser *entity.User
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		_, err := userRepo.FindByEmail(ctx, email)
		if err == nil {
			return domainerrors.ErrEmailAlreadyExists
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check for existing account")
		}

		newUser := &entity.User{
			Email:        email,
			Name:         input.Name,
			PasswordHash: hashedPassword,
			Role:         role,
		}
		if err := userRepo.Create(ctx, newUser); err != nil {
			return errors.Wrap(err, "failed to create user during registration")
		}

		registeredUser = newUser

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", email), slog.Any("error", err))
		if isUnavailable(err) {
			return nil, domainerrors.ErrServiceUnavailable
		}

		return nil, err
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", registeredUser.ID))

	return &usecase.RegisterOutput{User: registeredUser}, nil
}

// Login orchestrates the password login process. Unknown email and wrong
// password fail identically so that login cannot be used to probe which
// addresses hold accounts.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	srv.log(ctx).Debug("Starting login", slog.String("email", email))

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Login failed", slog.String("email", email))

			return nil, domainerrors.ErrInvalidCredentials
		}

		return nil, srv.repoFailure(ctx, err, "failed to load user for login")
	}

	// OAuth-only accounts carry no local password and cannot password-login.
	if !user.HasPassword() || !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("email", email))

		return nil, domainerrors.ErrInvalidCredentials
	}

	if !user.CanAuthenticate() {
		srv.log(ctx).Warn("Login blocked for suspended account", slog.Any("userID", user.ID))

		return nil, domainerrors.ErrAccountSuspended
	}

	// Transparent credential upgrade when the iteration count was raised.
	// Best effort; a failure here never blocks the login.
	if srv.hasher.NeedsRehash(user.PasswordHash) {
		if rehashed, err := srv.hasher.Hash(input.Password); err == nil {
			user.PasswordHash = rehashed
			if err := srv.userRepo.Update(ctx, user); err != nil {
				srv.log(ctx).Warn("Failed to persist rehashed password", slog.Any("userID", user.ID), slog.Any("error", err))
			}
		}
	}

	output, err := srv.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Debug("User logged in", slog.Any("userID", user.ID))

	return output, nil
}

// Refresh rotates a session: the presented refresh token is consumed and a
// fresh token pair is issued. A token that was already rotated away, expired,
// or never existed fails uniformly.
func (srv *authService) Refresh(ctx context.Context, input *usecase.RefreshInput) (*usecase.LoginOutput, error) {
	session, err := srv.sessionStore.Get(ctx, input.RefreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, domainerrors.ErrUnauthorized
		}

		return nil, srv.storeFailure(ctx, err, "failed to load session for refresh")
	}

	user, err := srv.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Orphaned session for a deleted account. Drop it.
			_, _ = srv.sessionStore.Delete(ctx, input.RefreshToken)

			return nil, domainerrors.ErrUnauthorized
		}

		return nil, srv.repoFailure(ctx, err, "failed to load user for refresh")
	}

	if !user.CanAuthenticate() {
		srv.log(ctx).Warn("Refresh blocked for suspended account", slog.Any("userID", user.ID))
		_, _ = srv.sessionStore.Delete(ctx, input.RefreshToken)

		return nil, domainerrors.ErrUnauthorized
	}

	// Consume the old session before issuing the replacement. If the process
	// dies between the two steps the user re-authenticates; a window where
	// both tokens are live never opens.
	existed, err := srv.sessionStore.Delete(ctx, input.RefreshToken)
	if err != nil {
		return nil, srv.storeFailure(ctx, err, "failed to consume session during refresh")
	}
	if !existed {
		// The token vanished between the read and the delete: a concurrent
		// rotation already consumed it. A second presentation of a spent
		// token smells like theft, so every session of the user is revoked.
		srv.log(ctx).Warn("Refresh token replay detected", slog.Any("userID", user.ID))
		if _, err := srv.sessionStore.DeleteAllForUser(ctx, user.ID); err != nil {
			srv.log(ctx).Error("Failed to revoke sessions after replay", slog.Any("userID", user.ID), slog.Any("error", err))
		}

		return nil, domainerrors.ErrUnauthorized
	}

	output, err := srv.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Debug("Session rotated", slog.Any("userID", user.ID))

	return output, nil
}

// Logout ends the session behind a refresh token. An absent or already
// expired token is not an error.
func (srv *authService) Logout(ctx context.Context, input *usecase.LogoutInput) error {
	if input.RefreshToken == "" {
		return nil
	}

	existed, err := srv.sessionStore.Delete(ctx, input.RefreshToken)
	if err != nil {
		return srv.storeFailure(ctx, err, "failed to delete session during logout")
	}

	if !existed {
		srv.log(ctx).Debug("Logout for unknown session")
	}

	return nil
}

// OAuthAuthorizationURL builds the provider consent URL for a login attempt.
func (srv *authService) OAuthAuthorizationURL(_ context.Context, provider, state string) (string, error) {
	p, ok := srv.providers.Lookup(provider)
	if !ok {
		return "", domainerrors.ErrNotFound.WrapMessage("unknown oauth provider")
	}

	return p.AuthorizationURL(state), nil
}

// OAuthCallback completes the authorization-code flow. The provider identity
// is resolved to a local account in three tiers: an existing link wins, then
// an email match links the identity to that account, and otherwise a new
// student account is provisioned.
func (srv *authService) OAuthCallback(ctx context.Context, input *usecase.OAuthCallbackInput) (*usecase.LoginOutput, error) {
	provider, ok := srv.providers.Lookup(input.Provider)
	if !ok {
		return nil, domainerrors.ErrNotFound.WrapMessage("unknown oauth provider")
	}

	profile, err := provider.Exchange(ctx, input.Code)
	if err != nil {
		srv.log(ctx).Warn("OAuth code exchange failed", slog.String("provider", input.Provider), slog.Any("error", err))

		return nil, domainerrors.ErrOAuthCodeInvalid
	}

	var loggedInUser *entity.User
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, err := srv.resolveOAuthUser(ctx, repoFactory, provider.Name(), profile)
		if err != nil {
			return err
		}

		loggedInUser = user

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("OAuth login failed", slog.String("provider", input.Provider), slog.Any("error", err))
		if isUnavailable(err) {
			return nil, domainerrors.ErrServiceUnavailable
		}

		return nil, err
	}

	// The suspension gate sits after account resolution so that a suspended
	// user's provider tokens still get refreshed, but before any session or
	// token issuance.
	if !loggedInUser.CanAuthenticate() {
		srv.log(ctx).Warn("OAuth login blocked for suspended account", slog.Any("userID", loggedInUser.ID))

		return nil, domainerrors.ErrAccountSuspended
	}

	output, err := srv.openSession(ctx, loggedInUser)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Debug("OAuth login completed", slog.Any("userID", loggedInUser.ID), slog.String("provider", input.Provider))

	return output, nil
}

// resolveOAuthUser maps a provider profile onto a local account inside the
// enclosing transaction.
func (srv *authService) resolveOAuthUser(
	ctx context.Context,
	repoFactory repository.RepositoryFactory,
	providerName string,
	profile *service.OAuthProfile,
) (*entity.User, error) {
	userRepo := repoFactory.UserRepo()
	oauthRepo := repoFactory.OAuthAccountRepo()

	link, err := oauthRepo.FindByProvider(ctx, providerName, profile.ProviderAccountID)
	if err == nil {
		user, err := userRepo.FindByID(ctx, link.UserID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load user behind oauth link")
		}

		link.AccessToken = profile.AccessToken
		link.RefreshToken = profile.RefreshToken
		link.IDToken = profile.IDToken
		link.Scope = profile.Scope
		link.ExpiresAt = profile.ExpiresAt
		if err := oauthRepo.UpdateTokens(ctx, link); err != nil {
			return nil, errors.Wrap(err, "failed to refresh oauth tokens")
		}

		return user, nil
	}
	if !errors.Is(err, repository.ErrOAuthAccountNotFound) {
		return nil, errors.Wrap(err, "failed to look up oauth link")
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return nil, domainerrors.ErrOAuthCodeInvalid.WrapMessage("provider returned no email address")
	}

	user, err := userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		// Existing account, first login through this provider. A user holds
		// at most one link per provider.
		if _, err := oauthRepo.FindByUser(ctx, user.ID, providerName); err == nil {
			return nil, domainerrors.ErrOAuthLinkConflict
		} else if !errors.Is(err, repository.ErrOAuthAccountNotFound) {
			return nil, errors.Wrap(err, "failed to check existing provider link")
		}
	case errors.Is(err, repository.ErrUserNotFound):
		user = &entity.User{
			Email: email,
			Name:  profile.Name,
			Role:  entity.RoleStudent,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return nil, errors.Wrap(err, "failed to provision oauth user")
		}
	default:
		return nil, errors.Wrap(err, "failed to look up user by oauth email")
	}

	account := &entity.OAuthAccount{
		UserID:            user.ID,
		Provider:          providerName,
		ProviderAccountID: profile.ProviderAccountID,
		AccessToken:       profile.AccessToken,
		RefreshToken:      profile.RefreshToken,
		IDToken:           profile.IDToken,
		Scope:             profile.Scope,
		ExpiresAt:         profile.ExpiresAt,
	}
	if err := oauthRepo.Create(ctx, account); err != nil {
		return nil, errors.Wrap(err, "failed to create oauth link")
	}

	return user, nil
}

// openSession issues a fresh token pair and writes the session record.
func (srv *authService) openSession(ctx context.Context, user *entity.User) (*usecase.LoginOutput, error) {
	accessToken, err := srv.tokenService.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}

	refreshToken, err := srv.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate refresh token")
	}

	if _, err := srv.sessionStore.Create(ctx, user.ID, refreshToken, srv.tokenService.RefreshTokenTTL()); err != nil {
		return nil, srv.storeFailure(ctx, err, "failed to create session")
	}

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// storeFailure normalizes session store outages to the retryable service error.
func (srv *authService) storeFailure(ctx context.Context, err error, msg string) error {
	srv.log(ctx).Error("Session store failure", slog.Any("error", err))

	if isUnavailable(err) {
		return domainerrors.ErrServiceUnavailable
	}

	return errors.Wrap(err, msg)
}

// repoFailure normalizes database outages to the retryable service error.
func (srv *authService) repoFailure(ctx context.Context, err error, msg string) error {
	if isUnavailable(err) {
		srv.log(ctx).Error("Database failure", slog.Any("error", err))

		return domainerrors.ErrServiceUnavailable
	}

	return errors.Wrap(err, msg)
}
