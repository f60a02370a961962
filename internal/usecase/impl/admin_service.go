package impl

import (
	"context"
	"log/slog"

	deliverycontext "portal/internal/delivery/context"
	"portal/internal/domain/entity"
	domainerrors "portal/internal/domain/errors"
	"portal/internal/domain/repository"
	"portal/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// adminService implements the AdminUsecase interface.
type adminService struct {
	txManager    repository.TransactionManager
	sessionStore repository.SessionStore
	logger       *slog.Logger
}

// AdminServiceParams holds dependencies for adminService, injected by Fx.
type AdminServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	SessionStore repository.SessionStore
	Logger       *slog.Logger
}

// NewAdminService is the constructor for adminService.
func NewAdminService(params AdminServiceParams) usecase.AdminUsecase {
	return &adminService{
		txManager:    params.TxManager,
		sessionStore: params.SessionStore,
		logger:       params.Logger,
	}
}

func (srv *adminService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SetSuspended suspends or reinstates an account. Suspending an account
// revokes every live session it holds, so a suspended user loses access as
// soon as their current access token expires.
func (srv *adminService) SetSuspended(ctx context.Context, input *usecase.SetSuspendedInput) (*entity.User, error) {
	var updated *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByID(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound
			}

			return errors.Wrap(err, "failed to load user for suspension change")
		}

		if user.Suspended == input.Suspended {
			updated = user

			return nil
		}

		// The system must always keep at least one active admin.
		if input.Suspended && user.Role == entity.RoleAdmin {
			active, err := userRepo.CountActiveAdmins(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to count active admins")
			}
			if active <= 1 {
				return domainerrors.ErrLastActiveAdmin
			}
		}

		user.Suspended = input.Suspended
		if err := userRepo.Update(ctx, user); err != nil {
			return errors.Wrap(err, "failed to update suspension state")
		}

		updated = user

		return nil
	})
	if err != nil {
		if isUnavailable(err) {
			return nil, domainerrors.ErrServiceUnavailable
		}

		return nil, err
	}

	if input.Suspended {
		count, err := srv.sessionStore.DeleteAllForUser(ctx, input.UserID)
		if err != nil {
			// The account is already suspended; report the revocation failure
			// rather than rolling that back.
			srv.log(ctx).Error("Failed to revoke sessions after suspension", slog.Any("userID", input.UserID), slog.Any("error", err))
			if isUnavailable(err) {
				return nil, domainerrors.ErrServiceUnavailable
			}

			return nil, errors.Wrap(err, "failed to revoke sessions after suspension")
		}

		srv.log(ctx).Info("Account suspended", slog.Any("userID", input.UserID), slog.Int("revokedSessions", count))
	} else {
		srv.log(ctx).Info("Account reinstated", slog.Any("userID", input.UserID))
	}

	return updated, nil
}

// ChangeRole reassigns an account's role. Live sessions are kept; the new
// role takes effect on the next token refresh.
func (srv *adminService) ChangeRole(ctx context.Context, input *usecase.ChangeRoleInput) (*entity.User, error) {
	if !input.Role.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("unknown role")
	}

	var updated *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByID(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound
			}

			return errors.Wrap(err, "failed to load user for role change")
		}

		if user.Role == input.Role {
			updated = user

			return nil
		}

		// Demoting the last active admin would lock the admin surface.
		if user.Role == entity.RoleAdmin && !user.Suspended {
			active, err := userRepo.CountActiveAdmins(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to count active admins")
			}
			if active <= 1 {
				return domainerrors.ErrLastActiveAdmin
			}
		}

		user.Role = input.Role
		if err := userRepo.Update(ctx, user); err != nil {
			return errors.Wrap(err, "failed to update role")
		}

		updated = user

		return nil
	})
	if err != nil {
		if isUnavailable(err) {
			return nil, domainerrors.ErrServiceUnavailable
		}

		return nil, err
	}

	srv.log(ctx).Info("Role changed", slog.Any("userID", input.UserID), slog.Any("role", input.Role))

	return updated, nil
}
