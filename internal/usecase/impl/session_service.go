package impl

import (
	"context"
	"log/slog"

	deliverycontext "portal/internal/delivery/context"
	"portal/internal/domain/entity"
	domainerrors "portal/internal/domain/errors"
	"portal/internal/domain/repository"
	"portal/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	sessionStore repository.SessionStore
	logger       *slog.Logger
}

// SessionServiceParams holds dependencies for sessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	SessionStore repository.SessionStore
	Logger       *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	return &sessionService{
		sessionStore: params.SessionStore,
		logger:       params.Logger,
	}
}

func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// storeFailure normalizes session store outages to the retryable service error.
func (srv *sessionService) storeFailure(ctx context.Context, err error, msg string) error {
	srv.log(ctx).Error("Session store failure", slog.Any("error", err))

	if isUnavailable(err) {
		return domainerrors.ErrServiceUnavailable
	}

	return errors.Wrap(err, msg)
}

// GetActiveSessions lists the user's live sessions without exposing the raw
// refresh tokens.
func (srv *sessionService) GetActiveSessions(ctx context.Context, userID uuid.UUID) ([]*entity.SessionInfo, error) {
	tokens, err := srv.sessionStore.GetAllForUser(ctx, userID)
	if err != nil {
		return nil, srv.storeFailure(ctx, err, "failed to list sessions")
	}

	infos := make([]*entity.SessionInfo, 0, len(tokens))
	for _, token := range tokens {
		session, err := srv.sessionStore.Get(ctx, token)
		if err != nil {
			// A session may expire between the listing and the read.
			if errors.Is(err, repository.ErrSessionNotFound) {
				continue
			}

			return nil, srv.storeFailure(ctx, err, "failed to read session")
		}

		infos = append(infos, &entity.SessionInfo{
			UserID:    session.UserID,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
		})
	}

	return infos, nil
}

// RevokeAllSessions logs the user out everywhere.
func (srv *sessionService) RevokeAllSessions(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := srv.sessionStore.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, srv.storeFailure(ctx, err, "failed to revoke sessions")
	}

	srv.log(ctx).Info("Revoked all sessions", slog.Any("userID", userID), slog.Int("count", count))

	return count, nil
}
