package usecase

import (
	"context"

	"portal/internal/domain/entity"

	"github.com/google/uuid"
)

// SessionUsecase defines the session management surface exposed to an
// authenticated user.
type SessionUsecase interface {
	// GetActiveSessions lists the user's live sessions. Raw refresh tokens
	// never appear in the result.
	GetActiveSessions(ctx context.Context, userID uuid.UUID) ([]*entity.SessionInfo, error)

	// RevokeAllSessions logs the user out everywhere and returns how many
	// sessions were revoked.
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) (int, error)
}
