package usecase

import (
	"context"

	"portal/internal/domain/entity"

	"github.com/google/uuid"
)

// SetSuspendedInput defines the data for toggling an account's suspension.
type SetSuspendedInput struct {
	UserID    uuid.UUID
	Suspended bool
}

// ChangeRoleInput defines the data for reassigning an account's role.
type ChangeRoleInput struct {
	UserID uuid.UUID
	Role   entity.Role
}

// AdminUsecase defines the administrative account operations.
type AdminUsecase interface {
	// SetSuspended suspends or reinstates an account. Suspension revokes
	// every live session of the target user.
	SetSuspended(ctx context.Context, input *SetSuspendedInput) (*entity.User, error)

	// ChangeRole reassigns an account's role. Existing sessions survive;
	// short-lived access tokens pick up the new role on the next refresh.
	ChangeRole(ctx context.Context, input *ChangeRoleInput) (*entity.User, error)
}
