package handler

import (
	"net/http"

	"portal/internal/delivery/http/response"
	"portal/internal/domain/entity"
	"portal/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AdminHandler holds dependencies for administrative account handlers.
type AdminHandler struct {
	uc usecase.AdminUsecase
}

// NewAdminHandler is the constructor for AdminHandler, injected by Fx.
func NewAdminHandler(uc usecase.AdminUsecase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

type suspensionRequest struct {
	Suspended *bool `json:"suspended" validate:"required"`
}

// SetSuspension suspends or reinstates a target account.
func (h *AdminHandler) SetSuspension(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid user id")
	}

	var req suspensionRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid suspension input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.uc.SetSuspended(c.Request().Context(), &usecase.SetSuspendedInput{
		UserID:    userID,
		Suspended: *req.Suspended,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserView(user), "Suspension state updated")
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin teacher student"`
}

// ChangeRole reassigns a target account's role.
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid user id")
	}

	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid role input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.uc.ChangeRole(c.Request().Context(), &usecase.ChangeRoleInput{
		UserID: userID,
		Role:   entity.Role(req.Role),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserView(user), "Role updated")
}
