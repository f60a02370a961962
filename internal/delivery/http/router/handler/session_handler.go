package handler

import (
	"fmt"
	"net/http"

	"portal/internal/delivery/http/middleware"
	"portal/internal/delivery/http/response"
	"portal/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// SessionHandler holds dependencies for session management handlers.
type SessionHandler struct {
	uc usecase.SessionUsecase
}

// NewSessionHandler is the constructor for SessionHandler, injected by Fx.
func NewSessionHandler(uc usecase.SessionUsecase) *SessionHandler {
	return &SessionHandler{uc: uc}
}

// ListSessions returns the caller's active sessions.
func (h *SessionHandler) ListSessions(c echo.Context) error {
	userID := middleware.UserID(c)

	sessions, err := h.uc.GetActiveSessions(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, sessions, "Active sessions retrieved")
}

// RevokeAllSessions logs the caller out everywhere.
func (h *SessionHandler) RevokeAllSessions(c echo.Context) error {
	userID := middleware.UserID(c)

	count, err := h.uc.RevokeAllSessions(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]int{"revoked": count},
		fmt.Sprintf("Revoked %d sessions", count))
}
