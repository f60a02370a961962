// Package middleware contains the HTTP middleware chain: request identity,
// authentication, authorization, logging, and error translation.
package middleware

import (
	"strings"

	"portal/internal/domain/entity"
	domainerrors "portal/internal/domain/errors"
	"portal/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// AccessTokenCookie is the cookie carrying the access token for browser clients.
	AccessTokenCookie = "access_token"

	// ContextKeyUserID is the echo.Context key holding the authenticated user's ID.
	ContextKeyUserID = "userID"
	// ContextKeyRole is the echo.Context key holding the authenticated user's role.
	ContextKeyRole = "role"
)

// AuthMiddleware provides middleware for access token authentication and
// role-based authorization.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate validates the access token and stores the caller's identity on
// the context. The cookie is checked first, then the Authorization header.
// Every failure mode answers the same way so the response never reveals
// whether a token was missing, expired, or forged.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := extractAccessToken(c)
		if tokenString == "" {
			return domainerrors.ErrUnauthorized
		}

		claims, err := m.tokenSvc.ValidateAccessToken(tokenString)
		if err != nil {
			return domainerrors.ErrUnauthorized
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, claims.Role)

		return next(c)
	}
}

// RequireRole is a middleware factory that gates a route to the given roles.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(allowed ...entity.Role) echo.MiddlewareFunc {
	allowedRoles := entity.Roles(allowed)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextKeyRole).(entity.Role)
			if !ok {
				return domainerrors.ErrForbidden
			}

			if !entity.IsAllowed(role, allowedRoles) {
				return domainerrors.ErrForbidden
			}

			return next(c)
		}
	}
}

// UserID returns the authenticated user's ID from the context. The zero UUID
// means the route was not behind Authenticate.
func UserID(c echo.Context) uuid.UUID {
	if id, ok := c.Get(ContextKeyUserID).(uuid.UUID); ok {
		return id
	}

	return uuid.Nil
}

// Role returns the authenticated user's role from the context.
func Role(c echo.Context) entity.Role {
	if role, ok := c.Get(ContextKeyRole).(entity.Role); ok {
		return role
	}

	return ""
}

func extractAccessToken(c echo.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return ""
	}

	return tokenString
}
