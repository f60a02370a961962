// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"portal/config"
	"portal/internal/delivery/http/middleware"
	"portal/internal/delivery/http/response"
	"portal/internal/domain/entity"
	domainerrors "portal/internal/domain/errors"
	"portal/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	refreshTokenCookie = "refresh_token"
	oauthStateCookie   = "oauth_state"

	// Refresh tokens only travel to the endpoints that consume them.
	refreshCookiePath = "/auth"

	oauthStateTTL = 10 * time.Minute
)

// userView is the public projection of a user. Credential material never
// appears here.
type userView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Suspended bool      `json:"suspended"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserView(user *entity.User) *userView {
	return &userView{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role.String(),
		Suspended: user.Suspended,
		CreatedAt: user.CreatedAt,
	}
}

// loginView is the response body for every session-opening endpoint. The
// access token is duplicated in the body for non-browser clients; the
// refresh token only ever travels in its cookie.
type loginView struct {
	AccessToken string    `json:"access_token"`
	User        *userView `json:"user"`
}

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	uc     usecase.AuthUsecase
	cfg    *config.Config
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		cfg:    cfg,
		logger: logger,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin teacher student"`
}

// Register handles the account registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.uc.Register(c.Request().Context(), &usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     entity.Role(req.Role),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toUserView(output.User), "Account registered successfully")
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles the password login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.uc.Login(c.Request().Context(), &usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	h.setAuthCookies(c, output)

	return response.Success(c, http.StatusOK, &loginView{
		AccessToken: output.AccessToken,
		User:        toUserView(output.User),
	}, "Login successful")
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles the token rotation request. The refresh token is read from
// its cookie, with the body as fallback for non-browser clients.
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := h.refreshTokenFromRequest(c)
	if token == "" {
		return domainerrors.ErrUnauthorized
	}

	output, err := h.uc.Refresh(c.Request().Context(), &usecase.RefreshInput{RefreshToken: token})
	if err != nil {
		h.clearAuthCookies(c)

		return errors.WithStack(err)
	}

	h.setAuthCookies(c, output)

	return response.Success(c, http.StatusOK, &loginView{
		AccessToken: output.AccessToken,
		User:        toUserView(output.User),
	}, "Token refreshed successfully")
}

// Logout ends the current session. Logging out without a live session still
// succeeds; the cookies are cleared either way.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := h.refreshTokenFromRequest(c)

	if err := h.uc.Logout(c.Request().Context(), &usecase.LogoutInput{RefreshToken: token}); err != nil {
		return errors.WithStack(err)
	}

	h.clearAuthCookies(c)

	return c.NoContent(http.StatusNoContent)
}

// OAuthLogin initiates the authorization-code flow for a provider. The state
// parameter round-trips through a short-lived cookie.
func (h *AuthHandler) OAuthLogin(c echo.Context) error {
	provider := c.Param("provider")
	state := uuid.New().String()

	authURL, err := h.uc.OAuthAuthorizationURL(c.Request().Context(), provider, state)
	if err != nil {
		return errors.WithStack(err)
	}

	c.SetCookie(h.buildCookie(oauthStateCookie, state, refreshCookiePath, oauthStateTTL))

	if c.QueryParam("redirect") == "false" {
		return response.Success(c, http.StatusOK, map[string]string{"oauth_url": authURL}, "Authorization URL generated")
	}

	return c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// OAuthCallback completes the authorization-code flow for a provider.
func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	provider := c.Param("provider")
	code := c.QueryParam("code")
	state := c.QueryParam("state")

	stateCookie, err := c.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		return h.oauthFailure(c, domainerrors.ErrOAuthCodeInvalid.WrapMessage("state parameter mismatch"))
	}
	c.SetCookie(h.expireCookie(oauthStateCookie, refreshCookiePath))

	if code == "" {
		// The provider reports consent denial through error query params.
		if providerErr := c.QueryParam("error"); providerErr != "" {
			h.logger.Warn("OAuth consent denied", slog.String("provider", provider), slog.String("error", providerErr))
		}

		return h.oauthFailure(c, domainerrors.ErrOAuthCodeInvalid)
	}

	output, err := h.uc.OAuthCallback(c.Request().Context(), &usecase.OAuthCallbackInput{
		Provider: provider,
		Code:     code,
	})
	if err != nil {
		return h.oauthFailure(c, err)
	}

	h.setAuthCookies(c, output)

	if target := h.cfg.Auth.PostLoginRedirectURL; target != "" {
		return c.Redirect(http.StatusSeeOther, target)
	}

	return response.Success(c, http.StatusOK, &loginView{
		AccessToken: output.AccessToken,
		User:        toUserView(output.User),
	}, "Login successful")
}

// oauthFailure answers a failed callback. With a post-login URL configured
// the browser is sent back to the frontend carrying the error code in the
// query string; otherwise the error surfaces as the JSON envelope. No auth
// cookies are set on either path.
func (h *AuthHandler) oauthFailure(c echo.Context, failure error) error {
	target := h.cfg.Auth.PostLoginRedirectURL
	if target == "" {
		return errors.WithStack(failure)
	}

	errorCode := "OAUTH_FAILED"
	var appErr domainerrors.AppError
	if errors.As(failure, &appErr) {
		errorCode = appErr.ErrorCode()
	}

	redirect, err := url.Parse(target)
	if err != nil {
		return errors.WithStack(failure)
	}
	query := redirect.Query()
	query.Set("error", errorCode)
	redirect.RawQuery = query.Encode()

	return c.Redirect(http.StatusSeeOther, redirect.String())
}

func (h *AuthHandler) refreshTokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req refreshRequest
	if err := c.Bind(&req); err == nil {
		return req.RefreshToken
	}

	return ""
}

func (h *AuthHandler) setAuthCookies(c echo.Context, output *usecase.LoginOutput) {
	c.SetCookie(h.buildCookie(middleware.AccessTokenCookie, output.AccessToken, h.cfg.Cookie.Path, h.cfg.Auth.AccessTokenTTL))
	c.SetCookie(h.buildCookie(refreshTokenCookie, output.RefreshToken, refreshCookiePath, h.cfg.Auth.RefreshTokenTTL))
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	c.SetCookie(h.expireCookie(middleware.AccessTokenCookie, h.cfg.Cookie.Path))
	c.SetCookie(h.expireCookie(refreshTokenCookie, refreshCookiePath))
}

func (h *AuthHandler) buildCookie(name, value, path string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   h.cfg.Cookie.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) expireCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   h.cfg.Cookie.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
