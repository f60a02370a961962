// Package oauth implements external identity providers on top of the
// standard authorization-code flow.
package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"portal/config"
	"portal/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	// ProviderGoogle is the route/storage identifier for Google Sign-In.
	ProviderGoogle = "google"

	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// googleProvider implements service.OAuthProvider for Google Sign-In.
type googleProvider struct {
	oauthConfig *oauth2.Config
}

// NewGoogleProvider builds a Google provider from its client configuration.
func NewGoogleProvider(cfg *config.OAuthProviderConfig) service.OAuthProvider {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}

	return &googleProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  googleAuthURL,
				TokenURL: googleTokenURL,
			},
		},
	}
}

// Name returns the provider identifier used in routes and storage.
func (p *googleProvider) Name() string {
	return ProviderGoogle
}

// AuthorizationURL builds the Google consent URL for the given state parameter.
func (p *googleProvider) AuthorizationURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for the user's Google profile.
func (p *googleProvider) Exchange(ctx context.Context, code string) (*service.OAuthProfile, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange authorization code")
	}

	profile, err := p.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	profile.AccessToken = token.AccessToken
	profile.RefreshToken = token.RefreshToken
	if idToken, ok := token.Extra("id_token").(string); ok {
		profile.IDToken = idToken
	}
	if scope, ok := token.Extra("scope").(string); ok {
		profile.Scope = scope
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		profile.ExpiresAt = &expiry
	}

	return profile, nil
}

// fetchUserInfo retrieves the user's profile with the freshly issued token.
func (p *googleProvider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*service.OAuthProfile, error) {
	client := p.oauthConfig.Client(ctx, token)

	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return nil, errors.Errorf("user info request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var googleUser struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		VerifiedEmail bool   `json:"verified_email"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, errors.Wrap(err, "failed to decode user info response")
	}

	if !googleUser.VerifiedEmail {
		return nil, errors.New("google account email is not verified")
	}

	return &service.OAuthProfile{
		ProviderAccountID: googleUser.ID,
		Email:             googleUser.Email,
		Name:              googleUser.Name,
	}, nil
}
