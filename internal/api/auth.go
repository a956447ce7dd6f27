package api

import (
	"context"
	"net/http"

	"recibos/internal/core"
)

// AuthService talks to the authentication endpoints. Token issuance and
// identity resolution are two calls; the session layer stitches them
// together.
type AuthService struct {
	c *Client
}

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login exchanges credentials for a bearer token. Invalid credentials
// surface as ErrUnauthorized; the caller must not treat that as a session
// expiry, since no session exists yet.
func (s *AuthService) Login(ctx context.Context, email, secret string) (string, error) {
	var resp loginResponse
	err := s.c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Secret: secret}, &resp)
	if err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Me resolves the full identity behind a freshly issued token.
func (s *AuthService) Me(ctx context.Context, token string) (core.Identity, error) {
	var id core.Identity
	err := s.c.do(ctx, http.MethodGet, "/auth/me", token, nil, &id)
	return id, err
}
