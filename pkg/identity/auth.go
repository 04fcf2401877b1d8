package identity

import (
	"context"
	"errors"
	"net/http"
)

// Login checks identifier and password. The returned pair only authorizes
// the second factor endpoints.
func (c *Client) Login(ctx context.Context, identifier, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", "",
		LoginRequest{Identifier: identifier, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, errors.New("identity: login response without access token")
	}
	return &out, nil
}

// VerifyOTP exchanges a one-time code and the pending access token for a
// finished token pair.
func (c *Client) VerifyOTP(ctx context.Context, pendingToken, code, method string) (*TokenPair, error) {
	var out TokenPair
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/otp/verify", pendingToken,
		VerifyRequest{Code: code, Method: method}, &out)
	if err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, errors.New("identity: verify response without access token")
	}
	return &out, nil
}

// ResendOTP asks the service to deliver a new code for the pending login
// identified by pendingToken.
func (c *Client) ResendOTP(ctx context.Context, pendingToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/auth/otp/resend", pendingToken, nil, nil)
}

// Refresh exchanges a refresh token for a new access token. RefreshToken in
// the result is set only when the service rotated it.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var out TokenPair
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/refresh", "",
		RefreshRequest{RefreshToken: refreshToken}, &out)
	if err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, errors.New("identity: refresh response without access token")
	}
	return &out, nil
}

// Me resolves the identity behind accessToken.
func (c *Client) Me(ctx context.Context, accessToken string) (*User, error) {
	var out User
	if err := c.doJSON(ctx, http.MethodGet, "/v1/users/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
