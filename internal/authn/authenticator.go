package authn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samimwebdev/jsninja/internal/session"
	"github.com/samimwebdev/jsninja/pkg/identity"
	"github.com/samimwebdev/jsninja/pkg/slogx"
)

// Authenticator performs the password step of a login.
type Authenticator struct {
	api  Identity
	opts Options
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(api Identity, opts Options) *Authenticator {
	return &Authenticator{api: api, opts: opts.withDefaults()}
}

// Authenticate checks identifier and password with the identity service.
// On success the issued pair is stored only as a pending ticket; a second
// factor is always required before a session exists. Any finished session
// already in the store is removed and the store identifier is rotated.
func (a *Authenticator) Authenticate(ctx context.Context, store session.Store, identifier, password string) (*PendingLogin, error) {
	log := slogx.FromContext(ctx)

	fields := map[string]string{}
	if strings.TrimSpace(identifier) == "" {
		fields["identifier"] = "required"
	}
	if password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	resp, err := a.api.Login(ctx, identifier, password)
	if err != nil {
		return nil, classifyLoginError(err)
	}

	if err := session.DeleteAll(ctx, store, session.KeyAccess, session.KeyRefresh); err != nil {
		return nil, fmt.Errorf("authn: clear session: %w", err)
	}
	if err := session.Rotate(ctx, store); err != nil {
		return nil, fmt.Errorf("authn: rotate session: %w", err)
	}

	ttl := session.Options{TTL: a.opts.PendingTTL}
	if err := store.Set(ctx, session.KeyPendingAccess, resp.AccessToken, ttl); err != nil {
		return nil, fmt.Errorf("authn: store ticket: %w", err)
	}
	if resp.RefreshToken != "" {
		err = store.Set(ctx, session.KeyPendingRefresh, resp.RefreshToken, ttl)
	} else {
		err = store.Delete(ctx, session.KeyPendingRefresh)
	}
	if err != nil {
		return nil, fmt.Errorf("authn: store ticket: %w", err)
	}

	method := MethodEmail
	if resp.User.SecondFactorEnabled {
		method = MethodTOTP
	}

	log.Info("password accepted, second factor required",
		"user_id", resp.User.ID,
		"method", method,
	)

	return &PendingLogin{
		UserID:    resp.User.ID,
		Method:    method,
		ExpiresAt: a.opts.Now().Add(a.opts.PendingTTL),
	}, nil
}

func classifyLoginError(err error) error {
	var apiErr *identity.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("authn: login: %w", err)
	}

	switch apiErr.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if len(apiErr.Details) > 0 {
			return &ValidationError{Fields: apiErr.Details}
		}
		return ErrInvalidCredentials
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrInvalidCredentials
	}
	return apiErr
}
