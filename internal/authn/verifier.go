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

// Verifier promotes a pending ticket to a finished session.
type Verifier struct {
	api  Identity
	opts Options
}

// NewVerifier creates a Verifier.
func NewVerifier(api Identity, opts Options) *Verifier {
	return &Verifier{api: api, opts: opts.withDefaults()}
}

// Verify relays code and method to the identity service using the pending
// ticket. The method is whatever the caller was told at the password step;
// the service decides whether it fits.
//
// A missing or expired ticket fails with ErrTicketExpired without a remote
// call. On success the ticket is deleted and the store identifier rotated
// before the session is written.
func (v *Verifier) Verify(ctx context.Context, store session.Store, code string, method Method) (*Credentials, error) {
	log := slogx.FromContext(ctx)

	code = strings.TrimSpace(code)
	fields := map[string]string{}
	if code == "" {
		fields["code"] = "required"
	}
	if _, err := ParseMethod(string(method)); err != nil {
		fields["method"] = "must be totp or email"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	pending, err := session.Lookup(ctx, store, session.KeyPendingAccess)
	if err != nil {
		return nil, fmt.Errorf("authn: read ticket: %w", err)
	}
	if pending == "" {
		return nil, ErrTicketExpired
	}

	pair, err := v.api.VerifyOTP(ctx, pending, code, string(method))
	if err != nil {
		switch {
		case ticketGone(err):
			log.Info("second factor ticket expired remotely")
			if err := v.dropTicket(ctx, store); err != nil {
				return nil, err
			}
			return nil, ErrTicketExpired
		case identity.IsStatus(err, http.StatusBadRequest),
			identity.IsStatus(err, http.StatusUnprocessableEntity):
			log.Info("second factor code rejected", "method", method)
			return nil, ErrCodeRejected
		}
		return nil, fmt.Errorf("authn: verify: %w", err)
	}

	if err := v.dropTicket(ctx, store); err != nil {
		return nil, err
	}
	if err := session.Rotate(ctx, store); err != nil {
		return nil, fmt.Errorf("authn: rotate session: %w", err)
	}

	creds := &Credentials{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	ttl := session.Options{TTL: v.opts.SessionTTL}
	if err := store.Set(ctx, session.KeyAccess, creds.AccessToken, ttl); err != nil {
		return nil, fmt.Errorf("authn: store session: %w", err)
	}
	if creds.RefreshToken != "" {
		if err := store.Set(ctx, session.KeyRefresh, creds.RefreshToken, ttl); err != nil {
			return nil, fmt.Errorf("authn: store session: %w", err)
		}
	}

	log.Info("second factor accepted, session issued", "method", method)
	return creds, nil
}

// Resend asks for a new one-time code through the same channel, reusing the
// stored ticket. The ticket is not rewritten, so its deadline stays where it
// was.
func (v *Verifier) Resend(ctx context.Context, store session.Store) error {
	pending, err := session.Lookup(ctx, store, session.KeyPendingAccess)
	if err != nil {
		return fmt.Errorf("authn: read ticket: %w", err)
	}
	if pending == "" {
		return ErrTicketExpired
	}

	if err := v.api.ResendOTP(ctx, pending); err != nil {
		if ticketGone(err) {
			if err := v.dropTicket(ctx, store); err != nil {
				return err
			}
			return ErrTicketExpired
		}
		return fmt.Errorf("authn: resend: %w", err)
	}

	slogx.FromContext(ctx).Info("one-time code resent")
	return nil
}

func (v *Verifier) dropTicket(ctx context.Context, store session.Store) error {
	if err := session.DeleteAll(ctx, store, session.KeyPendingAccess, session.KeyPendingRefresh); err != nil {
		return fmt.Errorf("authn: delete ticket: %w", err)
	}
	return nil
}

// ticketGone reports a remote answer meaning the pending ticket can no
// longer be used.
func ticketGone(err error) bool {
	var apiErr *identity.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized ||
		apiErr.StatusCode == http.StatusGone ||
		apiErr.Code == identity.ErrorCodeTicketExpired
}
