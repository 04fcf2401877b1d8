package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/samimwebdev/jsninja/internal/devidentity/domain"
	"github.com/samimwebdev/jsninja/internal/devidentity/service"
	"github.com/samimwebdev/jsninja/pkg/httpx"
	"github.com/samimwebdev/jsninja/pkg/identity"
	"github.com/samimwebdev/jsninja/pkg/slogx"
)

// AuthHandler serves the password step, the one-time code endpoints and
// token refresh.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Password step
//	@Description	Checks identifier (username or email) and password. Returns a pending token pair
//	@Description	that only authorizes the one-time code endpoints. Email users are sent a code.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identity.LoginRequest	true	"Credentials"
//	@Success		200		{object}	identity.LoginResponse	"Pending token pair and account"
//	@Failure		400		{object}	identity.ErrorResponse	"Invalid request or credentials"
//	@Failure		429		{object}	identity.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identity.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeInvalidRequest(w, "invalid JSON body")
		return
	}

	req.Identifier = strings.TrimSpace(req.Identifier)
	fields := map[string]string{}
	if req.Identifier == "" {
		fields["identifier"] = "required"
	}
	if req.Password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}

	res, err := h.AuthService.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusBadRequest, identity.ErrorCodeInvalidCredentials, "invalid credentials")
			return
		}
		log.Error("login failed", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, identity.LoginResponse{
		TokenPair: identity.TokenPair{
			AccessToken:  res.Pair.AccessToken,
			RefreshToken: res.Pair.RefreshToken,
		},
		User: toUser(res.User),
	})
}

// HandleVerify handles POST /v1/auth/otp/verify
//
//	@Summary		Second factor step
//	@Description	Verifies a TOTP or emailed code for the login ticket named by the pending token.
//	@Description	Success consumes the ticket and returns an access token and a refresh token.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identity.VerifyRequest	true	"Code and method"
//	@Success		200		{object}	identity.TokenPair		"Session tokens"
//	@Failure		400		{object}	identity.ErrorResponse	"Invalid code or request"
//	@Failure		401		{object}	identity.ErrorResponse	"Ticket expired or token invalid"
//	@Router			/v1/auth/otp/verify [post].
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok || claims.Subject == "" || claims.SID == "" {
		writeInvalidToken(w)
		return
	}

	var req identity.VerifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeInvalidRequest(w, "invalid JSON body")
		return
	}

	method := domain.Method(req.Method)
	fields := map[string]string{}
	if strings.TrimSpace(req.Code) == "" {
		fields["code"] = "required"
	}
	if method != domain.MethodTOTP && method != domain.MethodEmail {
		fields["method"] = "must be totp or email"
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}

	pair, err := h.AuthService.VerifyCode(ctx, claims.Subject, claims.SID, strings.TrimSpace(req.Code), method)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketExpired):
			httpx.WriteError(w, http.StatusUnauthorized, identity.ErrorCodeTicketExpired, "login ticket expired")
		case errors.Is(err, service.ErrInvalidCode), errors.Is(err, service.ErrMethodMismatch):
			httpx.WriteError(w, http.StatusBadRequest, identity.ErrorCodeInvalidCode, err.Error())
		default:
			log.Error("verify failed", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, identity.TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleResend handles POST /v1/auth/otp/resend
//
//	@Summary		Resend one-time code
//	@Description	Mails a fresh code for the login ticket. The ticket keeps its expiry.
//	@Description	Answers 204 for TOTP tickets without doing anything.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Success		204	"Code sent"
//	@Failure		401	{object}	identity.ErrorResponse	"Ticket expired or token invalid"
//	@Router			/v1/auth/otp/resend [post].
func (h *AuthHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok || claims.Subject == "" || claims.SID == "" {
		writeInvalidToken(w)
		return
	}

	if err := h.AuthService.ResendCode(ctx, claims.Subject, claims.SID); err != nil {
		if errors.Is(err, service.ErrTicketExpired) {
			httpx.WriteError(w, http.StatusUnauthorized, identity.ErrorCodeTicketExpired, "login ticket expired")
			return
		}
		slogx.FromContext(ctx).Error("resend failed", "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefresh handles POST /v1/auth/refresh
//
//	@Summary		Refresh session tokens
//	@Description	Exchanges a session refresh token for a new access token and a rotated refresh token.
//	@Description	Reusing a rotated refresh token revokes the session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identity.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	identity.TokenPair		"New tokens"
//	@Failure		400		{object}	identity.ErrorResponse	"Invalid request"
//	@Failure		401		{object}	identity.ErrorResponse	"Refresh token invalid, expired or revoked"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identity.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.RefreshToken == "" {
		writeInvalidRequest(w, "refresh_token is required")
		return
	}

	pair, err := h.AuthService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			httpx.WriteError(w, http.StatusUnauthorized, identity.ErrorCodeInvalidToken, "invalid refresh token")
			return
		}
		slogx.FromContext(ctx).Error("refresh failed", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, identity.TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func toUser(u domain.User) identity.User {
	return identity.User{
		ID:                  u.ID,
		Email:               u.Email,
		Username:            u.Username,
		SecondFactorEnabled: u.TwoFactorEnabled(),
	}
}
