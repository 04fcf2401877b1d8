package http

import (
	"errors"
	"net/http"

	"github.com/samimwebdev/jsninja/internal/devidentity/service"
	"github.com/samimwebdev/jsninja/pkg/httpx"
	"github.com/samimwebdev/jsninja/pkg/identity"
	"github.com/samimwebdev/jsninja/pkg/slogx"
)

// TOTPEnrollResponse carries a freshly generated TOTP secret.
type TOTPEnrollResponse struct {
	Secret  string `json:"secret" example:"JBSWY3DPEHPK3PXP"`
	URL     string `json:"url" example:"otpauth://totp/jsninja:alice?secret=JBSWY3DPEHPK3PXP&issuer=jsninja"`
	Issuer  string `json:"issuer" example:"jsninja"`
	Account string `json:"account" example:"alice"`
}

// TOTPConfirmRequest is the body of POST /v1/users/me/totp/confirm.
type TOTPConfirmRequest struct {
	Code string `json:"code" example:"123456"`
}

type UserHandler struct {
	UserService *service.UserService
}

// HandleMe handles GET /v1/users/me
//
//	@Summary		Current user
//	@Description	Returns the account the access token was issued to.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	identity.User			"Account"
//	@Failure		401	{object}	identity.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/users/me [get].
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		writeInvalidToken(w)
		return
	}

	u, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeInvalidToken(w)
			return
		}
		slogx.FromContext(ctx).Error("failed to load user", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUser(u))
}

// HandleEnrollTOTP handles POST /v1/users/me/totp
//
//	@Summary		Enroll in TOTP
//	@Description	Generates a TOTP secret. Logins keep using emailed codes until the secret is confirmed.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	TOTPEnrollResponse		"Secret and otpauth URL"
//	@Failure		400	{object}	identity.ErrorResponse	"TOTP already enabled"
//	@Failure		401	{object}	identity.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/users/me/totp [post].
func (h *UserHandler) HandleEnrollTOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		writeInvalidToken(w)
		return
	}

	enrollment, err := h.UserService.EnrollTOTP(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrTOTPAlreadyEnabled) {
			writeInvalidRequest(w, err.Error())
			return
		}
		log.Error("failed to enroll TOTP", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	log.Info("TOTP enrollment started", "user_id", userID)
	httpx.WriteJSON(w, http.StatusOK, TOTPEnrollResponse{
		Secret:  enrollment.Secret,
		URL:     enrollment.URL,
		Issuer:  enrollment.Issuer,
		Account: enrollment.Account,
	})
}

// HandleConfirmTOTP handles POST /v1/users/me/totp/confirm
//
//	@Summary		Confirm TOTP enrollment
//	@Description	Enables TOTP for logins once a code from the enrolled secret is accepted.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	TOTPConfirmRequest	true	"Code"
//	@Success		204		"TOTP enabled"
//	@Failure		400		{object}	identity.ErrorResponse	"Invalid code or not enrolled"
//	@Failure		401		{object}	identity.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/users/me/totp/confirm [post].
func (h *UserHandler) HandleConfirmTOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		writeInvalidToken(w)
		return
	}

	var req TOTPConfirmRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.Code == "" {
		writeInvalidRequest(w, "code is required")
		return
	}

	err := h.UserService.ConfirmTOTP(ctx, userID, req.Code)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCode):
		httpx.WriteError(w, http.StatusBadRequest, identity.ErrorCodeInvalidCode, err.Error())
		return
	case errors.Is(err, service.ErrTOTPAlreadyEnabled), errors.Is(err, service.ErrTOTPNotEnrolled):
		writeInvalidRequest(w, err.Error())
		return
	default:
		log.Error("failed to confirm TOTP", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	log.Info("TOTP enabled", "user_id", userID)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
