package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/samimwebdev/jsninja/internal/authn"
	"github.com/samimwebdev/jsninja/pkg/httpx"
	"github.com/samimwebdev/jsninja/pkg/identity"
	"github.com/samimwebdev/jsninja/pkg/slogx"
)

// Error codes written by this package.
const (
	codeInvalidRequest     = "invalid_request"
	codeValidation         = "validation_error"
	codeInvalidCredentials = "invalid_credentials"
	codeTicketExpired      = "ticket_expired"
	codeCodeRejected       = "code_rejected"
	codeNotFound           = "not_found"
	codeBackend            = "backend_error"
	codeBackendUnavailable = "backend_unavailable"
	codeServer             = "server_error"
)

// writeError translates an authn failure into a response. AuthRequiredError
// is the only one that becomes a redirect.
func writeError(w http.ResponseWriter, r *http.Request, err error, loginPath string) {
	log := slogx.FromContext(r.Context())

	var (
		validation *authn.ValidationError
		required   *authn.AuthRequiredError
		apiErr     *identity.APIError
		urlErr     *url.Error
	)

	switch {
	case errors.As(err, &required):
		httpx.NoCache(w)
		http.Redirect(w, r, required.Location, http.StatusSeeOther)
	case errors.As(err, &validation):
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:            codeValidation,
			ErrorDescription: "Some fields are missing or invalid",
			Details:          validation.Fields,
		})
	case errors.Is(err, authn.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, codeInvalidCredentials, "Invalid identifier or password")
	case errors.Is(err, authn.ErrTicketExpired):
		httpx.WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:            codeTicketExpired,
			ErrorDescription: "The login has expired, please sign in again",
			Restart:          loginPath,
		})
	case errors.Is(err, authn.ErrCodeRejected):
		httpx.WriteError(w, http.StatusBadRequest, codeCodeRejected, "The code is invalid or has expired")
	case errors.As(err, &apiErr):
		log.Warn("backend call failed", "status", apiErr.StatusCode, "code", apiErr.Code)
		httpx.WriteError(w, http.StatusBadGateway, codeBackend, apiErr.Message)
	case errors.As(err, &urlErr):
		log.Error("backend unreachable", "err", err)
		httpx.WriteError(w, http.StatusBadGateway, codeBackendUnavailable, "The backend could not be reached")
	default:
		log.Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, codeServer, "Internal server error")
	}
}
