package http

import (
	"mime"
	"net/http"

	"github.com/samimwebdev/jsninja/internal/authn"
	"github.com/samimwebdev/jsninja/internal/session"
	"github.com/samimwebdev/jsninja/pkg/httpx"
	"github.com/samimwebdev/jsninja/pkg/slogx"
)

// AuthHandler serves the login, second factor, logout and session endpoints.
type AuthHandler struct {
	Core      *authn.Core
	Sessions  session.Provider
	LoginPath string
}

// Login godoc
//
//	@Summary		Password step
//	@Description	Checks identifier and password against the backend. On success a pending
//	@Description	login ticket is stored in the session; it does not authenticate anything.
//	@Description	Wrong identifier and wrong password produce the same answer.
//	@Tags			Auth
//	@Accept			json
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	LoginResponse	"Pending login"
//	@Failure		400		{object}	ErrorResponse	"Missing or invalid fields"
//	@Failure		401		{object}	ErrorResponse	"invalid_credentials"
//	@Failure		429		{object}	ErrorResponse	"Rate limit exceeded"
//	@Failure		502		{object}	ErrorResponse	"Backend failure"
//	@Router			/auth/login [post].
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeLogin(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, codeInvalidRequest, "Malformed request body")
		return
	}

	store := h.Sessions.Open(w, r)
	pending, err := h.Core.Authenticator.Authenticate(r.Context(), store, req.Identifier, req.Password)
	if err != nil {
		writeError(w, r, err, h.LoginPath)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		State:     authn.StatePending,
		Method:    pending.Method,
		UserID:    pending.UserID,
		ExpiresAt: pending.ExpiresAt,
	})
}

// Verify godoc
//
//	@Summary		Second factor step
//	@Description	Submits the one-time code for the pending login. On success the session is
//	@Description	authenticated and the ticket is gone. A wrong code keeps the ticket.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		VerifyRequest	true	"Code and method"
//	@Success		200		{object}	StateResponse	"Authenticated"
//	@Failure		400		{object}	ErrorResponse	"validation_error or code_rejected"
//	@Failure		401		{object}	ErrorResponse	"ticket_expired, start over at restart"
//	@Failure		429		{object}	ErrorResponse	"Rate limit exceeded"
//	@Router			/auth/login/verify [post].
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, codeInvalidRequest, "Malformed request body")
		return
	}

	store := h.Sessions.Open(w, r)
	if _, err := h.Core.Verifier.Verify(r.Context(), store, req.Code, authn.Method(req.Method)); err != nil {
		writeError(w, r, err, h.LoginPath)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, StateResponse{State: authn.StateAuthenticated})
}

// Resend godoc
//
//	@Summary		Resend the one-time code
//	@Description	Asks the backend to deliver a new code for the pending login. The ticket
//	@Description	keeps its original expiry.
//	@Tags			Auth
//	@Success		204	"Code sent"
//	@Failure		401	{object}	ErrorResponse	"ticket_expired"
//	@Failure		429	{object}	ErrorResponse	"Rate limit exceeded"
//	@Router			/auth/login/resend [post].
func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	store := h.Sessions.Open(w, r)
	if err := h.Core.Verifier.Resend(r.Context(), store); err != nil {
		writeError(w, r, err, h.LoginPath)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// Logout godoc
//
//	@Summary		End the session
//	@Description	Removes every session value, pending or finished. No backend call is made.
//	@Tags			Auth
//	@Success		204	"Logged out"
//	@Router			/auth/logout [post].
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	store := h.Sessions.Open(w, r)
	if err := authn.Logout(r.Context(), store); err != nil {
		writeError(w, r, err, h.LoginPath)
		return
	}

	slogx.FromContext(r.Context()).Info("logged out")
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// Session godoc
//
//	@Summary		Current session
//	@Description	Reports the stored session state and, when a finished session exists,
//	@Description	whether the backend accepts it right now. Never renews the session.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Router			/auth/session [get].
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	store := h.Sessions.Open(w, r)

	resp := SessionResponse{State: h.Core.Query.State(r.Context(), store)}
	if resp.State == authn.StateAuthenticated {
		resp.User = h.Core.Query.CurrentUser(r.Context(), store)
		resp.Authenticated = resp.User != nil
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

func decodeLogin(w http.ResponseWriter, r *http.Request, dst *LoginRequest) error {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "application/x-www-form-urlencoded" {
		return httpx.DecodeJSON(w, r, dst)
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := r.ParseForm(); err != nil {
		return err
	}
	dst.Identifier = r.PostForm.Get("identifier")
	dst.Password = r.PostForm.Get("password")
	return nil
}
