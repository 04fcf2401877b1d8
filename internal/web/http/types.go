package http

import (
	"time"

	"github.com/samimwebdev/jsninja/internal/authn"
	"github.com/samimwebdev/jsninja/pkg/identity"
)

// LoginRequest is the body of POST /auth/login (JSON or form encoded).
type LoginRequest struct {
	Identifier string `json:"identifier" example:"alice@example.com"`
	Password   string `json:"password" example:"correct horse battery staple"`
}

// LoginResponse describes the pending login after a correct password.
type LoginResponse struct {
	State     authn.State  `json:"state" example:"pending"`
	Method    authn.Method `json:"method" example:"email"`
	UserID    string       `json:"user_id" example:"01JB3Z6Q0M8V6X4N2C7T9R5K1D"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// VerifyRequest is the body of POST /auth/login/verify.
type VerifyRequest struct {
	Code   string `json:"code" example:"123456"`
	Method string `json:"method" example:"email"`
}

// StateResponse reports the session state after a successful step.
type StateResponse struct {
	State authn.State `json:"state" example:"authenticated"`
}

// SessionResponse is returned by GET /auth/session.
type SessionResponse struct {
	// State is derived from the stored values only.
	State authn.State `json:"state" example:"authenticated"`
	// Authenticated is true when the backend accepted the access token just now.
	Authenticated bool           `json:"authenticated"`
	User          *identity.User `json:"user,omitempty"`
}

// ErrorResponse is the error envelope of the web endpoints.
type ErrorResponse struct {
	Error            string            `json:"error" example:"ticket_expired"`
	ErrorDescription string            `json:"error_description,omitempty"`
	Details          map[string]string `json:"details,omitempty"`

	// Restart is where the user starts over after a ticket expired.
	Restart string `json:"restart,omitempty" example:"/login"`
}
