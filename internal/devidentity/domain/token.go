package domain

import "time"

// TokenPair is what the login, verify and refresh endpoints return.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// TokenKind tells pending refresh tokens (issued with a login ticket) from
// session refresh tokens.
type TokenKind string

const (
	KindPending TokenKind = "pending"
	KindSession TokenKind = "session"
)

// RefreshToken models the stored refresh token record in the DB.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	Kind      TokenKind
	SessionID string // ticket ID for pending tokens, session ID otherwise
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
