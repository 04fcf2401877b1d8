package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultPendingTokenTTL bounds how long a user has to finish the second
	// factor after the password step.
	DefaultPendingTokenTTL = 10 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType is carried in the "typ" claim so that a token minted for one
// stage of login cannot be replayed at another.
type TokenType string

const (
	// TokenPending is issued after a correct password and only authorizes
	// the one-time-code endpoints.
	TokenPending TokenType = "pending"

	// TokenAccess is a fully authenticated API token.
	TokenAccess TokenType = "access"
)

// Claims are the claims shared by pending and access tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Type is "pending" or "access".
	Type TokenType `json:"typ"`

	// Session ID. For pending tokens this is the login ticket ID.
	SID string `json:"sid,omitempty"`

	// Authentication Methods Reference ["pwd","otp"]
	AMR []string `json:"amr,omitempty"`

	// Username for the authenticated user
	Username string `json:"username,omitempty"`
}

// NewClaims builds minimally-correct claims.
func NewClaims(
	typ TokenType,
	subject, sid string,
	amr []string,
	ttl time.Duration,
	issuer, username string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Type:     typ,
		SID:      sid,
		AMR:      amr,
		Username: username,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiryWithLeeway checks exp and nbf at now, allowing leeway for
// clock skew.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}

// ValidateExpiry is ValidateExpiryWithLeeway with no leeway at the current time.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryWithLeeway(time.Now().UTC(), 0)
}
