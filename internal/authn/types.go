package authn

import (
	"fmt"
	"time"
)

// Method is the second factor channel for a login.
type Method string

const (
	MethodTOTP  Method = "totp"
	MethodEmail Method = "email"
)

// ParseMethod validates s.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodTOTP, MethodEmail:
		return m, nil
	}
	return "", fmt.Errorf("authn: unknown second factor method %q", s)
}

// Credentials is a finished session pair.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// PendingLogin describes the ticket issued after a correct password.
type PendingLogin struct {
	UserID    string
	Method    Method
	ExpiresAt time.Time
}

// State is the local classification of a session, derived from storage only.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StatePending         State = "pending"
	StateAuthenticated   State = "authenticated"
)

// Options configure the components. Zero values take the defaults.
type Options struct {
	// SessionTTL is the lifetime of the finished access and refresh values.
	SessionTTL time.Duration
	// PendingTTL is the lifetime of the pending ticket.
	PendingTTL time.Duration
	// RefreshGrace is how long the result of a renewal is reused for
	// requests still presenting the rotated-out refresh token.
	RefreshGrace time.Duration
	// LoginPath is where AuthRequiredError sends the browser.
	LoginPath string
	// Now overrides the clock.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.SessionTTL <= 0 {
		o.SessionTTL = 7 * 24 * time.Hour
	}
	if o.PendingTTL <= 0 {
		o.PendingTTL = 300 * time.Second
	}
	if o.RefreshGrace <= 0 {
		o.RefreshGrace = 30 * time.Second
	}
	if o.LoginPath == "" {
		o.LoginPath = "/login"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
