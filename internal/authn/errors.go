package authn

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is the single answer for a wrong identifier or
	// password. It never says which one was wrong.
	ErrInvalidCredentials = errors.New("authn: invalid credentials")

	// ErrTicketExpired means the pending login is gone and the user must
	// start over from the password step.
	ErrTicketExpired = errors.New("authn: login ticket expired")

	// ErrCodeRejected means the one-time code was wrong or stale. The ticket
	// is kept so the user may retry.
	ErrCodeRejected = errors.New("authn: one-time code rejected")

	// ErrAuthRequired matches every *AuthRequiredError.
	ErrAuthRequired = errors.New("authn: authentication required")
)

// ValidationError reports malformed input per field, before any remote call
// or as relayed from the identity service.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return "authn: invalid input: " + strings.Join(names, ", ")
}

// AuthRequiredError is the terminate-and-redirect signal: the session cannot
// be renewed and the caller's HTTP layer should send the browser to Location.
type AuthRequiredError struct {
	Location string
	Cause    error
}

func (e *AuthRequiredError) Error() string {
	if e.Cause != nil {
		return ErrAuthRequired.Error() + ": " + e.Cause.Error()
	}
	return ErrAuthRequired.Error()
}

func (e *AuthRequiredError) Is(target error) bool { return target == ErrAuthRequired }

func (e *AuthRequiredError) Unwrap() error { return e.Cause }
