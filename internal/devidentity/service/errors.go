package service

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown identifier and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTicketExpired means the login ticket is unknown, used, expired or out of attempts.
	ErrTicketExpired = errors.New("login ticket expired")

	ErrInvalidCode     = errors.New("invalid one-time code")
	ErrMethodMismatch  = errors.New("second factor method does not match the login")
	ErrInvalidRefresh  = errors.New("invalid refresh token")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrProgressMissing = errors.New("no progress recorded")
	ErrInvalidProgress = errors.New("progress must be a JSON document")

	ErrTOTPAlreadyEnabled = errors.New("TOTP already enabled for this user")
	ErrTOTPNotEnrolled    = errors.New("TOTP not enrolled, enroll first")
)
