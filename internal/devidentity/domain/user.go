package domain

import "time"

type User struct {
	ID            string
	Email         string
	Username      string
	PasswordHash  string     // argon2 encoded
	TOTPSecret    *string    // TOTP secret (nullable, base32 encoded)
	TOTPEnabledAt *time.Time // set once the secret was confirmed with a code
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TwoFactorEnabled reports whether logins are confirmed with TOTP. Everyone
// else confirms with an emailed code.
func (u User) TwoFactorEnabled() bool {
	return u.TOTPEnabledAt != nil && u.TOTPSecret != nil && *u.TOTPSecret != ""
}

// SecondFactor is the method a login of u has to be confirmed with.
func (u User) SecondFactor() Method {
	if u.TwoFactorEnabled() {
		return MethodTOTP
	}
	return MethodEmail
}

type TOTPEnrollment struct {
	Secret  string // Base32 encoded secret
	URL     string // otpauth:// URL for QR code generation
	Issuer  string
	Account string
}
