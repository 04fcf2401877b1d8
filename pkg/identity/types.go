package identity

// User is the identity resolved from an access token.
type User struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	Username            string `json:"username"`
	SecondFactorEnabled bool   `json:"two_factor_enabled"`
}

// TokenPair is an access/refresh token pair. RefreshToken may be empty in a
// refresh response when the service does not rotate.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResponse carries the not-yet-usable pair issued after a correct
// password together with the account it belongs to.
type LoginResponse struct {
	TokenPair
	User User `json:"user"`
}

// VerifyRequest is the body of POST /v1/auth/otp/verify.
type VerifyRequest struct {
	Code   string `json:"code"`
	Method string `json:"method"`
}

// RefreshRequest is the body of POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ErrorResponse is the error envelope returned by the service.
type ErrorResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	Details          map[string]string `json:"details,omitempty"`
}

// HealthResponse is returned by /livez and /readyz on both services.
type HealthResponse struct {
	// Status is "ok" or "degraded".
	Status  string `json:"status"`
	Uptime  string `json:"uptime,omitempty"`
	Version string `json:"version,omitempty"`

	// Checks maps a dependency name to "ok" or an error message. Only set by /readyz.
	Checks map[string]string `json:"checks,omitempty"`
}
