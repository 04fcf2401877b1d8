package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes used by the identity service.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeInvalidCode        = "invalid_code"
	ErrorCodeTicketExpired      = "ticket_expired"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeServerError        = "server_error"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	// StatusCode is the HTTP status code of the response
	StatusCode int `json:"-"`

	// Code is the machine readable error code (e.g. "invalid_token")
	Code string `json:"error"`

	// Message is the service-provided human readable message
	Message string `json:"error_description"`

	// Details holds per-field messages for validation failures
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("identity: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// parseErrorResponse turns a non-2xx response into an *APIError, falling
// back to the status text when the body is not the JSON envelope.
func parseErrorResponse(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return ParseError(status, body)
}

// ParseError builds an *APIError from a status code and raw body.
func ParseError(status int, body []byte) *APIError {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode: status,
			Code:       errResp.Error,
			Message:    errResp.ErrorDescription,
			Details:    errResp.Details,
		}
	}

	code := ErrorCodeServerError
	if status < 500 {
		code = ErrorCodeInvalidRequest
	}
	return &APIError{
		StatusCode: status,
		Code:       code,
		Message:    fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
	}
}
