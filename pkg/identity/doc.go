// Package identity is a typed HTTP client for the remote identity service.
//
// It covers the calls the session core needs: the credential check, second
// factor verification and resend, refresh, and "who am I". Send performs an
// arbitrary request for the authenticated API proxy.
//
// Failures from the service come back as *APIError:
//
//	_, err := c.Login(ctx, "alice", "secret")
//	var apiErr *identity.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
//		// rejected
//	}
package identity
