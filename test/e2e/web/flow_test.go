//go:build e2e

package web_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestFullLoginFlowWithRedisSessions(t *testing.T) {
	s := setupStack(t)

	// Nothing stored yet, so /api redirects to the login page.
	resp, _ := s.do(t, http.MethodGet, "/api/v1/users/me", "")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Location"), "session_expired=true")

	resp, body := s.do(t, http.MethodPost, "/auth/login",
		`{"identifier":"`+seedUsername+`","password":"`+seedPassword+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.Contains(t, body, `"method":"totp"`)

	keys := s.sessionKeys(t)
	require.Len(t, keys, 2, "pending access and refresh")
	for _, k := range keys {
		require.Contains(t, k, "pending_")
	}

	// A pending ticket is not a session.
	resp, body = s.do(t, http.MethodGet, "/auth/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `"authenticated":false`)

	resp, body = s.do(t, http.MethodPost, "/auth/login/verify", `{"code":"000000x","method":"totp"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	require.Contains(t, body, "code_rejected")

	code, err := totp.GenerateCode(seedSecret, time.Now())
	require.NoError(t, err)
	resp, body = s.do(t, http.MethodPost, "/auth/login/verify", `{"code":"`+code+`","method":"totp"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	keys = s.sessionKeys(t)
	require.Len(t, keys, 2, "finished access and refresh replace the ticket")
	for _, k := range keys {
		require.False(t, strings.Contains(k, "pending_"), k)
	}

	resp, body = s.do(t, http.MethodGet, "/auth/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `"authenticated":true`)
	require.Contains(t, body, `"username":"`+seedUsername+`"`)

	// Content calls go through the proxy with the session's token.
	resp, _ = s.do(t, http.MethodGet, "/api/v1/progress/js", "", "X-Empty-On-Not-Found", "true")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get("X-Empty-Result"))

	resp, body = s.do(t, http.MethodPut, "/api/v1/progress/js", `{"lesson":7}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = s.do(t, http.MethodGet, "/api/v1/progress/js", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `"lesson":7`)

	// Token endpoints are never reachable through the proxy.
	resp, _ = s.do(t, http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":"x"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, s.sessionKeys(t))

	resp, _ = s.do(t, http.MethodGet, "/api/v1/progress/js", "")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	s := setupStack(t)

	resp, body := s.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.Contains(t, body, `"sessions":"ok"`)
	require.Contains(t, body, `"backend":"ok"`)
}
