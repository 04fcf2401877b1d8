package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samimwebdev/jsninja/pkg/httpx"
	"github.com/samimwebdev/jsninja/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		header string
		want   string
		ok     bool
	}{
		"missing":   {"", "", false},
		"basic":     {"Basic abc", "", false},
		"empty":     {"Bearer   ", "", false},
		"present":   {"Bearer abc.def", "abc.def", true},
		"lowercase": {"bearer abc", "", false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			got, ok := httpx.BearerToken(req)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpx.WriteError(rec, http.StatusBadRequest, "invalid_request", "bad")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid_request", body.Error)
	require.Equal(t, "bad", body.ErrorDescription)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	var dst struct {
		Code string `json:"code"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"1","extra":true}`))
	require.Error(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"123456"}`))
	require.NoError(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &dst))
	require.Equal(t, "123456", dst.Code)
}

func TestAuthnMiddleware(t *testing.T) {
	t.Parallel()

	h, err := jwtx.NewHS256([]byte(strings.Repeat("s", 32)), "devidentity")
	require.NoError(t, err)

	now := time.Now().UTC()
	pending, err := h.Sign(jwtx.NewClaims(jwtx.TokenPending, "user-1", "ticket-1", []string{"pwd"}, time.Minute, "devidentity", "", now))
	require.NoError(t, err)
	access, err := h.Sign(jwtx.NewClaims(jwtx.TokenAccess, "user-1", "sess-1", []string{"pwd"}, time.Minute, "devidentity", "", now))
	require.NoError(t, err)

	var gotUser, gotSID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = httpx.UserIDFromContext(r.Context())
		claims, _ := httpx.ClaimsFromContext(r.Context())
		gotSID = claims.SID
		w.WriteHeader(http.StatusNoContent)
	})
	protected := httpx.AuthnMiddleware(h, jwtx.TokenPending)(inner)

	call := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing token", func(t *testing.T) {
		rec := call("")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("wrong type", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, call(access).Code)
	})

	t.Run("garbage", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, call("nope").Code)
	})

	t.Run("pending accepted", func(t *testing.T) {
		rec := call(pending)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "user-1", gotUser)
		require.Equal(t, "ticket-1", gotSID)
	})
}
