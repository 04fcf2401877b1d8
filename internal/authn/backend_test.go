package authn_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samimwebdev/jsninja/internal/authn"
	"github.com/samimwebdev/jsninja/pkg/identity"
)

// backend is a scripted identity service that counts calls per route.
type backend struct {
	mu        sync.Mutex
	calls     map[string]int
	bearers   map[string][]string
	overrides map[string]http.HandlerFunc

	client *identity.Client
}

const (
	routeLogin   = "POST /v1/auth/login"
	routeVerify  = "POST /v1/auth/otp/verify"
	routeResend  = "POST /v1/auth/otp/resend"
	routeRefresh = "POST /v1/auth/refresh"
	routeMe      = "GET /v1/users/me"
	routeCourse  = "GET /v1/progress/{course}"
)

func newBackend(t *testing.T) *backend {
	t.Helper()

	b := &backend{
		calls:     map[string]int{},
		bearers:   map[string][]string{},
		overrides: map[string]http.HandlerFunc{},
	}

	mux := http.NewServeMux()
	b.route(mux, routeLogin, b.login)
	b.route(mux, routeVerify, b.verify)
	b.route(mux, routeResend, b.resend)
	b.route(mux, routeRefresh, b.refresh)
	b.route(mux, routeMe, b.me)
	b.route(mux, routeCourse, b.progress)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	b.client = identity.New(srv.URL, 2*time.Second)
	return b
}

func (b *backend) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[pattern]++
		b.bearers[pattern] = append(b.bearers[pattern], strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		override := b.overrides[pattern]
		b.mu.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		h(w, r)
	})
}

func (b *backend) override(pattern string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[pattern] = h
}

func (b *backend) count(pattern string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[pattern]
}

func (b *backend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

func (b *backend) lastBearer(pattern string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	bs := b.bearers[pattern]
	if len(bs) == 0 {
		return ""
	}
	return bs[len(bs)-1]
}

func (b *backend) core(now func() time.Time) *authn.Core {
	return authn.New(b.client, authn.Options{LoginPath: "/login", Now: now})
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func replyError(w http.ResponseWriter, status int, code string) {
	reply(w, status, identity.ErrorResponse{Error: code, ErrorDescription: code})
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

var users = map[string]identity.User{
	"alice": {ID: "u-alice", Email: "alice@example.com", Username: "alice"},
	"bob":   {ID: "u-bob", Email: "bob@example.com", Username: "bob", SecondFactorEnabled: true},
}

func (b *backend) login(w http.ResponseWriter, r *http.Request) {
	var in identity.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&in)

	u, ok := users[in.Identifier]
	if !ok || in.Password != "secret" {
		replyError(w, http.StatusUnauthorized, identity.ErrorCodeInvalidCredentials)
		return
	}
	reply(w, http.StatusOK, identity.LoginResponse{
		TokenPair: identity.TokenPair{AccessToken: "pending-access", RefreshToken: "pending-refresh"},
		User:      u,
	})
}

func (b *backend) verify(w http.ResponseWriter, r *http.Request) {
	if bearer(r) != "pending-access" {
		replyError(w, http.StatusUnauthorized, identity.ErrorCodeInvalidToken)
		return
	}
	var in identity.VerifyRequest
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.Code != "123456" {
		replyError(w, http.StatusBadRequest, identity.ErrorCodeInvalidCode)
		return
	}
	reply(w, http.StatusOK, identity.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"})
}

func (b *backend) resend(w http.ResponseWriter, r *http.Request) {
	if bearer(r) != "pending-access" {
		replyError(w, http.StatusUnauthorized, identity.ErrorCodeInvalidToken)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *backend) refresh(w http.ResponseWriter, r *http.Request) {
	var in identity.RefreshRequest
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.RefreshToken != "refresh-1" {
		replyError(w, http.StatusUnauthorized, identity.ErrorCodeInvalidToken)
		return
	}
	reply(w, http.StatusOK, identity.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"})
}

func (b *backend) me(w http.ResponseWriter, r *http.Request) {
	switch bearer(r) {
	case "access-1", "access-2":
		reply(w, http.StatusOK, users["alice"])
	default:
		replyError(w, http.StatusUnauthorized, identity.ErrorCodeInvalidToken)
	}
}

// progress only accepts the renewed token, so a request made with access-1
// exercises the refresh path.
func (b *backend) progress(w http.ResponseWriter, r *http.Request) {
	if bearer(r) != "access-2" {
		replyError(w, http.StatusUnauthorized, identity.ErrorCodeInvalidToken)
		return
	}
	if r.PathValue("course") == "missing" {
		replyError(w, http.StatusNotFound, identity.ErrorCodeNotFound)
		return
	}
	reply(w, http.StatusOK, map[string]any{"course": r.PathValue("course"), "lesson": 3})
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
