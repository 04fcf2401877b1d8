package authn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/samimwebdev/jsninja/internal/session"
	"github.com/samimwebdev/jsninja/pkg/identity"
	"github.com/samimwebdev/jsninja/pkg/slogx"
	"golang.org/x/sync/singleflight"
)

// Request is one call to the backend.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header

	// NotFoundAsEmpty turns a 404 into an empty Response instead of an error.
	NotFoundAsEmpty bool
	// ErrorsAsData returns non-2xx answers in Response.Err with a nil error.
	ErrorsAsData bool
}

// Response is the backend answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Empty is set for a 404 on a NotFoundAsEmpty request.
	Empty bool
	// Err is set for a non-2xx answer on an ErrorsAsData request.
	Err *identity.APIError
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if r.Empty || len(r.Body) == 0 {
		return errors.New("authn: empty response")
	}
	return json.Unmarshal(r.Body, v)
}

// Client is the chokepoint for calls to the backend. It attaches the session
// access token and renews it once on a 401.
type Client struct {
	api   Identity
	opts  Options
	renew singleflight.Group

	mu     sync.Mutex
	recent map[string]renewal
}

// renewal is a finished refresh, keyed by the refresh token it consumed.
type renewal struct {
	pair *identity.TokenPair
	at   time.Time
}

// NewClient creates a Client.
func NewClient(api Identity, opts Options) *Client {
	return &Client{api: api, opts: opts.withDefaults(), recent: map[string]renewal{}}
}

// Do sends req. The steps are fixed: send, and on a 401 refresh once and
// replay once. A 401 that cannot be recovered ends in *AuthRequiredError.
// The session values are left in place when renewal fails.
func (c *Client) Do(ctx context.Context, store session.Store, req *Request) (*Response, error) {
	log := slogx.FromContext(ctx)

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	access, err := session.Lookup(ctx, store, session.KeyAccess)
	if err != nil {
		return nil, fmt.Errorf("authn: read session: %w", err)
	}

	raw, err := c.api.Send(ctx, method, req.Path, req.Body, req.Header, access)
	if err != nil {
		return nil, err
	}
	if raw.StatusCode != http.StatusUnauthorized {
		return c.finish(req, raw)
	}

	refresh, err := session.Lookup(ctx, store, session.KeyRefresh)
	if err != nil {
		return nil, fmt.Errorf("authn: read session: %w", err)
	}
	if refresh == "" {
		log.Info("unauthorized without refresh token", "path", req.Path)
		return nil, c.authRequired(nil)
	}

	access, err = c.refresh(ctx, store, refresh)
	if err != nil {
		log.Warn("session renewal failed", "path", req.Path, "err", err)
		return nil, c.authRequired(err)
	}

	raw, err = c.api.Send(ctx, method, req.Path, req.Body, req.Header, access)
	if err != nil {
		return nil, err
	}
	if raw.StatusCode == http.StatusUnauthorized {
		log.Warn("unauthorized after renewal", "path", req.Path)
		return nil, c.authRequired(nil)
	}

	return c.finish(req, raw)
}

// refresh exchanges the refresh token and writes the new access token (and
// the rotated refresh token, if any). Concurrent renewals presenting the same
// refresh token share one remote call, and later ones within RefreshGrace
// reuse its result.
func (c *Client) refresh(ctx context.Context, store session.Store, refreshToken string) (string, error) {
	pair, shared := c.recentRenewal(refreshToken)
	if pair == nil {
		v, err, s := c.renew.Do(refreshToken, func() (any, error) {
			p, err := c.api.Refresh(context.WithoutCancel(ctx), refreshToken)
			if err == nil {
				c.remember(refreshToken, p)
			}
			return p, err
		})
		if err != nil {
			return "", err
		}
		pair, shared = v.(*identity.TokenPair), s
	}

	ttl := session.Options{TTL: c.opts.SessionTTL}
	if err := store.Set(ctx, session.KeyAccess, pair.AccessToken, ttl); err != nil {
		return "", fmt.Errorf("authn: store session: %w", err)
	}
	if pair.RefreshToken != "" {
		if err := store.Set(ctx, session.KeyRefresh, pair.RefreshToken, ttl); err != nil {
			return "", fmt.Errorf("authn: store session: %w", err)
		}
	}

	slogx.FromContext(ctx).Info("session renewed", "shared", shared)
	return pair.AccessToken, nil
}

// recentRenewal returns the pair a refresh token was exchanged for within
// the grace window. Requests that still carry a rotated-out token reuse it
// instead of presenting that token again.
func (c *Client) recentRenewal(refreshToken string) (*identity.TokenPair, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.recent[refreshToken]
	if !ok || c.opts.Now().Sub(r.at) > c.opts.RefreshGrace {
		return nil, false
	}
	return r.pair, true
}

func (c *Client) remember(refreshToken string, pair *identity.TokenPair) {
	if pair.RefreshToken == "" || pair.RefreshToken == refreshToken {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Now()
	for k, r := range c.recent {
		if now.Sub(r.at) > c.opts.RefreshGrace {
			delete(c.recent, k)
		}
	}
	c.recent[refreshToken] = renewal{pair: pair, at: now}
}

func (c *Client) finish(req *Request, raw *identity.Raw) (*Response, error) {
	resp := &Response{StatusCode: raw.StatusCode, Header: raw.Header, Body: raw.Body}

	switch {
	case raw.StatusCode >= 200 && raw.StatusCode < 300:
		return resp, nil
	case raw.StatusCode == http.StatusNotFound && req.NotFoundAsEmpty:
		resp.Empty = true
		resp.Body = nil
		return resp, nil
	}

	apiErr := identity.ParseError(raw.StatusCode, raw.Body)
	if req.ErrorsAsData {
		resp.Err = apiErr
		return resp, nil
	}
	return nil, apiErr
}

func (c *Client) authRequired(cause error) *AuthRequiredError {
	return &AuthRequiredError{Location: LoginRedirect(c.opts.LoginPath), Cause: cause}
}

// LoginRedirect appends the session_expired flag to loginPath.
func LoginRedirect(loginPath string) string {
	u, err := url.Parse(loginPath)
	if err != nil {
		return loginPath + "?session_expired=true"
	}
	q := u.Query()
	q.Set("session_expired", "true")
	u.RawQuery = q.Encode()
	return u.String()
}
