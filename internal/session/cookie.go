package session

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CookieConfig shapes the cookies written by CookieStore and RedisStore.
type CookieConfig struct {
	// Secure marks cookies Secure. Off only for local development over http.
	Secure bool
	// Domain is optional; empty means host-only.
	Domain string
	// Now overrides the clock, for tests.
	Now func() time.Time
}

func (c CookieConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c CookieConfig) cookie(name, value string, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case ttl > 0:
		ck.MaxAge = int(ttl / time.Second)
		ck.Expires = c.now().Add(ttl).UTC()
	case ttl < 0:
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0).UTC()
	}
	return ck
}

// CookieProvider opens CookieStores.
type CookieProvider struct {
	Config CookieConfig
}

// Open implements Provider.
func (p CookieProvider) Open(w http.ResponseWriter, r *http.Request) Store {
	return NewCookieStore(w, r, p.Config)
}

// CookieStore keeps every value in its own HttpOnly cookie. It lives for one
// request: reads see the request cookies overlaid with writes already made
// during the request.
//
// Values are stored as "<unix expiry>.<value>" with expiry 0 meaning none,
// so a browser that ignores Max-Age still cannot stretch a value's lifetime.
type CookieStore struct {
	w   http.ResponseWriter
	r   *http.Request
	cfg CookieConfig

	written map[Key]*string // nil value = deleted
}

// NewCookieStore binds a store to one request/response pair.
func NewCookieStore(w http.ResponseWriter, r *http.Request, cfg CookieConfig) *CookieStore {
	return &CookieStore{w: w, r: r, cfg: cfg, written: make(map[Key]*string)}
}

// Get implements Store.
func (s *CookieStore) Get(_ context.Context, key Key) (string, error) {
	raw, ok := s.written[key]
	if !ok {
		c, err := s.r.Cookie(string(key))
		if err != nil {
			return "", ErrNotFound
		}
		raw = &c.Value
	}
	if raw == nil {
		return "", ErrNotFound
	}

	v, ok := decodeStamped(*raw, s.cfg.now())
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Store.
func (s *CookieStore) Set(_ context.Context, key Key, value string, opts Options) error {
	var exp int64
	if opts.TTL > 0 {
		exp = s.cfg.now().Add(opts.TTL).Unix()
	}
	raw := strconv.FormatInt(exp, 10) + "." + value

	s.written[key] = &raw
	http.SetCookie(s.w, s.cfg.cookie(string(key), raw, opts.TTL))
	return nil
}

// Delete implements Store.
func (s *CookieStore) Delete(_ context.Context, key Key) error {
	s.written[key] = nil
	http.SetCookie(s.w, s.cfg.cookie(string(key), "", -1))
	return nil
}

func decodeStamped(raw string, now time.Time) (string, bool) {
	stamp, value, ok := strings.Cut(raw, ".")
	if !ok || value == "" {
		return "", false
	}
	exp, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil || exp < 0 {
		return "", false
	}
	if exp != 0 && now.Unix() >= exp {
		return "", false
	}
	return value, true
}
