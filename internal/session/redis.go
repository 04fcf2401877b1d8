package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samimwebdev/jsninja/pkg/cryptox"
)

// HandleCookie carries the opaque server-side session handle.
const HandleCookie = "websession"

// RedisProvider keeps session values in Redis. The browser only holds a
// random 256-bit handle in the HandleCookie cookie.
type RedisProvider struct {
	client    *redis.Client
	prefix    string
	cookie    CookieConfig
	handleTTL time.Duration
}

// NewRedisProvider creates a provider storing keys as
// "<prefix>:<handle>:<key>". The handle cookie lives for handleTTL.
func NewRedisProvider(client *redis.Client, prefix string, cookie CookieConfig, handleTTL time.Duration) *RedisProvider {
	if prefix == "" {
		prefix = "websession"
	}
	if handleTTL <= 0 {
		handleTTL = SessionTTL
	}
	return &RedisProvider{client: client, prefix: prefix, cookie: cookie, handleTTL: handleTTL}
}

// Ping checks the Redis connection.
func (p *RedisProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Open implements Provider. A presented handle is only a candidate: it is
// adopted on first use if Redis holds data for it, otherwise the store acts
// as if no cookie was sent.
func (p *RedisProvider) Open(w http.ResponseWriter, r *http.Request) Store {
	s := &RedisStore{p: p, w: w}
	if c, err := r.Cookie(HandleCookie); err == nil && validHandle(c.Value) {
		s.presented = c.Value
	}
	return s
}

func (p *RedisProvider) keys(handle string) []string {
	out := make([]string, len(AllKeys))
	for i, k := range AllKeys {
		out[i] = p.key(handle, k)
	}
	return out
}

func (p *RedisProvider) key(handle string, k Key) string {
	return fmt.Sprintf("%s:%s:%s", p.prefix, handle, k)
}

func newHandle() (string, error) {
	h, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("session: mint handle: %w", err)
	}
	return h, nil
}

func validHandle(v string) bool {
	b, err := base64.RawURLEncoding.DecodeString(v)
	return err == nil && len(b) == cryptox.TokenSize256
}

// RedisStore is the request-scoped view of one server-side session.
type RedisStore struct {
	p         *RedisProvider
	w         http.ResponseWriter
	handle    string
	presented string
	issued    bool
}

// Handle returns the session handle. It is empty until the presented cookie
// has been matched to server-side data or the first write mints one.
func (s *RedisStore) Handle() string { return s.handle }

// resolve adopts the presented handle if Redis knows it.
func (s *RedisStore) resolve(ctx context.Context) error {
	if s.presented == "" {
		return nil
	}
	n, err := s.p.client.Exists(ctx, s.p.keys(s.presented)...).Result()
	if err != nil {
		return fmt.Errorf("session: redis exists: %w", err)
	}
	if n > 0 {
		s.handle = s.presented
	}
	s.presented = ""
	return nil
}

func (s *RedisStore) issue(handle string) {
	s.handle = handle
	s.issued = true
	http.SetCookie(s.w, s.p.cookie.cookie(HandleCookie, handle, s.p.handleTTL))
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key Key) (string, error) {
	if err := s.resolve(ctx); err != nil {
		return "", err
	}
	if s.handle == "" {
		return "", ErrNotFound
	}

	v, err := s.p.client.Get(ctx, s.p.key(s.handle, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("session: redis get: %w", err)
	}
	return v, nil
}

// Set implements Store. The first write of a request without a known handle
// mints one and issues the handle cookie.
func (s *RedisStore) Set(ctx context.Context, key Key, value string, opts Options) error {
	if err := s.resolve(ctx); err != nil {
		return err
	}
	switch {
	case s.handle == "":
		h, err := newHandle()
		if err != nil {
			return err
		}
		s.issue(h)
	case !s.issued:
		s.issue(s.handle)
	}

	if err := s.p.client.Set(ctx, s.p.key(s.handle, key), value, opts.TTL).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.resolve(ctx); err != nil {
		return err
	}
	if s.handle == "" {
		return nil
	}
	if err := s.p.client.Del(ctx, s.p.key(s.handle, key)).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

// Rotate implements Rotator. Surviving values move to a fresh handle with
// their remaining lifetime, the old handle is emptied and the cookie is
// reissued.
func (s *RedisStore) Rotate(ctx context.Context) error {
	if err := s.resolve(ctx); err != nil {
		return err
	}
	next, err := newHandle()
	if err != nil {
		return err
	}

	if old := s.handle; old != "" {
		type entry struct {
			val *redis.StringCmd
			ttl *redis.DurationCmd
		}
		entries := make(map[Key]entry, len(AllKeys))
		// Per-command errors are checked below; a missing key reports redis.Nil.
		_, _ = s.p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, k := range AllKeys {
				entries[k] = entry{val: pipe.Get(ctx, s.p.key(old, k)), ttl: pipe.PTTL(ctx, s.p.key(old, k))}
			}
			return nil
		})
		for k, e := range entries {
			if err := e.val.Err(); err != nil && !errors.Is(err, redis.Nil) {
				return fmt.Errorf("session: redis read %s for rotate: %w", k, err)
			}
		}

		_, err := s.p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for k, e := range entries {
				if e.val.Err() != nil {
					continue
				}
				// PTTL reports -1 for no expiry and -2 once the key is gone.
				ttl := e.ttl.Val()
				switch {
				case ttl == -1:
					ttl = 0
				case ttl <= 0:
					continue
				}
				pipe.Set(ctx, s.p.key(next, k), e.val.Val(), ttl)
			}
			pipe.Del(ctx, s.p.keys(old)...)
			return nil
		})
		if err != nil {
			return fmt.Errorf("session: redis rotate: %w", err)
		}
	}

	s.issue(next)
	return nil
}
