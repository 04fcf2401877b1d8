package authn_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samimwebdev/jsninja/internal/authn"
	"github.com/samimwebdev/jsninja/internal/session"
	"github.com/samimwebdev/jsninja/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// redisBrowser replays the handle cookie between requests like a browser.
type redisBrowser struct {
	p      *session.RedisProvider
	handle string
}

func (b *redisBrowser) open(t *testing.T) (session.Store, func()) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if b.handle != "" {
		req.AddCookie(&http.Cookie{Name: session.HandleCookie, Value: b.handle})
	}
	rec := httptest.NewRecorder()
	return b.p.Open(rec, req), func() {
		for _, c := range rec.Result().Cookies() {
			if c.Name == session.HandleCookie {
				b.handle = c.Value
			}
		}
	}
}

func newRedisProvider(t *testing.T) *session.RedisProvider {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.NewRedisProvider(client, "", session.CookieConfig{}, 0)
}

func loginThroughRedis(t *testing.T, core *authn.Core, b *redisBrowser) []string {
	t.Helper()

	var seen []string

	store, done := b.open(t)
	_, err := core.Authenticator.Authenticate(t.Context(), store, "alice", "secret")
	require.NoError(t, err)
	done()
	seen = append(seen, b.handle)

	store, done = b.open(t)
	_, err = core.Verifier.Verify(t.Context(), store, "123456", authn.MethodEmail)
	require.NoError(t, err)
	done()
	seen = append(seen, b.handle)

	store, _ = b.open(t)
	require.Equal(t, "access-1", core.Query.CurrentToken(t.Context(), store))
	return seen
}

func TestLoginRotatesRedisHandle(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	core := b.core(nil)
	p := newRedisProvider(t)

	t.Run("handle issued to another login", func(t *testing.T) {
		// A second browser starts its own login and hands its real handle
		// to the victim before the victim signs in.
		other := &redisBrowser{p: p}
		store, done := other.open(t)
		_, err := core.Authenticator.Authenticate(t.Context(), store, "bob", "secret")
		require.NoError(t, err)
		done()
		planted := other.handle
		require.NotEmpty(t, planted)

		victim := &redisBrowser{p: p, handle: planted}
		handles := loginThroughRedis(t, core, victim)
		require.NotContains(t, handles, planted)
		require.NotEqual(t, handles[0], handles[1], "verify moves the session to a new handle")

		stale := &redisBrowser{p: p, handle: planted}
		store, _ = stale.open(t)
		require.Empty(t, core.Query.CurrentToken(t.Context(), store))
		require.Equal(t, authn.StateUnauthenticated, core.Query.State(t.Context(), store))

		stale = &redisBrowser{p: p, handle: handles[0]}
		store, _ = stale.open(t)
		require.Empty(t, core.Query.CurrentToken(t.Context(), store), "pending-step handle is retired")
	})

	t.Run("handle never issued", func(t *testing.T) {
		planted, err := cryptox.GenerateToken(cryptox.TokenSize256)
		require.NoError(t, err)

		victim := &redisBrowser{p: p, handle: planted}
		handles := loginThroughRedis(t, core, victim)
		require.NotContains(t, handles, planted)

		stale := &redisBrowser{p: p, handle: planted}
		store, _ := stale.open(t)
		require.Empty(t, core.Query.CurrentToken(t.Context(), store))
	})
}
