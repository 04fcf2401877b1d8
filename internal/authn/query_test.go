package authn_test

import (
	"testing"

	"github.com/samimwebdev/jsninja/internal/authn"
	"github.com/samimwebdev/jsninja/internal/session"
	"github.com/stretchr/testify/require"
)

func TestQueryWithoutSession(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	q := b.core(nil).Query
	store := session.NewMemoryStore(nil)

	require.Empty(t, q.CurrentToken(t.Context(), store))
	require.False(t, q.IsAuthenticated(t.Context(), store))
	require.Nil(t, q.CurrentUser(t.Context(), store))
	require.Equal(t, authn.StateUnauthenticated, q.State(t.Context(), store))
	require.Zero(t, b.total())
}

func TestQueryChecksTokenRemotely(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	q := b.core(nil).Query

	valid := authenticatedStore(t, "access-1", "refresh-1")
	require.Equal(t, "access-1", q.CurrentToken(t.Context(), valid))
	require.True(t, q.IsAuthenticated(t.Context(), valid))

	u := q.CurrentUser(t.Context(), valid)
	require.NotNil(t, u)
	require.Equal(t, "u-alice", u.ID)
	require.Equal(t, "alice@example.com", u.Email)

	stale := authenticatedStore(t, "revoked", "refresh-1")
	require.False(t, q.IsAuthenticated(t.Context(), stale), "a present token is not trusted blindly")
	require.Nil(t, q.CurrentUser(t.Context(), stale))
	require.Equal(t, authn.StateAuthenticated, q.State(t.Context(), stale))

	require.Zero(t, b.count(routeRefresh), "queries never renew")
	v, _ := stale.Get(t.Context(), session.KeyAccess)
	require.Equal(t, "revoked", v, "queries never write")
}

func TestLogout(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	core := b.core(nil)
	store := session.NewMemoryStore(nil)
	for _, k := range session.AllKeys {
		require.NoError(t, store.Set(t.Context(), k, "v", session.Options{}))
	}

	require.NoError(t, authn.Logout(t.Context(), store))
	require.Zero(t, store.Len())

	require.False(t, core.Query.IsAuthenticated(t.Context(), store))
	require.Zero(t, b.total(), "logout and the check after it stay local")
}

func TestLoginRedirect(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/login?session_expired=true", authn.LoginRedirect("/login"))
	require.Equal(t, "/auth/login?next=%2Fcourses&session_expired=true", authn.LoginRedirect("/auth/login?next=/courses"))
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	m, err := authn.ParseMethod("totp")
	require.NoError(t, err)
	require.Equal(t, authn.MethodTOTP, m)

	_, err = authn.ParseMethod("sms")
	require.Error(t, err)
}
