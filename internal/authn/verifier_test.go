package authn_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/samimwebdev/jsninja/internal/authn"
	"github.com/samimwebdev/jsninja/internal/session"
	"github.com/stretchr/testify/require"
)

// loggedIn runs the password step for alice.
func loggedIn(t *testing.T, core *authn.Core, store session.Store) {
	t.Helper()
	_, err := core.Authenticator.Authenticate(t.Context(), store, "alice", "secret")
	require.NoError(t, err)
}

func TestVerifyIssuesSession(t *testing.T) {
	t.Parallel()

	clock := newClock()
	b := newBackend(t)
	core := b.core(clock.Now)
	store := session.NewMemoryStore(clock.Now)
	loggedIn(t, core, store)

	clock.Advance(299 * time.Second)

	creds, err := core.Verifier.Verify(t.Context(), store, " 123456 ", authn.MethodEmail)
	require.NoError(t, err)
	require.Equal(t, "access-1", creds.AccessToken)
	require.Equal(t, "refresh-1", creds.RefreshToken)
	require.Equal(t, "pending-access", b.lastBearer(routeVerify))

	for _, k := range []session.Key{session.KeyPendingAccess, session.KeyPendingRefresh} {
		_, err := store.Get(t.Context(), k)
		require.ErrorIs(t, err, session.ErrNotFound, "key %s", k)
	}

	exp, ok := store.ExpiresAt(session.KeyAccess)
	require.True(t, ok)
	require.Equal(t, clock.Now().Add(7*24*time.Hour), exp)
	exp, ok = store.ExpiresAt(session.KeyRefresh)
	require.True(t, ok)
	require.Equal(t, clock.Now().Add(7*24*time.Hour), exp)

	require.Equal(t, authn.StateAuthenticated, core.Query.State(t.Context(), store))
	require.True(t, core.Query.IsAuthenticated(t.Context(), store))
}

func TestVerifyAfterTicketLifetime(t *testing.T) {
	t.Parallel()

	clock := newClock()
	b := newBackend(t)
	core := b.core(clock.Now)
	store := session.NewMemoryStore(clock.Now)
	loggedIn(t, core, store)

	clock.Advance(301 * time.Second)

	_, err := core.Verifier.Verify(t.Context(), store, "123456", authn.MethodEmail)
	require.ErrorIs(t, err, authn.ErrTicketExpired)
	require.Zero(t, b.count(routeVerify), "an expired ticket never reaches the service")

	_, err = store.Get(t.Context(), session.KeyAccess)
	require.ErrorIs(t, err, session.ErrNotFound)
	require.Equal(t, authn.StateUnauthenticated, core.Query.State(t.Context(), store))
}

func TestVerifyWithoutTicket(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	_, err := b.core(nil).Verifier.Verify(t.Context(), session.NewMemoryStore(nil), "123456", authn.MethodTOTP)
	require.ErrorIs(t, err, authn.ErrTicketExpired)
	require.Zero(t, b.total())
}

func TestVerifyWrongCodeKeepsTicket(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	core := b.core(nil)
	store := session.NewMemoryStore(nil)
	loggedIn(t, core, store)

	_, err := core.Verifier.Verify(t.Context(), store, "000000", authn.MethodEmail)
	require.ErrorIs(t, err, authn.ErrCodeRejected)

	v, err := store.Get(t.Context(), session.KeyPendingAccess)
	require.NoError(t, err)
	require.Equal(t, "pending-access", v)

	_, err = core.Verifier.Verify(t.Context(), store, "123456", authn.MethodEmail)
	require.NoError(t, err)
}

func TestVerifyRemoteExpiryDropsTicket(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	b.override(routeVerify, func(w http.ResponseWriter, r *http.Request) {
		replyError(w, http.StatusUnauthorized, "ticket_expired")
	})
	core := b.core(nil)
	store := session.NewMemoryStore(nil)
	loggedIn(t, core, store)

	_, err := core.Verifier.Verify(t.Context(), store, "123456", authn.MethodEmail)
	require.ErrorIs(t, err, authn.ErrTicketExpired)
	require.Zero(t, store.Len())
}

func TestVerifyValidation(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	_, err := b.core(nil).Verifier.Verify(t.Context(), session.NewMemoryStore(nil), "", authn.Method("sms"))

	var verr *authn.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "code")
	require.Contains(t, verr.Fields, "method")
	require.Zero(t, b.total())
}

func TestResendReusesTicket(t *testing.T) {
	t.Parallel()

	clock := newClock()
	b := newBackend(t)
	core := b.core(clock.Now)
	store := session.NewMemoryStore(clock.Now)
	loggedIn(t, core, store)

	before, ok := store.ExpiresAt(session.KeyPendingAccess)
	require.True(t, ok)

	clock.Advance(100 * time.Second)
	require.NoError(t, core.Verifier.Resend(t.Context(), store))
	require.Equal(t, 1, b.count(routeResend))
	require.Equal(t, "pending-access", b.lastBearer(routeResend))

	after, ok := store.ExpiresAt(session.KeyPendingAccess)
	require.True(t, ok)
	require.Equal(t, before, after, "resend does not extend the ticket")
	require.Equal(t, 1, b.count(routeLogin), "no second ticket is requested")

	clock.Advance(201 * time.Second)
	require.ErrorIs(t, core.Verifier.Resend(t.Context(), store), authn.ErrTicketExpired)
	require.Equal(t, 1, b.count(routeResend))
}

func TestResendRemoteExpiry(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	b.override(routeResend, func(w http.ResponseWriter, r *http.Request) {
		replyError(w, http.StatusUnauthorized, "invalid_token")
	})
	core := b.core(nil)
	store := session.NewMemoryStore(nil)
	loggedIn(t, core, store)

	require.ErrorIs(t, core.Verifier.Resend(t.Context(), store), authn.ErrTicketExpired)
	require.Zero(t, store.Len())
}
