package service_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/samimwebdev/jsninja/internal/devidentity/domain"
	"github.com/samimwebdev/jsninja/internal/devidentity/service"
	"github.com/samimwebdev/jsninja/internal/devidentity/store"
	"github.com/samimwebdev/jsninja/internal/devidentity/store/sqlite"
	"github.com/samimwebdev/jsninja/pkg/cryptox"
	"github.com/samimwebdev/jsninja/pkg/jwtx"
	"github.com/samimwebdev/jsninja/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const totpSecret = "JBSWY3DPEHPK3PXP"

type captureMailer struct {
	mu    sync.Mutex
	codes []string
}

func (m *captureMailer) SendLoginCode(_ context.Context, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return nil
}

func (m *captureMailer) last(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.codes, "no code was mailed")
	return m.codes[len(m.codes)-1]
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.codes)
}

type fixture struct {
	store    store.Store
	signer   *jwtx.HS256
	mailer   *captureMailer
	auth     *service.AuthService
	users    *service.UserService
	progress *service.ProgressService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "devidentity.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewHS256([]byte(strings.Repeat("k", 32)), "devidentity")
	require.NoError(t, err)

	hasher := cryptox.NewPasswordHasher("test-pepper")
	mailer := &captureMailer{}

	return &fixture{
		store:  st,
		signer: signer,
		mailer: mailer,
		auth: &service.AuthService{
			Store:      st,
			Signer:     signer,
			Hasher:     hasher,
			Mailer:     mailer,
			Issuer:     "devidentity",
			AccessTTL:  jwtx.DefaultAccessTokenTTL,
			RefreshTTL: jwtx.DefaultRefreshTokenTTL,
			TicketTTL:  5 * time.Minute,
		},
		users:    &service.UserService{Store: st, Hasher: hasher, Issuer: "jsninja"},
		progress: &service.ProgressService{Store: st},
	}
}

func (f *fixture) createUser(t *testing.T, username string) domain.User {
	t.Helper()
	u, err := f.users.CreateUser(t.Context(), username+"@example.com", username, "secret")
	require.NoError(t, err)
	return u
}

func (f *fixture) createTOTPUser(t *testing.T, username string) domain.User {
	t.Helper()
	u := f.createUser(t, username)
	require.NoError(t, f.users.SetTOTPSecret(t.Context(), u.ID, totpSecret))
	return u
}

// login runs the password step and returns the pending claims.
func (f *fixture) login(t *testing.T, identifier string) (service.LoginResult, jwtx.Claims) {
	t.Helper()
	res, err := f.auth.Login(t.Context(), identifier, "secret")
	require.NoError(t, err)

	claims, err := f.signer.Verify(res.Pair.AccessToken)
	require.NoError(t, err)
	return res, claims
}

func TestLoginEmailFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	alice := f.createUser(t, "alice")
	res, claims := f.login(t, "alice@example.com")

	require.Equal(t, alice.ID, res.User.ID)
	require.NotEmpty(t, res.Pair.RefreshToken)
	require.Equal(t, jwtx.TokenPending, claims.Type)
	require.Equal(t, alice.ID, claims.Subject)
	require.NotEmpty(t, claims.SID)

	code := f.mailer.last(t)
	require.Len(t, code, 6)

	t.Run("wrong code", func(t *testing.T) {
		_, err := f.auth.VerifyCode(ctx, alice.ID, claims.SID, "not-a-code", domain.MethodEmail)
		require.ErrorIs(t, err, service.ErrInvalidCode)
	})

	t.Run("correct code opens a session", func(t *testing.T) {
		pair, err := f.auth.VerifyCode(ctx, alice.ID, claims.SID, code, domain.MethodEmail)
		require.NoError(t, err)
		require.NotEmpty(t, pair.RefreshToken)

		access, err := f.signer.Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, jwtx.TokenAccess, access.Type)
		require.NotEqual(t, claims.SID, access.SID)
		require.Contains(t, access.AMR, "email")
	})

	t.Run("ticket cannot be reused", func(t *testing.T) {
		_, err := f.auth.VerifyCode(ctx, alice.ID, claims.SID, code, domain.MethodEmail)
		require.ErrorIs(t, err, service.ErrTicketExpired)
	})

	t.Run("pending refresh token is revoked", func(t *testing.T) {
		_, err := f.auth.Refresh(ctx, res.Pair.RefreshToken)
		require.ErrorIs(t, err, service.ErrInvalidRefresh)
	})
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.createUser(t, "alice")

	_, err := f.auth.Login(t.Context(), "nobody", "secret")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.auth.Login(t.Context(), "alice", "wrong")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	require.Zero(t, f.mailer.count())
}

func TestVerifyTOTP(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	bob := f.createTOTPUser(t, "bob")
	res, claims := f.login(t, "bob")
	require.True(t, res.User.TwoFactorEnabled())
	require.Zero(t, f.mailer.count(), "TOTP logins send no mail")

	_, err := f.auth.VerifyCode(ctx, bob.ID, claims.SID, "123456", domain.MethodEmail)
	require.ErrorIs(t, err, service.ErrMethodMismatch)

	code, err := totp.GenerateCode(totpSecret, time.Now())
	require.NoError(t, err)

	pair, err := f.auth.VerifyCode(ctx, bob.ID, claims.SID, code, domain.MethodTOTP)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
}

func TestVerifyWrongUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.createUser(t, "alice")
	mallory := f.createUser(t, "mallory")
	_, claims := f.login(t, "alice")

	_, err := f.auth.VerifyCode(t.Context(), mallory.ID, claims.SID, f.mailer.last(t), domain.MethodEmail)
	require.ErrorIs(t, err, service.ErrTicketExpired)
}

func TestVerifyAttemptsExhausted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	alice := f.createUser(t, "alice")
	_, claims := f.login(t, "alice")
	code := f.mailer.last(t)

	for range domain.MaxTicketAttempts {
		_, err := f.auth.VerifyCode(ctx, alice.ID, claims.SID, "not-a-code", domain.MethodEmail)
		require.ErrorIs(t, err, service.ErrInvalidCode)
	}

	_, err := f.auth.VerifyCode(ctx, alice.ID, claims.SID, code, domain.MethodEmail)
	require.ErrorIs(t, err, service.ErrTicketExpired)
}

func TestTicketExpiry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	now := time.Now()
	f.auth.Now = func() time.Time { return now }

	alice := f.createUser(t, "alice")
	res, err := f.auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	claims, err := f.signer.WithClock(func() time.Time { return now }).Verify(res.Pair.AccessToken)
	require.NoError(t, err)
	code := f.mailer.last(t)

	now = now.Add(f.auth.TicketTTL + time.Second)

	_, err = f.auth.VerifyCode(ctx, alice.ID, claims.SID, code, domain.MethodEmail)
	require.ErrorIs(t, err, service.ErrTicketExpired)

	require.ErrorIs(t, f.auth.ResendCode(ctx, alice.ID, claims.SID), service.ErrTicketExpired)
}

func TestResendCode(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	alice := f.createUser(t, "alice")
	_, claims := f.login(t, "alice")
	first := f.mailer.last(t)

	before, err := f.store.Tickets().GetTicket(ctx, claims.SID)
	require.NoError(t, err)

	require.NoError(t, f.auth.ResendCode(ctx, alice.ID, claims.SID))
	require.Equal(t, 2, f.mailer.count())
	second := f.mailer.last(t)

	after, err := f.store.Tickets().GetTicket(ctx, claims.SID)
	require.NoError(t, err)
	require.Equal(t, before.ExpiresAt, after.ExpiresAt, "resend keeps the ticket deadline")

	if first != second {
		_, err = f.auth.VerifyCode(ctx, alice.ID, claims.SID, first, domain.MethodEmail)
		require.ErrorIs(t, err, service.ErrInvalidCode)
	}

	_, err = f.auth.VerifyCode(ctx, alice.ID, claims.SID, second, domain.MethodEmail)
	require.NoError(t, err)
}

func TestResendCodeTOTPIsNoop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	bob := f.createTOTPUser(t, "bob")
	_, claims := f.login(t, "bob")

	require.NoError(t, f.auth.ResendCode(t.Context(), bob.ID, claims.SID))
	require.Zero(t, f.mailer.count())
}

func TestRefreshRotation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	alice := f.createUser(t, "alice")
	_, claims := f.login(t, "alice")
	first, err := f.auth.VerifyCode(ctx, alice.ID, claims.SID, f.mailer.last(t), domain.MethodEmail)
	require.NoError(t, err)

	second, err := f.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	a, err := f.signer.Verify(first.AccessToken)
	require.NoError(t, err)
	b, err := f.signer.Verify(second.AccessToken)
	require.NoError(t, err)
	require.Equal(t, a.SID, b.SID, "refresh keeps the session")

	t.Run("unknown token", func(t *testing.T) {
		_, err := f.auth.Refresh(ctx, "nope")
		require.ErrorIs(t, err, service.ErrInvalidRefresh)
	})

	t.Run("reuse revokes the session", func(t *testing.T) {
		_, err := f.auth.Refresh(ctx, first.RefreshToken)
		require.ErrorIs(t, err, service.ErrInvalidRefresh)

		_, err = f.auth.Refresh(ctx, second.RefreshToken)
		require.ErrorIs(t, err, service.ErrInvalidRefresh)
	})
}

func TestCreateUserDuplicate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.createUser(t, "alice")

	_, err := f.users.CreateUser(t.Context(), "other@example.com", "alice", "pw")
	require.ErrorIs(t, err, service.ErrUserExists)

	_, err = f.users.CreateUser(t.Context(), "", "carol", "pw")
	require.Error(t, err)

	_, err = f.users.GetUserByID(t.Context(), "missing")
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestEnrollAndConfirmTOTP(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	alice := f.createUser(t, "alice")

	require.ErrorIs(t, f.users.ConfirmTOTP(ctx, alice.ID, "123456"), service.ErrTOTPNotEnrolled)

	enrollment, err := f.users.EnrollTOTP(ctx, alice.ID)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Equal(t, "alice", enrollment.Account)
	require.True(t, strings.HasPrefix(enrollment.URL, "otpauth://totp/"))

	u, err := f.users.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.False(t, u.TwoFactorEnabled(), "enrollment alone does not switch the login method")

	require.ErrorIs(t, f.users.ConfirmTOTP(ctx, alice.ID, "not-a-code"), service.ErrInvalidCode)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.users.ConfirmTOTP(ctx, alice.ID, code))

	u, err = f.users.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, u.TwoFactorEnabled())

	_, err = f.users.EnrollTOTP(ctx, alice.ID)
	require.ErrorIs(t, err, service.ErrTOTPAlreadyEnabled)
}

func TestProgress(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	alice := f.createUser(t, "alice")

	_, err := f.progress.Get(ctx, alice.ID, "js")
	require.ErrorIs(t, err, service.ErrProgressMissing)

	_, err = f.progress.Put(ctx, alice.ID, "js", json.RawMessage(`{not json`))
	require.ErrorIs(t, err, service.ErrInvalidProgress)

	_, err = f.progress.Put(ctx, alice.ID, "js", json.RawMessage(`{"lesson":3}`))
	require.NoError(t, err)

	p, err := f.progress.Get(ctx, alice.ID, "js")
	require.NoError(t, err)
	require.JSONEq(t, `{"lesson":3}`, string(p.Data))
}

func TestSeed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := slogx.WithContext(t.Context(), slogx.Discard())

	seed := service.SeedUser{Username: "dev", Email: "dev@example.com", Password: "secret", TOTPSecret: totpSecret}
	require.NoError(t, f.users.Seed(ctx, seed))
	require.NoError(t, f.users.Seed(ctx, seed), "seeding twice is a no-op")

	res, _ := f.login(t, "dev")
	require.True(t, res.User.TwoFactorEnabled())

	require.NoError(t, f.users.Seed(ctx, service.SeedUser{}))
}

func TestHousekeepingCleanup(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	f.createUser(t, "alice")
	_, claims := f.login(t, "alice")

	hk := service.NewHousekeepingService(f.store, slogx.Discard(), time.Hour)

	hk.Cleanup(ctx)
	_, err := f.store.Tickets().GetTicket(ctx, claims.SID)
	require.NoError(t, err, "open tickets survive")

	hk.Now = func() time.Time { return time.Now().Add(time.Hour) }
	hk.Cleanup(ctx)
	_, err = f.store.Tickets().GetTicket(ctx, claims.SID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestHousekeepingStartStop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	hk := service.NewHousekeepingService(f.store, slogx.Discard(), 0)
	require.Equal(t, time.Hour, hk.Interval)

	hk.Start()
	hk.Stop()
}
