package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/samimwebdev/jsninja/internal/devidentity/domain"
	"github.com/samimwebdev/jsninja/internal/devidentity/store"
	"github.com/samimwebdev/jsninja/pkg/cryptox"
	"github.com/samimwebdev/jsninja/pkg/idx"
	"github.com/samimwebdev/jsninja/pkg/jwtx"
	"github.com/samimwebdev/jsninja/pkg/slogx"
)

// emailCodeDigits is the length of emailed login codes.
const emailCodeDigits = 6

// totpOpts mirrors what authenticator apps use by default.
var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// AuthService implements the two step login, code resend and refresh
// rotation.
type AuthService struct {
	Store  store.Store
	Signer jwtx.Signer
	Hasher *cryptox.PasswordHasher
	Mailer Mailer
	Issuer string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	TicketTTL  time.Duration

	// Now overrides the clock (tests).
	Now func() time.Time
}

// LoginResult is the pending pair plus the account it belongs to.
type LoginResult struct {
	Pair domain.TokenPair
	User domain.User
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login checks the password and opens a login ticket. The returned pair only
// authorizes the second factor endpoints.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	u, err := s.Store.Users().GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Info("password mismatch", "user_id", u.ID)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("failed to verify password: %w", err)
	}

	ticket := domain.LoginTicket{
		ID:        idx.New().String(),
		UserID:    u.ID,
		Method:    u.SecondFactor(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.TicketTTL),
	}

	var code string
	if ticket.Method == domain.MethodEmail {
		if code, err = cryptox.GenerateNumericCode(emailCodeDigits); err != nil {
			return LoginResult{}, err
		}
		ticket.CodeHash = cryptox.FingerprintToken(code)
	}

	pending, err := s.Signer.Sign(jwtx.NewClaims(
		jwtx.TokenPending, u.ID, ticket.ID, []string{"pwd"}, s.TicketTTL, s.Issuer, u.Username, now,
	))
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to sign pending token: %w", err)
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return LoginResult{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tickets().CreateTicket(ctx, ticket); err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    u.ID,
			TokenHash: cryptox.FingerprintToken(refreshOpaque),
			Kind:      domain.KindPending,
			SessionID: ticket.ID,
			ExpiresAt: ticket.ExpiresAt,
			CreatedAt: now,
		})
	})
	if err != nil {
		return LoginResult{}, err
	}

	if code != "" {
		if err := s.Mailer.SendLoginCode(ctx, u.Email, code); err != nil {
			return LoginResult{}, fmt.Errorf("failed to send login code: %w", err)
		}
	}

	log.Info("login ticket issued", "user_id", u.ID, "method", ticket.Method)
	return LoginResult{
		Pair: domain.TokenPair{AccessToken: pending, RefreshToken: refreshOpaque},
		User: u,
	}, nil
}

// openTicket loads a ticket that belongs to userID and can still be used.
func (s *AuthService) openTicket(ctx context.Context, userID, ticketID string) (domain.LoginTicket, error) {
	t, err := s.Store.Tickets().GetTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginTicket{}, ErrTicketExpired
		}
		return domain.LoginTicket{}, err
	}
	if t.UserID != userID || !t.Open(s.now()) {
		return domain.LoginTicket{}, ErrTicketExpired
	}
	return t, nil
}

// VerifyCode checks the second factor for a ticket. Each wrong code uses one
// of domain.MaxTicketAttempts attempts. Success consumes the ticket, revokes
// its pending refresh token and opens a session.
func (s *AuthService) VerifyCode(
	ctx context.Context,
	userID, ticketID, code string,
	method domain.Method,
) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	t, err := s.openTicket(ctx, userID, ticketID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if method != t.Method {
		return domain.TokenPair{}, ErrMethodMismatch
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to load user: %w", err)
	}

	var ok bool
	switch t.Method {
	case domain.MethodTOTP:
		if u.TOTPSecret != nil {
			ok, _ = totp.ValidateCustom(code, *u.TOTPSecret, now, totpOpts)
		}
	case domain.MethodEmail:
		ok = t.CodeHash != "" && cryptox.EqualFingerprint(code, t.CodeHash)
	}

	if !ok {
		updated, err := s.Store.Tickets().IncrementTicketAttempts(ctx, t.ID)
		if err != nil {
			return domain.TokenPair{}, fmt.Errorf("failed to record attempt: %w", err)
		}
		log.Warn("invalid one-time code", "user_id", userID, "attempts", updated.Attempts)
		return domain.TokenPair{}, ErrInvalidCode
	}

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tickets().ConsumeTicket(ctx, t.ID, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTicketExpired
			}
			return err
		}
		if err := tx.RefreshTokens().RevokeSessionRefreshTokens(ctx, t.ID, now); err != nil {
			return err
		}

		pair, err = s.issueSession(ctx, tx, u, idx.New().String(), []string{"pwd", string(t.Method)}, now)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	log.Info("login completed", "user_id", userID, "method", t.Method)
	return pair, nil
}

// ResendCode mails a fresh code for an email ticket. The ticket keeps its
// expiry. TOTP tickets have nothing to resend.
func (s *AuthService) ResendCode(ctx context.Context, userID, ticketID string) error {
	t, err := s.openTicket(ctx, userID, ticketID)
	if err != nil {
		return err
	}
	if t.Method != domain.MethodEmail {
		return nil
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	code, err := cryptox.GenerateNumericCode(emailCodeDigits)
	if err != nil {
		return err
	}
	if err := s.Store.Tickets().UpdateTicketCode(ctx, t.ID, cryptox.FingerprintToken(code)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTicketExpired
		}
		return err
	}

	return s.Mailer.SendLoginCode(ctx, u.Email, code)
}

// Refresh rotates a session refresh token. Presenting a revoked token
// revokes the whole session. Pending refresh tokens are never accepted.
func (s *AuthService) Refresh(ctx context.Context, refreshOpaque string) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.TokenPair{}, err
	}

	if rt.Kind != domain.KindSession || !now.Before(rt.ExpiresAt) {
		return domain.TokenPair{}, ErrInvalidRefresh
	}
	if rt.RevokedAt != nil {
		log.Warn("refresh token reuse, revoking session", "user_id", rt.UserID, "sid", rt.SessionID)
		if err := s.Store.RefreshTokens().RevokeSessionRefreshTokens(ctx, rt.SessionID, now); err != nil {
			log.Error("failed to revoke session", "err", err)
		}
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	u, err := s.Store.Users().GetUserByID(ctx, rt.UserID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to load user: %w", err)
	}

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		pair, err = s.issueSession(ctx, tx, u, rt.SessionID, []string{"refresh"}, now)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, err
	}
	return pair, nil
}

// issueSession signs an access token and stores a new session refresh token.
func (s *AuthService) issueSession(
	ctx context.Context,
	tx store.Tx,
	u domain.User,
	sid string,
	amr []string,
	now time.Time,
) (domain.TokenPair, error) {
	access, err := s.Signer.Sign(jwtx.NewClaims(
		jwtx.TokenAccess, u.ID, sid, amr, s.AccessTTL, s.Issuer, u.Username, now,
	))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.TokenPair{}, err
	}

	err = tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		Kind:      domain.KindSession,
		SessionID: sid,
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return domain.TokenPair{AccessToken: access, RefreshToken: refreshOpaque}, nil
}
