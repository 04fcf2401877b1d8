package service

import (
	"context"
	"errors"

	"github.com/samimwebdev/jsninja/pkg/slogx"
)

// SeedUser describes an account created at start-up when missing.
type SeedUser struct {
	Username   string
	Email      string
	Password   string
	TOTPSecret string // optional; enables TOTP logins
}

// Seed creates u unless an account with its username already exists.
func (s *UserService) Seed(ctx context.Context, u SeedUser) error {
	l := slogx.FromContext(ctx)

	if u.Username == "" {
		return nil
	}

	if _, err := s.Store.Users().GetUserByIdentifier(ctx, u.Username); err == nil {
		l.Info("seed user already present", "username", u.Username)
		return nil
	}

	created, err := s.CreateUser(ctx, u.Email, u.Username, u.Password)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil
		}
		return err
	}

	if u.TOTPSecret != "" {
		if err := s.SetTOTPSecret(ctx, created.ID, u.TOTPSecret); err != nil {
			return err
		}
	}

	l.Info("seed user created", "username", created.Username, "user_id", created.ID, "totp", u.TOTPSecret != "")
	return nil
}
