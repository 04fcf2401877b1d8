package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/samimwebdev/jsninja/internal/devidentity/domain"
	"github.com/samimwebdev/jsninja/internal/devidentity/store"
	"github.com/samimwebdev/jsninja/pkg/cryptox"
	"github.com/samimwebdev/jsninja/pkg/idx"
)

type UserService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
	Issuer string // Issuer name shown by authenticator apps
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// CreateUser registers an account with an argon2id password hash.
func (s *UserService) CreateUser(ctx context.Context, email, username, password string) (domain.User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return domain.User{}, errors.New("email, username and password are required")
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, err
	}
	return u, nil
}

// EnrollTOTP generates and stores a TOTP secret for the user. It is not used
// for logins until ConfirmTOTP succeeds.
func (s *UserService) EnrollTOTP(ctx context.Context, userID string) (domain.TOTPEnrollment, error) {
	u, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return domain.TOTPEnrollment{}, err
	}
	if u.TwoFactorEnabled() {
		return domain.TOTPEnrollment{}, ErrTOTPAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Username,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	if err := s.Store.Users().UpdateTOTPSecret(ctx, userID, key.Secret()); err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("failed to store TOTP secret: %w", err)
	}

	return domain.TOTPEnrollment{
		Secret:  key.Secret(),
		URL:     key.URL(),
		Issuer:  s.Issuer,
		Account: u.Username,
	}, nil
}

// ConfirmTOTP enables the enrolled secret once the user proves they hold it.
func (s *UserService) ConfirmTOTP(ctx context.Context, userID, code string) error {
	u, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.TwoFactorEnabled() {
		return ErrTOTPAlreadyEnabled
	}
	if u.TOTPSecret == nil || *u.TOTPSecret == "" {
		return ErrTOTPNotEnrolled
	}

	now := time.Now()
	if ok, _ := totp.ValidateCustom(code, *u.TOTPSecret, now, totpOpts); !ok {
		return ErrInvalidCode
	}
	return s.Store.Users().EnableTOTP(ctx, userID, now)
}

// SetTOTPSecret stores and enables a known secret without confirmation.
// Used by seeding.
func (s *UserService) SetTOTPSecret(ctx context.Context, userID, secret string) error {
	if err := s.Store.Users().UpdateTOTPSecret(ctx, userID, secret); err != nil {
		return err
	}
	return s.Store.Users().EnableTOTP(ctx, userID, time.Now())
}
