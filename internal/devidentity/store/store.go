package store

import (
	"context"
	"errors"
	"time"

	"github.com/samimwebdev/jsninja/internal/devidentity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Sub-repositories are reached
// through methods so a Tx exposes exactly the same surface.
type Store interface {
	Users() Users
	Tickets() Tickets
	RefreshTokens() RefreshTokens
	Progress() Progress

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. It commits when fn returns
	// nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByIdentifier matches username or email, case-insensitively.
	GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error)

	// CreateUser inserts a new user. Duplicate username or email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateTOTPSecret stores a secret that is not enabled yet.
	UpdateTOTPSecret(ctx context.Context, userID, secret string) error

	// EnableTOTP marks the stored secret as confirmed.
	EnableTOTP(ctx context.Context, userID string, at time.Time) error
}

type Tickets interface {
	CreateTicket(ctx context.Context, t domain.LoginTicket) error
	GetTicket(ctx context.Context, id string) (domain.LoginTicket, error)

	// IncrementTicketAttempts records a failed guess and returns the updated ticket.
	IncrementTicketAttempts(ctx context.Context, id string) (domain.LoginTicket, error)

	// UpdateTicketCode replaces the emailed code. The expiry is not touched.
	UpdateTicketCode(ctx context.Context, id, codeHash string) error

	// ConsumeTicket marks the ticket used. A ticket consumed before yields ErrNotFound.
	ConsumeTicket(ctx context.Context, id string, at time.Time) error

	// DeleteExpiredTickets removes tickets that expired or were consumed before now.
	DeleteExpiredTickets(ctx context.Context, now time.Time) (int64, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken revokes a token. A token revoked before yields ErrNotFound.
	RevokeRefreshToken(ctx context.Context, hash string, at time.Time) error

	// RevokeSessionRefreshTokens revokes every token of a session or ticket.
	RevokeSessionRefreshTokens(ctx context.Context, sessionID string, at time.Time) error

	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type Progress interface {
	GetProgress(ctx context.Context, userID, course string) (domain.Progress, error)

	// PutProgress inserts or replaces the record.
	PutProgress(ctx context.Context, p domain.Progress) error
}
