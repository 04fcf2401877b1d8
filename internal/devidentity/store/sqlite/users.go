package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/samimwebdev/jsninja/internal/devidentity/domain"
)

type usersRepo struct {
	q dbtx
}

const userColumns = `id, email, username, password_hash, totp_secret, totp_enabled_at, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u                    domain.User
		secret               sql.NullString
		enabledAt            sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &secret, &enabledAt, &createdAt, &updatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.TOTPSecret = mapNullString(secret)
	u.TOTPEnabledAt = mapNullUnix(enabledAt)
	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ? LIMIT 1`, identifier, identifier))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, u.PasswordHash,
		mapOptionalString(u.TOTPSecret), mapOptionalUnix(u.TOTPEnabledAt),
		unix(u.CreatedAt), unix(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateTOTPSecret(ctx context.Context, userID, secret string) error {
	return requireRow(r.q.ExecContext(ctx,
		`UPDATE users SET totp_secret = ?, totp_enabled_at = NULL, updated_at = ? WHERE id = ?`,
		secret, unix(time.Now()), userID))
}

func (r *usersRepo) EnableTOTP(ctx context.Context, userID string, at time.Time) error {
	return requireRow(r.q.ExecContext(ctx,
		`UPDATE users SET totp_enabled_at = ?, updated_at = ? WHERE id = ? AND totp_secret IS NOT NULL`,
		unix(at), unix(at), userID))
}
