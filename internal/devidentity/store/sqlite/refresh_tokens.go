package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/samimwebdev/jsninja/internal/devidentity/domain"
)

type refreshTokensRepo struct {
	q dbtx
}

const refreshTokenColumns = `id, user_id, token_hash, kind, session_id, expires_at, revoked_at, created_at`

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO refresh_tokens (`+refreshTokenColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, string(t.Kind), t.SessionID,
		unix(t.ExpiresAt), mapOptionalUnix(t.RevokedAt), unix(t.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var (
		t                    domain.RefreshToken
		kind                 string
		expiresAt, createdAt int64
		revokedAt            sql.NullInt64
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE token_hash = ?`, hash,
	).Scan(&t.ID, &t.UserID, &t.TokenHash, &kind, &t.SessionID, &expiresAt, &revokedAt, &createdAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.Kind = domain.TokenKind(kind)
	t.ExpiresAt = fromUnix(expiresAt)
	t.RevokedAt = mapNullUnix(revokedAt)
	t.CreatedAt = fromUnix(createdAt)
	return t, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string, at time.Time) error {
	return requireRow(r.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL`, unix(at), hash))
}

func (r *refreshTokensRepo) RevokeSessionRefreshTokens(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE session_id = ? AND revoked_at IS NULL`, unix(at), sessionID)
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, unix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
