package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/samimwebdev/jsninja/internal/devidentity/domain"
)

type ticketsRepo struct {
	q dbtx
}

const ticketColumns = `id, user_id, method, code_hash, attempts, created_at, expires_at, consumed_at`

func scanTicket(row *sql.Row) (domain.LoginTicket, error) {
	var (
		t                    domain.LoginTicket
		method               string
		createdAt, expiresAt int64
		consumedAt           sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.UserID, &method, &t.CodeHash, &t.Attempts, &createdAt, &expiresAt, &consumedAt); err != nil {
		return domain.LoginTicket{}, mapNotFound(err)
	}
	t.Method = domain.Method(method)
	t.CreatedAt = fromUnix(createdAt)
	t.ExpiresAt = fromUnix(expiresAt)
	t.ConsumedAt = mapNullUnix(consumedAt)
	return t, nil
}

func (r *ticketsRepo) CreateTicket(ctx context.Context, t domain.LoginTicket) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO login_tickets (`+ticketColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Method), t.CodeHash, t.Attempts,
		unix(t.CreatedAt), unix(t.ExpiresAt), mapOptionalUnix(t.ConsumedAt),
	)
	return mapConstraint(err)
}

func (r *ticketsRepo) GetTicket(ctx context.Context, id string) (domain.LoginTicket, error) {
	return scanTicket(r.q.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM login_tickets WHERE id = ?`, id))
}

func (r *ticketsRepo) IncrementTicketAttempts(ctx context.Context, id string) (domain.LoginTicket, error) {
	return scanTicket(r.q.QueryRowContext(ctx,
		`UPDATE login_tickets SET attempts = attempts + 1 WHERE id = ? RETURNING `+ticketColumns, id))
}

func (r *ticketsRepo) UpdateTicketCode(ctx context.Context, id, codeHash string) error {
	return requireRow(r.q.ExecContext(ctx,
		`UPDATE login_tickets SET code_hash = ? WHERE id = ? AND consumed_at IS NULL`, codeHash, id))
}

func (r *ticketsRepo) ConsumeTicket(ctx context.Context, id string, at time.Time) error {
	return requireRow(r.q.ExecContext(ctx,
		`UPDATE login_tickets SET consumed_at = ? WHERE id = ? AND consumed_at IS NULL`, unix(at), id))
}

func (r *ticketsRepo) DeleteExpiredTickets(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM login_tickets WHERE expires_at <= ? OR consumed_at IS NOT NULL`, unix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
