package sqlite

import (
	"context"
	"encoding/json"

	"github.com/samimwebdev/jsninja/internal/devidentity/domain"
)

type progressRepo struct {
	q dbtx
}

func (r *progressRepo) GetProgress(ctx context.Context, userID, course string) (domain.Progress, error) {
	var (
		p         = domain.Progress{UserID: userID, Course: course}
		data      string
		updatedAt int64
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT data, updated_at FROM progress WHERE user_id = ? AND course = ?`, userID, course,
	).Scan(&data, &updatedAt)
	if err != nil {
		return domain.Progress{}, mapNotFound(err)
	}
	p.Data = json.RawMessage(data)
	p.UpdatedAt = fromUnix(updatedAt)
	return p, nil
}

func (r *progressRepo) PutProgress(ctx context.Context, p domain.Progress) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO progress (user_id, course, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, course) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		p.UserID, p.Course, string(p.Data), unix(p.UpdatedAt),
	)
	return err
}
