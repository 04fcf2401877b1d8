package service

import (
	"context"
	"log/slog"
)

// Mailer delivers one-time login codes.
type Mailer interface {
	SendLoginCode(ctx context.Context, to, code string) error
}

// LogMailer writes codes to the log instead of sending mail. Development only.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendLoginCode(ctx context.Context, to, code string) error {
	m.Logger.InfoContext(ctx, "login code issued", "to", to, "code", code)
	return nil
}
