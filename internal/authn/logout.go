package authn

import (
	"context"
	"fmt"

	"github.com/samimwebdev/jsninja/internal/session"
	"github.com/samimwebdev/jsninja/pkg/slogx"
)

// Logout deletes every session value. It is purely local; the identity
// service is not told.
func Logout(ctx context.Context, store session.Store) error {
	if err := session.DeleteAll(ctx, store, session.AllKeys...); err != nil {
		return fmt.Errorf("authn: logout: %w", err)
	}
	slogx.FromContext(ctx).Info("session cleared")
	return nil
}
