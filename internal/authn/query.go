package authn

import (
	"context"

	"github.com/samimwebdev/jsninja/internal/session"
	"github.com/samimwebdev/jsninja/pkg/identity"
	"github.com/samimwebdev/jsninja/pkg/slogx"
)

// Query is the read-only view of a session used by everything outside this
// package. It never writes the store and never renews.
type Query struct {
	api Identity
}

// NewQuery creates a Query.
func NewQuery(api Identity) *Query {
	return &Query{api: api}
}

// CurrentToken returns the finished access token, or "".
func (q *Query) CurrentToken(ctx context.Context, store session.Store) string {
	tok, err := session.Lookup(ctx, store, session.KeyAccess)
	if err != nil {
		slogx.FromContext(ctx).Warn("read session failed", "err", err)
		return ""
	}
	return tok
}

// IsAuthenticated reports whether a finished access token is stored and the
// identity service accepts it right now. No remote call is made without a
// token.
func (q *Query) IsAuthenticated(ctx context.Context, store session.Store) bool {
	return q.CurrentUser(ctx, store) != nil
}

// CurrentUser resolves the identity behind the stored access token. Any
// failure yields nil.
func (q *Query) CurrentUser(ctx context.Context, store session.Store) *identity.User {
	tok := q.CurrentToken(ctx, store)
	if tok == "" {
		return nil
	}

	u, err := q.api.Me(ctx, tok)
	if err != nil {
		slogx.FromContext(ctx).Debug("who-am-i failed", "err", err)
		return nil
	}
	return u
}

// State classifies the session from storage alone.
func (q *Query) State(ctx context.Context, store session.Store) State {
	if tok, _ := session.Lookup(ctx, store, session.KeyAccess); tok != "" {
		return StateAuthenticated
	}
	if tok, _ := session.Lookup(ctx, store, session.KeyPendingAccess); tok != "" {
		return StatePending
	}
	return StateUnauthenticated
}
