// Package session persists the login state of a browser: the finished
// access/refresh pair and the short-lived pending ticket pair issued after a
// correct password. Each value carries its own expiry.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Key names one persisted value. The string is also the cookie name used by
// CookieStore.
type Key string

const (
	KeyAccess         Key = "access_token"
	KeyRefresh        Key = "refresh_token"
	KeyPendingAccess  Key = "pending_access_token"
	KeyPendingRefresh Key = "pending_refresh_token"
)

// AllKeys lists every key a session may hold.
var AllKeys = []Key{KeyAccess, KeyRefresh, KeyPendingAccess, KeyPendingRefresh}

// Lifetimes of the persisted values.
const (
	SessionTTL = 7 * 24 * time.Hour
	PendingTTL = 300 * time.Second
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("session: not found")

// Options control a single write. A zero TTL means the value lives as long
// as the browser session.
type Options struct {
	TTL time.Duration
}

// Store is scoped read/write/delete of session values.
type Store interface {
	Get(ctx context.Context, key Key) (string, error)
	Set(ctx context.Context, key Key, value string, opts Options) error
	Delete(ctx context.Context, key Key) error
}

// Provider opens the Store belonging to the browser behind an HTTP request.
type Provider interface {
	Open(w http.ResponseWriter, r *http.Request) Store
}

// Lookup returns the value for key, reporting absence as "" with a nil
// error. Other errors are passed through.
func Lookup(ctx context.Context, s Store, key Key) (string, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// DeleteAll removes keys, returning the first error after trying them all.
func DeleteAll(ctx context.Context, s Store, keys ...Key) error {
	var errs []error
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Rotator is implemented by stores whose browser-side identifier can be
// replaced. Callers rotate whenever the privilege of the session changes.
type Rotator interface {
	Rotate(ctx context.Context) error
}

// Rotate moves the session behind s to a fresh identifier if the store
// supports it.
func Rotate(ctx context.Context, s Store) error {
	if r, ok := s.(Rotator); ok {
		return r.Rotate(ctx)
	}
	return nil
}
