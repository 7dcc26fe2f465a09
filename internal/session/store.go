package session

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no record exists for a key (including records
// removed by TTL expiry).
var ErrNotFound = errors.New("session: not found")

// Store is the short-lived token store backing the guard chain. One record per
// key; Set overwrites unconditionally, which is what keeps a user down to a
// single active session.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SessionKey returns the storage key holding a user's active session token.
func SessionKey(email string) string {
	return "token:" + normalize(email)
}

// ResetKey returns the storage key holding a user's password-reset token.
// The namespace is distinct from SessionKey so a reset credential can never
// authenticate a normal request, nor the other way round.
func ResetKey(email string) string {
	return "resetToken:" + normalize(email)
}

func normalize(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
