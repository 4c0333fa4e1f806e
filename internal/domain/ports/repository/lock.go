package repository

import (
	"context"
	"time"
)

// Locker serializes turn processing per user. TryLock returns an opaque
// token that must be presented to Unlock; domain.ErrConversationBusy is
// returned when the lock stays contended after bounded retries.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
