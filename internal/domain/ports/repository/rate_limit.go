package repository

import (
	"context"
	"time"
)

// RateLimiter gates inbound turns. Allow atomically increments the counter
// behind key and reports whether the caller is still inside limit for the
// current window. The first hit in a window starts the window's expiry.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
