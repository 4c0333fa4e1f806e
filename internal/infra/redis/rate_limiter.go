package redis

import (
	"context"
	"fmt"
	"time"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/ports/repository"
)

var _ repository.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a fixed-window counter. INCR is atomic, so concurrent
// bursts from one user cannot slip past the limit; the first hit in a
// window arms the window's expiry.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: incr %s: %v", domain.ErrSessionUnavailable, key, err)
	}

	if count == 1 {
		err = r.client.Expire(ctx, key, window)
		if err != nil {
			return false, fmt.Errorf("%w: expire %s: %v", domain.ErrSessionUnavailable, key, err)
		}
	}

	if count > int64(limit) {
		return false, nil
	}

	return true, nil
}
