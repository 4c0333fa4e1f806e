package redis

import (
	"context"
	"fmt"
	"time"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/ports/repository"
	"whatsapp-ai-assistant/internal/infra/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ repository.Locker = (*RedisLocker)(nil)

const (
	lockAttempts  = 5
	lockRetryWait = 50 * time.Millisecond
)

// RedisLocker serializes turn processing per user across instances with a
// SETNX lease. Unlock is token-checked so an expired holder cannot release
// a successor's lock.
type RedisLocker struct {
	cli *redis.Client
}

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli}
}

// TryLock reports contention as domain.ErrConversationBusy and transport
// failure as domain.ErrSessionUnavailable; callers treat the two very
// differently (retry later vs. turn failed).
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < lockAttempts; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
		if err == nil && ok {
			metrics.IncTurnLocks()
			return token, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetryWait):
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: acquire turn lock: %v", domain.ErrSessionUnavailable, lastErr)
	}
	return "", domain.ErrConversationBusy
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

// Unlock releases only when token still owns the key; a holder whose
// lease expired must not delete its successor's lock.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	n, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Int()
	if err == nil && n == 1 {
		metrics.DecTurnLocks()
	}
	return err
}
