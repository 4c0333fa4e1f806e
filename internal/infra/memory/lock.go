package memory

import (
	"context"
	"sync"
	"time"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/ports/repository"

	"github.com/google/uuid"
)

var _ repository.Locker = (*Locker)(nil)

type lease struct {
	token   string
	expires time.Time
}

// Locker is the single-process turn lock. Same contract as the Redis one,
// minus cross-instance reach.
type Locker struct {
	mu  sync.Mutex
	m   map[string]lease
	now func() time.Time
}

func NewLocker() *Locker {
	return &Locker{m: make(map[string]lease), now: time.Now}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	for i := 0; i < 5; i++ {
		l.mu.Lock()
		cur, held := l.m[key]
		if !held || l.now().After(cur.expires) {
			l.m[key] = lease{token: token, expires: l.now().Add(ttl)}
			l.mu.Unlock()
			return token, nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return "", domain.ErrConversationBusy
}

func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, held := l.m[key]; held && cur.token == token {
		delete(l.m, key)
	}
	return nil
}
