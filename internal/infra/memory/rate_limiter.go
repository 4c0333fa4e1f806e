package memory

import (
	"context"
	"sync"
	"time"

	"whatsapp-ai-assistant/internal/domain/ports/repository"
)

var _ repository.RateLimiter = (*RateLimiter)(nil)

type window struct {
	count   int
	expires time.Time
}

// RateLimiter is the in-process fixed-window counter.
type RateLimiter struct {
	mu  sync.Mutex
	m   map[string]window
	now func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{m: make(map[string]window), now: time.Now}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, win time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.m[key]
	if !ok || r.now().After(w.expires) {
		w = window{count: 0, expires: r.now().Add(win)}
	}
	w.count++
	r.m[key] = w
	return w.count <= limit, nil
}
