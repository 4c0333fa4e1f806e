package ai

import (
	"context"
	"time"

	"whatsapp-ai-assistant/internal/domain/ports/adapter"
	"whatsapp-ai-assistant/internal/infra/metrics"
)

// Compile-time check
var _ adapter.TextGenerator = (*limitedAI)(nil)

// limitedAI bounds in-flight generation calls with a semaphore and records
// latency per model. Every provider goes through it, so the metrics cover
// gateway, hosted and dev adapters alike.
type limitedAI struct {
	inner adapter.TextGenerator
	sem   chan struct{}
}

func NewLimitedAI(inner adapter.TextGenerator, maxConcurrent int) adapter.TextGenerator {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAI{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

// acquire blocks for a slot unless ctx ends first; the request deadline
// caps how long a turn may queue behind other generations.
func (l *limitedAI) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *limitedAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	if err := l.acquire(ctx); err != nil {
		return 0, err
	}
	defer func() { <-l.sem }()
	return l.inner.CountTokens(ctx, model, messages)
}

func (l *limitedAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	if err := l.acquire(ctx); err != nil {
		return "", err
	}
	defer func() { <-l.sem }()

	start := time.Now()
	reply, err := l.inner.Chat(ctx, model, messages)
	metrics.ObserveGeneration(model, int(time.Since(start).Milliseconds()), err == nil)
	return reply, err
}
