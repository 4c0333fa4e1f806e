package ai_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"whatsapp-ai-assistant/internal/domain/ports/adapter"
	ai "whatsapp-ai-assistant/internal/infra/adapters/ai"
)

type stubAI struct {
	name      string
	chatN     int32
	countN    int32
	lastModel string
}

func (s *stubAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	atomic.AddInt32(&s.countN, 1)
	s.lastModel = model
	return 1, nil
}

func (s *stubAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	atomic.AddInt32(&s.chatN, 1)
	s.lastModel = model
	return "ok", nil
}

func TestMultiRouting_ExplicitMap_Heuristics_And_Fallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	open := &stubAI{name: "openai"}
	gem := &stubAI{name: "gemini"}

	m := ai.NewMultiAIAdapter(
		"openai",
		map[string]adapter.TextGenerator{"openai": open, "gemini": gem},
		map[string]string{"clinic-ft-v2": "gemini"},
	)

	// explicit map wins
	_, _ = m.CountTokens(ctx, "clinic-ft-v2", nil)
	if gem.countN != 1 || open.countN != 0 {
		t.Fatalf("explicit map should route to gemini, got open:%d gem:%d", open.countN, gem.countN)
	}
	open.countN, gem.countN = 0, 0

	// gpt-* -> openai
	_, _ = m.Chat(ctx, "gpt-4o-mini", nil)
	if open.chatN != 1 || gem.chatN != 0 {
		t.Fatalf("heuristic gpt-* should go openai")
	}
	open.chatN, gem.chatN = 0, 0

	// gemini-* -> gemini
	_, _ = m.Chat(ctx, "gemini-1.5-flash", nil)
	if gem.chatN != 1 || open.chatN != 0 {
		t.Fatalf("heuristic gemini-* should go gemini")
	}

	// unknown -> default provider (openai)
	open.countN, gem.countN = 0, 0
	_, _ = m.CountTokens(ctx, "unknown", nil)
	if open.countN != 1 || gem.countN != 0 {
		t.Fatalf("unknown model should go to default provider (openai)")
	}
}

func TestMultiRouting_MissingProviderFallsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	open := &stubAI{name: "openai"}

	m := ai.NewMultiAIAdapter("openai", map[string]adapter.TextGenerator{"openai": open}, nil)
	if _, err := m.Chat(ctx, "gemini-1.5-flash", nil); err != nil {
		t.Fatalf("expected fallback to default provider, got %v", err)
	}
	if open.chatN != 1 {
		t.Fatalf("default provider not used")
	}

	empty := ai.NewMultiAIAdapter("openai", map[string]adapter.TextGenerator{}, nil)
	if _, err := empty.Chat(ctx, "gpt-4o-mini", nil); err == nil {
		t.Fatalf("expected error with no providers configured")
	}
}

type gatedAI struct {
	gate     chan struct{}
	inflight int32
	maxSeen  int32
}

func (g *gatedAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return 0, nil
}

func (g *gatedAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	n := atomic.AddInt32(&g.inflight, 1)
	for {
		max := atomic.LoadInt32(&g.maxSeen)
		if n <= max || atomic.CompareAndSwapInt32(&g.maxSeen, max, n) {
			break
		}
	}
	<-g.gate
	atomic.AddInt32(&g.inflight, -1)
	return "ok", nil
}

func TestLimitedAI_BoundsConcurrency(t *testing.T) {
	t.Parallel()
	gated := &gatedAI{gate: make(chan struct{})}
	limited := ai.NewLimitedAI(gated, 2)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = limited.Chat(context.Background(), "gpt-4o-mini", nil)
		}()
	}

	// Let the semaphore fill before opening the gate, then drain.
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&gated.inflight) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("limiter never admitted two concurrent calls")
		}
		time.Sleep(time.Millisecond)
	}
	close(gated.gate)
	wg.Wait()

	if max := atomic.LoadInt32(&gated.maxSeen); max != 2 {
		t.Fatalf("in-flight high water = %d, want exactly 2", max)
	}
}

func TestNewLimitedAI_ZeroIsPassthrough(t *testing.T) {
	t.Parallel()
	inner := &stubAI{name: "openai"}
	if got := ai.NewLimitedAI(inner, 0); got != adapter.TextGenerator(inner) {
		t.Fatalf("zero limit should return the inner adapter unchanged")
	}
}
