package ai

import (
	"context"
	"log"
	"time"

	"whatsapp-ai-assistant/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements adapter.TextGenerator for local/dev runs. It
// logs the prompt instead of calling a real model.
type NoopAIAdapter struct{}

// NewNoopAIAdapter constructs the noop adapter.
func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{}
}

func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	// Rough 4-chars-per-token estimate, good enough for dev budgets.
	total := 0
	for _, m := range messages {
		total += len(m.Content)/4 + 4
	}
	return total, nil
}

func (a *NoopAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	// Simulate slight processing time and respect ctx
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	log.Printf("[noop-ai] chat model=%s messages=%d\n", model, len(messages))
	return "Hola, soy el asistente en modo de prueba. ¿En qué puedo ayudarte?", nil
}
