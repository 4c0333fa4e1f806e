// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"fmt"
	"strings"

	"whatsapp-ai-assistant/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*MultiAIAdapter)(nil)

// MultiAIAdapter routes each call to a provider by model name, so one
// deployment can serve the fine-tuned gateway model and a hosted fallback
// side by side.
type MultiAIAdapter struct {
	defaultProvider string // e.g., "gateway", "openai" or "gemini"
	byProvider      map[string]adapter.TextGenerator
	modelToProvider map[string]string
}

// NewMultiAIAdapter does not inject any default model; it only knows a
// default provider. Each provider adapter carries its own default model.
func NewMultiAIAdapter(
	defaultProvider string,
	byProvider map[string]adapter.TextGenerator,
	modelToProvider map[string]string,
) *MultiAIAdapter {
	return &MultiAIAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		modelToProvider: modelToProvider,
	}
}

func (m *MultiAIAdapter) resolveProvider(model string) string {
	if p := m.modelToProvider[model]; p != "" {
		return strings.ToLower(p)
	}
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return "gemini"
	case strings.HasPrefix(l, "gpt"):
		return "openai"
	default:
		return m.defaultProvider
	}
}

func (m *MultiAIAdapter) pick(model string) (adapter.TextGenerator, error) {
	prov := m.resolveProvider(model)
	if a := m.byProvider[prov]; a != nil {
		return a, nil
	}
	if a := m.byProvider[m.defaultProvider]; a != nil {
		return a, nil
	}
	return nil, fmt.Errorf("no provider configured for model %q", model)
}

func (m *MultiAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	a, err := m.pick(model)
	if err != nil {
		return 0, err
	}
	return a.CountTokens(ctx, model, messages)
}

func (m *MultiAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	a, err := m.pick(model)
	if err != nil {
		return "", err
	}
	return a.Chat(ctx, model, messages)
}
