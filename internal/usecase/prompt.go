// File: internal/usecase/prompt.go
package usecase

import (
	"context"

	"whatsapp-ai-assistant/internal/domain/model"
	"whatsapp-ai-assistant/internal/domain/ports/adapter"
)

func systemPrompt(clinicName string) string {
	return "Eres el asistente virtual del centro de salud " + clinicName + ". " +
		"Ayudas a pacientes del programa de tuberculosis con sus citas de seguimiento. " +
		"Responde siempre en español, con amabilidad y en pocas frases."
}

func buildPrompt(system string, history []model.Message) []adapter.Message {
	msgs := make([]adapter.Message, 0, len(history)+1)
	msgs = append(msgs, adapter.Message{Role: "system", Content: system})
	for _, m := range history {
		msgs = append(msgs, adapter.Message{Role: m.Role, Content: m.Content})
	}
	return msgs
}

// trimToBudget drops the oldest non-system messages until the prompt fits
// the configured token budget. Counting errors leave the prompt as is; the
// provider will enforce its own limit anyway.
func (c *chatUC) trimToBudget(ctx context.Context, msgs []adapter.Message) []adapter.Message {
	if c.opts.PromptTokenBudget <= 0 {
		return msgs
	}
	for len(msgs) > 2 {
		n, err := c.ai.CountTokens(ctx, c.opts.Model, msgs)
		if err != nil || n <= c.opts.PromptTokenBudget {
			return msgs
		}
		msgs = append(msgs[:1], msgs[2:]...)
	}
	return msgs
}
