package ai

import (
	"github.com/pkoukk/tiktoken-go"

	"whatsapp-ai-assistant/internal/domain/ports/adapter"
)

// countTokensTiktoken sizes a prompt the way OpenAI-style endpoints bill
// it: BPE tokens of role and content plus a small per-message framing
// overhead. Fine-tuned model names are not in tiktoken's table, so unknown
// models fall back to cl100k_base.
func countTokensTiktoken(model string, messages []adapter.Message) (int, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, err
		}
	}

	total := 2 // reply priming
	for _, m := range messages {
		total += 4 // per-message framing
		total += len(enc.Encode(m.Role, nil, nil))
		total += len(enc.Encode(m.Content, nil, nil))
	}
	return total, nil
}
