package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.TextGenerator = (*OpenAIAdapter)(nil)

// OpenAIAdapter generates replies through the hosted OpenAI API. The
// self-hosted fine-tuned model goes through GatewayAdapter instead; this
// one exists for deployments that run on a stock hosted model.
type OpenAIAdapter struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
}

func NewOpenAIAdapter(apiKey, model string, maxTokens int, temperature float64) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if maxTokens <= 0 {
		maxTokens = 150
	}
	return &OpenAIAdapter{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

func (o *OpenAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return countTokensTiktoken(modelOrDefault(model, o.model), messages)
}

func (o *OpenAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(modelOrDefault(model, o.model)),
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   openai.Int(int64(o.maxTokens)),
		Temperature: openai.Float(o.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, nil
		}
	}
	return "", fmt.Errorf("%w: no choice content", domain.ErrGenerationFailed)
}

func toOpenAIMessages(msgs []adapter.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
