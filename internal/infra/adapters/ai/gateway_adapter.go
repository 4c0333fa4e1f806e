package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.TextGenerator = (*GatewayAdapter)(nil)

// GatewayAdapter talks to an OpenAI-compatible chat/completions endpoint.
// That is how the clinic's fine-tuned model is served (vLLM-style gateway),
// so the base URL is required; the API key is optional for in-cluster
// deployments.
type GatewayAdapter struct {
	apiKey      string
	base        string // e.g., http://model-server:8000/v1
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

func NewGatewayAdapter(base, apiKey, model string, maxTokens int, temperature float64) (*GatewayAdapter, error) {
	if base == "" {
		return nil, errors.New("gateway base url empty")
	}
	if maxTokens <= 0 {
		maxTokens = 150
	}
	return &GatewayAdapter{
		apiKey:      apiKey,
		base:        strings.TrimRight(base, "/"),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (g *GatewayAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return countTokensTiktoken(modelOrDefault(model, g.model), messages)
}

func (g *GatewayAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reqBody := struct {
		Model       string            `json:"model"`
		Messages    []adapter.Message `json:"messages"`
		MaxTokens   int               `json:"max_tokens,omitempty"`
		Temperature float64           `json:"temperature,omitempty"`
	}{
		Model:       modelOrDefault(model, g.model),
		Messages:    messages,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: gateway http %d", domain.ErrGenerationFailed, resp.StatusCode)
	}

	var payload struct {
		Choices []struct {
			Message adapter.Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrGenerationFailed, err)
	}
	for _, c := range payload.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, nil
		}
	}
	return "", fmt.Errorf("%w: no choice content", domain.ErrGenerationFailed)
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
