package web

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"whatsapp-ai-assistant/internal/domain/model"
	"whatsapp-ai-assistant/internal/domain/ports/repository"
	"whatsapp-ai-assistant/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

// mockChatUC satisfies usecase.ChatUseCase with canned results and
// injectable errors, recording what the handlers passed down.
type mockChatUC struct {
	mu sync.Mutex

	result     *usecase.TurnResult
	processErr error
	history    []model.Message
	historyErr error
	meta       *repository.ConversationMeta
	metaErr    error
	clearErr   error

	lastUserID  string
	lastContent string
	lastLimit   int
	clears      int
}

var _ usecase.ChatUseCase = (*mockChatUC)(nil)

func (m *mockChatUC) ProcessMessage(ctx context.Context, userID, content string) (*usecase.TurnResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID = userID
	m.lastContent = content
	if m.processErr != nil {
		return nil, m.processErr
	}
	return m.result, nil
}

func (m *mockChatUC) History(ctx context.Context, userID string, limit int) ([]model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID = userID
	m.lastLimit = limit
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history, nil
}

func (m *mockChatUC) SessionStatus(ctx context.Context, userID string) (*repository.ConversationMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID = userID
	if m.metaErr != nil {
		return nil, m.metaErr
	}
	return m.meta, nil
}

func (m *mockChatUC) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID = userID
	m.clears++
	return m.clearErr
}
