package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/model"
	"whatsapp-ai-assistant/internal/domain/ports/repository"
)

var _ repository.ConversationRepository = (*ConversationStore)(nil)

type entry struct {
	data    []byte
	meta    repository.ConversationMeta
	expires time.Time
}

// ConversationStore is the in-process session store for cache-less runs and
// tests. It mirrors the Redis cache's behavior, including the JSON round
// trip, so both backends serve the same bytes.
type ConversationStore struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry

	now func() time.Time
}

func NewConversationStore(ttl time.Duration) *ConversationStore {
	return &ConversationStore{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (s *ConversationStore) Find(ctx context.Context, userID string) (*model.Conversation, error) {
	s.mu.RLock()
	e, ok := s.m[userID]
	s.mu.RUnlock()
	if !ok || s.now().After(e.expires) {
		return nil, domain.ErrNotFound
	}
	var conv model.Conversation
	if err := json.Unmarshal(e.data, &conv); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", userID, err)
	}
	return &conv, nil
}

func (s *ConversationStore) Save(ctx context.Context, conv *model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation %s: %w", conv.UserID, err)
	}
	s.mu.Lock()
	s.m[conv.UserID] = entry{
		data: data,
		meta: repository.ConversationMeta{
			ConversationID: conv.ID,
			LastActivity:   conv.UpdatedAt,
			MessageCount:   len(conv.Messages),
		},
		expires: s.now().Add(s.ttl),
	}
	s.mu.Unlock()
	return nil
}

func (s *ConversationStore) ExtendTTL(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[userID]
	if !ok {
		return nil
	}
	e.expires = s.now().Add(s.ttl)
	s.m[userID] = e
	return nil
}

func (s *ConversationStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	delete(s.m, userID)
	s.mu.Unlock()
	return nil
}

func (s *ConversationStore) Meta(ctx context.Context, userID string) (*repository.ConversationMeta, error) {
	s.mu.RLock()
	e, ok := s.m[userID]
	s.mu.RUnlock()
	if !ok || s.now().After(e.expires) {
		return nil, domain.ErrNotFound
	}
	meta := e.meta
	return &meta, nil
}
