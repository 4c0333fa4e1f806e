package repository

import (
	"context"
	"time"

	"whatsapp-ai-assistant/internal/domain/model"
)

// ConversationMeta is the lightweight side record kept next to each
// conversation for monitoring and history listings.
type ConversationMeta struct {
	ConversationID string    `json:"conversation_id"`
	LastActivity   time.Time `json:"last_activity"`
	MessageCount   int       `json:"message_count"`
}

// ConversationRepository stores one live conversation per user under a
// bounded lease. Find returns domain.ErrNotFound when the user has no live
// session; that is the normal signal to start a new one, not a failure.
type ConversationRepository interface {
	Find(ctx context.Context, userID string) (*model.Conversation, error)
	// Save overwrites the stored conversation and refreshes its lease to the
	// full TTL. Last-writer-wins; per-user serialization is the caller's job.
	Save(ctx context.Context, conv *model.Conversation) error
	ExtendTTL(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string) error
	Meta(ctx context.Context, userID string) (*ConversationMeta, error)
}
