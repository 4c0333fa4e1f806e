package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"whatsapp-ai-assistant/internal/domain"
	"whatsapp-ai-assistant/internal/domain/model"
	"whatsapp-ai-assistant/internal/domain/ports/repository"
	"whatsapp-ai-assistant/internal/infra/metrics"

	"github.com/go-redis/redis/v8"
)

var _ repository.ConversationRepository = (*ConversationCache)(nil)

// ConversationCache keeps each user's live conversation under
// conversation:{user_id} with a lease that Save refreshes to the full TTL.
// A small side record under conversation_meta:{user_id} tracks activity
// without deserializing the whole blob.
type ConversationCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewConversationCache(client RedisClient, ttl time.Duration) *ConversationCache {
	return &ConversationCache{
		client: client,
		ttl:    ttl,
	}
}

func conversationKey(userID string) string { return "conversation:" + userID }
func metaKey(userID string) string         { return "conversation_meta:" + userID }

func (c *ConversationCache) Find(ctx context.Context, userID string) (*model.Conversation, error) {
	data, err := c.client.Get(ctx, conversationKey(userID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.IncSessionCache("redis", "miss")
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get conversation: %v", domain.ErrSessionUnavailable, err)
	}
	metrics.IncSessionCache("redis", "hit")

	var conv model.Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", userID, err)
	}
	return &conv, nil
}

func (c *ConversationCache) Save(ctx context.Context, conv *model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation %s: %w", conv.UserID, err)
	}
	if err := c.client.Set(ctx, conversationKey(conv.UserID), data, c.ttl); err != nil {
		return fmt.Errorf("%w: set conversation: %v", domain.ErrSessionUnavailable, err)
	}

	meta := repository.ConversationMeta{
		ConversationID: conv.ID,
		LastActivity:   conv.UpdatedAt,
		MessageCount:   len(conv.Messages),
	}
	md, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode conversation meta %s: %w", conv.UserID, err)
	}
	if err := c.client.Set(ctx, metaKey(conv.UserID), md, c.ttl); err != nil {
		return fmt.Errorf("%w: set conversation meta: %v", domain.ErrSessionUnavailable, err)
	}
	return nil
}

func (c *ConversationCache) ExtendTTL(ctx context.Context, userID string) error {
	if err := c.client.Expire(ctx, conversationKey(userID), c.ttl); err != nil {
		return fmt.Errorf("%w: extend conversation: %v", domain.ErrSessionUnavailable, err)
	}
	return c.client.Expire(ctx, metaKey(userID), c.ttl)
}

func (c *ConversationCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, conversationKey(userID), metaKey(userID)); err != nil {
		return fmt.Errorf("%w: delete conversation: %v", domain.ErrSessionUnavailable, err)
	}
	return nil
}

func (c *ConversationCache) Meta(ctx context.Context, userID string) (*repository.ConversationMeta, error) {
	data, err := c.client.Get(ctx, metaKey(userID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get conversation meta: %v", domain.ErrSessionUnavailable, err)
	}
	var meta repository.ConversationMeta
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, fmt.Errorf("decode conversation meta %s: %w", userID, err)
	}
	return &meta, nil
}
