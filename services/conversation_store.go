package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ConversationStore holds the live chat context per user. Keeping it out of
// process memory means any worker process can continue a conversation.
type ConversationStore interface {
	History(ctx context.Context, userID uuid.UUID) ([]ChatMessage, error)
	Append(ctx context.Context, userID uuid.UUID, messages ...ChatMessage) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// RedisConversationStore stores each message as a JSON entry in a per-user
// redis list with a sliding TTL.
type RedisConversationStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisConversationStore(client *redis.Client) *RedisConversationStore {
	return &RedisConversationStore{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (s *RedisConversationStore) key(userID uuid.UUID) string {
	return fmt.Sprintf("conversation:%s", userID)
}

func (s *RedisConversationStore) History(ctx context.Context, userID uuid.UUID) ([]ChatMessage, error) {
	entries, err := s.client.LRange(ctx, s.key(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var msg ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *RedisConversationStore) Append(ctx context.Context, userID uuid.UUID, messages ...ChatMessage) error {
	key := s.key(userID)
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if err := s.client.RPush(ctx, key, data).Err(); err != nil {
			return err
		}
	}
	return s.client.Expire(ctx, key, s.ttl).Err()
}

func (s *RedisConversationStore) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}
