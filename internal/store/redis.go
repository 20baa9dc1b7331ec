package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"smartchat-backend/internal/models"
)

const conversationKeyPrefix = "chat:conversation:"

// RedisStore persists each conversation as a JSON array under a per-session
// key with a TTL that is refreshed on every write. Individual operations are
// read-modify-write; callers that need a single writer per session (the chat
// service) serialize above this layer.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(sessionID uuid.UUID) string {
	return conversationKeyPrefix + sessionID.String()
}

func (s *RedisStore) load(ctx context.Context, sessionID uuid.UUID) ([]models.Turn, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionUnavailable, err)
	}

	var turns []models.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		// A corrupt blob is unrecoverable; treat it as an empty conversation
		// rather than locking the session out permanently.
		return []models.Turn{}, nil
	}
	return turns, nil
}

func (s *RedisStore) save(ctx context.Context, sessionID uuid.UUID, turns []models.Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshaling conversation: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID uuid.UUID) ([]models.Turn, error) {
	return s.load(ctx, sessionID)
}

func (s *RedisStore) Append(ctx context.Context, sessionID uuid.UUID, turn models.Turn) error {
	turns, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.save(ctx, sessionID, append(turns, turn))
}

func (s *RedisStore) TruncateAfterEditedUser(ctx context.Context, sessionID uuid.UUID, newContent string) (models.Turn, error) {
	turns, err := s.load(ctx, sessionID)
	if err != nil {
		return models.Turn{}, err
	}

	truncated, edited, ok := truncateAfterEditedUser(turns, newContent)
	if !ok {
		return models.Turn{}, ErrNoUserTurn
	}

	if err := s.save(ctx, sessionID, truncated); err != nil {
		return models.Turn{}, err
	}
	return edited, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionUnavailable, err)
	}
	return nil
}
