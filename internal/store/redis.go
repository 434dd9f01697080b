package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"travel-companion/internal/models"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisStore persists preference records as JSON values in Redis.
// Records have no TTL; retention is an external policy decision.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// GetOrCreate relies on SETNX for create atomicity: when two callers race on
// the same id, exactly one write wins and both observe the winner's record.
func (s *RedisStore) GetOrCreate(ctx context.Context, sessionID, userID string) (*models.PreferenceRecord, error) {
	record := models.NewPreferenceRecord(sessionID, userID)
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	created, err := s.client.SetNX(ctx, sessionKey(sessionID), data, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if created {
		return record, nil
	}

	return s.Get(ctx, sessionID)
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.PreferenceRecord, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var record models.PreferenceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	record.NormalizeSlots()
	return &record, nil
}

func (s *RedisStore) Save(ctx context.Context, record *models.PreferenceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(record.SessionID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
