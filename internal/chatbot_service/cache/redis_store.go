package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore persists the snapshot as a single JSON value under one key.
// It is a drop-in alternative to FileStore for deployments where the
// service has no durable disk.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore creates a RedisStore using the given client and key.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

// Load reads the snapshot from Redis. A missing key returns an empty
// snapshot, mirroring FileStore's missing-file behavior.
func (s *RedisStore) Load() (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return &Snapshot{}, nil
		}
		return nil, fmt.Errorf("failed to read cache from redis: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode cache from redis: %w", err)
	}
	return &snap, nil
}

// Save rewrites the whole snapshot value. No expiry: the cache has no TTL.
func (s *RedisStore) Save(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode cache snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write cache to redis: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
