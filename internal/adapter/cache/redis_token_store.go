package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lc-2025/freenotes/internal/repository"
)

// Keys are namespaced so unrelated cache usage cannot collide with live
// refresh tokens.
const keyPrefix = "refresh:"

// RedisTokenStore implements repository.TokenStore backed by Redis. All
// operations are single-key and rely on Redis atomicity; no client-side
// locking is needed under concurrent request handling.
type RedisTokenStore struct {
	client redis.UniversalClient
}

var _ repository.TokenStore = (*RedisTokenStore)(nil)

// NewRedisTokenStore constructs a Redis-backed refresh-token store.
func NewRedisTokenStore(client redis.UniversalClient) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

// Get resolves a live refresh token to its user ID. Absent keys (expired,
// rotated, or revoked tokens) return repository.ErrNotFound.
func (s *RedisTokenStore) Get(ctx context.Context, token string) (string, error) {
	value, err := s.client.Get(ctx, keyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	return value, nil
}

// Consume resolves and removes a live refresh token in one GETDEL round
// trip. Redis executes it atomically, so when two rotations race on the
// same token exactly one gets the value and the other gets ErrNotFound.
func (s *RedisTokenStore) Consume(ctx context.Context, token string) (string, error) {
	value, err := s.client.GetDel(ctx, keyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("consume refresh token: %w", err)
	}
	return value, nil
}

// Set records a refresh token with a TTL matching its validity window,
// overwriting any prior value for the same key.
func (s *RedisTokenStore) Set(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	return nil
}

// Delete revokes a refresh token. Deleting an absent key succeeds.
func (s *RedisTokenStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}
