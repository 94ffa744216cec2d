package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore keeps session mappings in Redis with TTL, so they survive
// process restarts and are shared across replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(addr, password string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// Link records sessionID -> conversationID with the store's TTL.
func (s *RedisStore) Link(ctx context.Context, sessionID, conversationID string) error {
	if err := s.client.Set(ctx, keyPrefix+sessionID, conversationID, s.ttl).Err(); err != nil {
		return fmt.Errorf("sessions: redis set: %w", err)
	}
	return nil
}

// Resolve returns the conversation linked to the session, if any.
func (s *RedisStore) Resolve(ctx context.Context, sessionID string) (string, bool, error) {
	val, err := s.client.Get(ctx, keyPrefix+sessionID).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sessions: redis get: %w", err)
	}
	return val, true, nil
}

// Forget removes the session mapping.
func (s *RedisStore) Forget(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("sessions: redis del: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
