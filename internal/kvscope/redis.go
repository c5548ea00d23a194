package kvscope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "scope:"

// RedisStore keeps scopes in Redis so they survive restarts and are shared by replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	ttl = clampTTL(ttl)
	return &RedisStore{client: client, ttl: ttl}
}

// Scope returns the scope for callerID.
func (s *RedisStore) Scope(callerID string) Scope {
	return &redisScope{store: s, callerID: callerID}
}

type redisScope struct {
	store    *RedisStore
	callerID string
}

func (r *redisScope) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.store.client.Get(ctx, redisPrefix+namespaced(r.callerID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return b, true, nil
}

func (r *redisScope) Set(ctx context.Context, key string, value []byte) error {
	if err := r.store.client.Set(ctx, redisPrefix+namespaced(r.callerID, key), value, r.store.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
