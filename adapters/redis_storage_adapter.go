package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStorageAdapter stores values in Redis, letting several processes
// (e.g. game server replicas) share one session counter.
type RedisStorageAdapter struct {
	client redis.UniversalClient
	prefix string
}

// Ensure RedisStorageAdapter implements KeyValueStore interface
var _ KeyValueStore = (*RedisStorageAdapter)(nil)

// NewRedisStorageAdapter creates a store backed by the Redis server at addr.
// Keys are namespaced with prefix (may be empty).
func NewRedisStorageAdapter(addr, password string, db int, prefix string) *RedisStorageAdapter {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStorageAdapterFromClient(rdb, prefix)
}

// NewRedisStorageAdapterFromClient wraps an existing client.
func NewRedisStorageAdapterFromClient(client redis.UniversalClient, prefix string) *RedisStorageAdapter {
	return &RedisStorageAdapter{client: client, prefix: prefix}
}

// GetInt reads key; redis.Nil maps to ok=false.
func (r *RedisStorageAdapter) GetInt(ctx context.Context, key string) (int, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// SetInt writes key without expiry.
func (r *RedisStorageAdapter) SetInt(ctx context.Context, key string, value int) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisStorageAdapter) Close() error {
	return r.client.Close()
}
