// Package redis stores preferences in Redis with a sliding TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flexfit/storefront/internal/preference"
)

// KV implements preference.KV using Redis strings.
type KV struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis-backed KV. Every write refreshes the key's TTL; a zero
// ttl stores keys without expiry.
func New(client *redis.Client, ttl time.Duration) *KV {
	return &KV{client: client, ttl: ttl}
}

// Get returns preference.ErrNotFound for a missing key.
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := k.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, preference.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Set writes value with the configured TTL.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := k.client.Set(ctx, key, value, k.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys in one round trip.
func (k *KV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := k.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks connectivity for readiness checks.
func (k *KV) Ping(ctx context.Context) error {
	return k.client.Ping(ctx).Err()
}
