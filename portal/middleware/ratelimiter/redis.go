package ratelimiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

var _ Backend = (*RedisBackend)(nil)

// RedisBackend stores entries as JSON strings. Each key expires on its own
// at ResetTime, so the sweep usually finds nothing to do.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(addr string) *RedisBackend {
	return NewRedisBackendWithClient(redis.NewClient(&redis.Options{
		Addr: addr,
	}))
}

func NewRedisBackendWithClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (rb *RedisBackend) Ping(ctx context.Context) error {
	return rb.client.Ping(ctx).Err()
}

func (rb *RedisBackend) Get(ctx context.Context, key string) (*Entry, error) {
	result, err := rb.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(result), &entry); err != nil {
		return nil, fmt.Errorf("decode entry %s: %w", key, err)
	}
	return &entry, nil
}

var _ ExpiringBackend = (*RedisBackend)(nil)

// Set stores entry with a TTL measured against the wall clock.
func (rb *RedisBackend) Set(ctx context.Context, key string, entry *Entry) error {
	return rb.SetWithTTL(ctx, key, entry, time.Until(entry.ResetTime))
}

// SetWithTTL stores entry and lets Redis drop it after ttl. A ttl that has
// already run out keeps the key for one second so the sweep still sees it.
func (rb *RedisBackend) SetWithTTL(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if ttl <= 0 {
		ttl = time.Second
	}
	return rb.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err()
}

func (rb *RedisBackend) Delete(ctx context.Context, key string) error {
	return rb.client.Del(ctx, redisKeyPrefix+key).Err()
}

func (rb *RedisBackend) List(ctx context.Context) (map[string]*Entry, error) {
	keys, err := rb.keys(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*Entry, len(keys))
	for _, key := range keys {
		val, err := rb.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SCAN and GET
			continue
		}
		if err != nil {
			return nil, err
		}

		var entry Entry
		if err := json.Unmarshal([]byte(val), &entry); err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", key, err)
		}
		result[strings.TrimPrefix(key, redisKeyPrefix)] = &entry
	}

	return result, nil
}

func (rb *RedisBackend) Clear(ctx context.Context) error {
	keys, err := rb.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rb.client.Del(ctx, keys...).Err()
}

func (rb *RedisBackend) Close() error {
	return rb.client.Close()
}

func (rb *RedisBackend) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := rb.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}
