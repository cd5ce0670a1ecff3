package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned by Cache.Get when no summary is stored for a run.
var ErrCacheMiss = errors.New("run not cached")

// Cache stores serialized run summaries keyed by request ID.
type Cache interface {
	Set(ctx context.Context, requestID string, summary []byte, ttl time.Duration) error
	Get(ctx context.Context, requestID string) ([]byte, error)
}

// DefaultKeyPrefix namespaces run summaries in a shared Redis.
const DefaultKeyPrefix = "pipeline:"

// RedisCache keeps run summaries in Redis under prefix+requestID.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache stores summaries under DefaultKeyPrefix.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: DefaultKeyPrefix}
}

func (c *RedisCache) key(requestID string) string {
	return c.prefix + requestID
}

func (c *RedisCache) Set(ctx context.Context, requestID string, summary []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(requestID), summary, ttl).Err()
}

// Get reports a missing key as ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context, requestID string) ([]byte, error) {
	return missAsErrCacheMiss(c.client.Get(ctx, c.key(requestID)).Bytes())
}

func missAsErrCacheMiss(value []byte, err error) ([]byte, error) {
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return value, err
}

// NopCache stands in when no Redis address is configured. Every read misses.
type NopCache struct{}

func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NopCache) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }
