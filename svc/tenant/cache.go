package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds resolved tenants keyed by id.
type Cache interface {
	Get(ctx context.Context, id string) (*Tenant, bool)
	Set(ctx context.Context, t *Tenant, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// NoOpCache disables caching.
type NoOpCache struct{}

// Get always misses.
func (NoOpCache) Get(context.Context, string) (*Tenant, bool)       { return nil, false }
func (NoOpCache) Set(context.Context, *Tenant, time.Duration) error { return nil }
func (NoOpCache) Delete(context.Context, string) error              { return nil }

const redisKeyPrefix = "chatblast:tenant:"

// RedisCache stores tenants as JSON documents.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache returns a Cache storing JSON-encoded tenants under
// "chatblast:tenant:<id>".
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get treats any redis failure as a miss.
func (c *RedisCache) Get(ctx context.Context, id string) (*Tenant, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		return nil, false
	}

	var t Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, false
	}
	return &t, true
}

// Set stores t for ttl.
func (c *RedisCache) Set(ctx context.Context, t *Tenant, ttl time.Duration) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKeyPrefix+t.ID, data, ttl).Err()
}

// Delete drops the cached tenant.
func (c *RedisCache) Delete(ctx context.Context, id string) error {
	err := c.client.Del(ctx, redisKeyPrefix+id).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
