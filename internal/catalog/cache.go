package catalog

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps rendered catalog payloads in Redis so listing the shop does
// not hit Postgres on every page view. A nil Cache (or one without a client)
// degrades to pass-through reads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps the Redis client with the catalog TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON loads a cached payload into dst, reporting whether the key was
// present. Decode failures are surfaced so a schema change falls through to
// the database instead of serving a stale shape.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == redis.Nil:
		return false, nil
	case err != nil:
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key for the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Invalidate drops the given keys. Missing keys are not an error.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Generation reads the current value of an invalidation counter. Keys built
// from paginated queries embed this value, so bumping the counter retires
// every derived page at once without tracking individual keys.
func (c *Cache) Generation(ctx context.Context, key string) string {
	if c == nil || c.client == nil || key == "" {
		return "0"
	}
	raw, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		return "0"
	}
	return strconv.FormatInt(raw, 10)
}

// Bump advances an invalidation counter.
func (c *Cache) Bump(ctx context.Context, key string) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	return c.client.Incr(ctx, key).Err()
}
