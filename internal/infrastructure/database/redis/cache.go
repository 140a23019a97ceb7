package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

// Cache is a JSON view cache over Redis.  Values are namespaced under the
// configured prefix; concurrent loads of the same key are collapsed through
// singleflight.
type Cache struct {
	client     *Client
	prefix     string
	defaultTTL time.Duration
	logger     logging.Logger
	group      singleflight.Group
}

// NewCache wires a cache over an established client.
func NewCache(client *Client, prefix string, defaultTTL time.Duration, logger logging.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	if prefix == "" {
		prefix = "vendoriq"
	}
	return &Cache{
		client:     client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
		logger:     logger.Named("cache"),
	}
}

func (c *Cache) key(k string) string {
	return c.prefix + ":" + k
}

// Get loads a key into dest.  The bool reports a hit; a miss is not an
// error.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "cache get failed")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode cached value")
	}
	return true, nil
}

// Set stores a value as JSON.  A non-positive ttl uses the default.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode cache value")
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Redis().Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache set failed")
	}
	return nil
}

// Delete removes keys.  Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = c.key(k)
	}
	if err := c.client.Redis().Del(ctx, namespaced...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache delete failed")
	}
	return nil
}

// GetOrSet returns the cached value or runs loader once per key across
// concurrent callers, caching its result.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest any, ttl time.Duration, loader func(ctx context.Context) (any, error)) error {
	if hit, err := c.Get(ctx, key, dest); err == nil && hit {
		return nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		return loader(ctx)
	})
	if err != nil {
		return err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		c.logger.Warn("failed to populate cache", logging.String("key", key), logging.Err(err))
	}

	// Round-trip through JSON so dest is filled regardless of loader type.
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode loaded value")
	}
	return json.Unmarshal(raw, dest)
}
