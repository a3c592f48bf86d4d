// Package cache provides the Redis-backed caches of the back office.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/feastline/backoffice/internal/domain/catalog"
)

const dishKeyPrefix = "dish:category:"

var _ catalog.DishListCache = (*DishCache)(nil)

// DishCache caches the per-category dish listing in Redis as JSON.
type DishCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDishCache pings Redis to verify the connection and returns the cache.
func NewDishCache(ctx context.Context, client *redis.Client, ttl time.Duration) (*DishCache, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	return &DishCache{client: client, ttl: ttl}, nil
}

// Get returns the cached listing for a category. The second result is false
// on a miss.
func (c *DishCache) Get(ctx context.Context, categoryID int64) ([]catalog.DishWithFlavors, bool, error) {
	raw, err := c.client.Get(ctx, dishKey(categoryID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "get cached dishes")
	}

	var dishes []catalog.DishWithFlavors
	if err := json.Unmarshal(raw, &dishes); err != nil {
		return nil, false, errors.Wrap(err, "decode cached dishes")
	}
	return dishes, true, nil
}

// Set stores the listing for a category with the configured TTL.
func (c *DishCache) Set(ctx context.Context, categoryID int64, dishes []catalog.DishWithFlavors) error {
	raw, err := json.Marshal(dishes)
	if err != nil {
		return errors.Wrap(err, "encode dishes")
	}
	if err := c.client.Set(ctx, dishKey(categoryID), raw, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "set cached dishes")
	}
	return nil
}

// Invalidate drops the cached listings of the given categories.
func (c *DishCache) Invalidate(ctx context.Context, categoryIDs ...int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	keys := make([]string, len(categoryIDs))
	for i, id := range categoryIDs {
		keys[i] = dishKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "invalidate cached dishes")
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *DishCache) Close() error {
	return c.client.Close()
}

func dishKey(categoryID int64) string {
	return fmt.Sprintf("%s%d", dishKeyPrefix, categoryID)
}
