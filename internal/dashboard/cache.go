package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps rendered overviews in Redis for a short TTL so the
// landing screen does not hammer Postgres on every page load.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func overviewKey(tenantID int64) string {
	return fmt.Sprintf("dashboard:overview:%d", tenantID)
}

// FetchOverview loads a cached overview or populates it via the loader.
func (c *Cache) FetchOverview(ctx context.Context, tenantID int64, loader func(context.Context) (*Overview, error)) (*Overview, error) {
	if loader == nil {
		return nil, errors.New("dashboard: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	key := overviewKey(tenantID)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var ov Overview
		if err := json.Unmarshal(payload, &ov); err == nil {
			return &ov, nil
		}
		// Corrupt entry, rebuild below.
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	ov, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(ov)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return nil, err
	}
	return ov, nil
}

// Invalidate drops the cached overview, called after bulk changes.
func (c *Cache) Invalidate(ctx context.Context, tenantID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, overviewKey(tenantID)).Err()
}
