package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps the latest snapshot per client in Redis so dashboard
// reads skip the database. Misses simply fall through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func latestKey(tenantID, clientID int64) string {
	return fmt.Sprintf("score:latest:%d:%d", tenantID, clientID)
}

// Latest returns the cached snapshot when present.
func (c *Cache) Latest(ctx context.Context, tenantID, clientID int64) (Snapshot, bool) {
	if c == nil || c.client == nil {
		return Snapshot{}, false
	}
	payload, err := c.client.Get(ctx, latestKey(tenantID, clientID)).Bytes()
	if err != nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, false
	}
	return snap, true
}

// SetLatest replaces the cached snapshot for a client.
func (c *Cache) SetLatest(ctx context.Context, snap Snapshot) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, latestKey(snap.TenantID, snap.ClientID), raw, c.ttl).Err()
}

// Invalidate drops the cached snapshot for a client.
func (c *Cache) Invalidate(ctx context.Context, tenantID, clientID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, latestKey(tenantID, clientID)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
