package profile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"harborlist.org/internal/obs"
)

const defaultCacheTTL = 30 * time.Second

var _ Store = (*CachedStore)(nil)

// CachedStore is a redis read-through decorator over a Store. Entries are
// short-lived and deleted on every write, so a stale read is bounded by the
// TTL; the evaluator tolerates that race by re-reading on the next request.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
}

// NewCachedStore wraps inner with a redis cache.
func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{inner: inner, client: client, ttl: ttl}
}

func cacheKey(userID string) string {
	return "profile:" + userID
}

func (c *CachedStore) Get(ctx context.Context, userID string) (*CustomerProfile, error) {
	raw, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	if err == nil {
		var p CustomerProfile
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		c.client.Del(ctx, cacheKey(userID))
	} else if !errors.Is(err, redis.Nil) {
		obs.LogError("profile cache read failed", map[string]any{"error": err.Error()})
	}

	p, err := c.inner.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, cacheKey(userID), data, c.ttl).Err(); err != nil {
			obs.LogError("profile cache write failed", map[string]any{"error": err.Error()})
		}
	}
	return p, nil
}

func (c *CachedStore) Create(ctx context.Context, p *CustomerProfile, passwordHash string) error {
	if err := c.inner.Create(ctx, p, passwordHash); err != nil {
		return err
	}
	c.invalidate(ctx, p.UserID)
	return nil
}

func (c *CachedStore) Update(ctx context.Context, userID string, upd Update) (*CustomerProfile, error) {
	p, err := c.inner.Update(ctx, userID, upd)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, userID)
	return p, nil
}

func (c *CachedStore) Delete(ctx context.Context, userID string) error {
	if err := c.inner.Delete(ctx, userID); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

func (c *CachedStore) ListSubAccounts(ctx context.Context, dealerID string) ([]*CustomerProfile, error) {
	return c.inner.ListSubAccounts(ctx, dealerID)
}

func (c *CachedStore) invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		obs.LogError("profile cache invalidation failed", map[string]any{
			"error":   err.Error(),
			"user_id": userID,
		})
	}
}
