package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/voyagen/xtreamgate/internal/cache"
	"github.com/voyagen/xtreamgate/internal/models"
)

// Cache TTLs for different entity types.
const (
	ttlAccounts = 2 * time.Minute
	ttlAccount  = 5 * time.Minute
	ttlMappings = 1 * time.Minute
)

const (
	keyAccounts      = cache.KeyPrefix + "accounts:all"
	keyAccountPrefix = cache.KeyPrefix + "account:"
	keyMappingPrefix = cache.KeyPrefix + "mappings:"
)

// CachedStore wraps a Store with a Redis caching layer. Account and mapping
// reads sit on every proxied request; writes invalidate the affected keys.
type CachedStore struct {
	Store
	cache *cache.Redis
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis) *CachedStore {
	return &CachedStore{Store: inner, cache: c}
}

func cached[T any](ctx context.Context, c *cache.Redis, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if v, err := cache.Get[T](ctx, c, key); err == nil {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if err := cache.Set(ctx, c, key, v, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set")
	}
	return v, nil
}

func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidate")
	}
}

func (c *CachedStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return cached(ctx, c.cache, keyAccounts, ttlAccounts, func() ([]models.Account, error) {
		return c.Store.ListAccounts(ctx)
	})
}

func (c *CachedStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return cached(ctx, c.cache, keyAccountPrefix+normID(id), ttlAccount, func() (*models.Account, error) {
		return c.Store.GetAccount(ctx, id)
	})
}

func (c *CachedStore) CreateAccount(ctx context.Context, a *models.Account) error {
	if err := c.Store.CreateAccount(ctx, a); err != nil {
		return err
	}
	c.invalidate(ctx, keyAccounts, keyAccountPrefix+normID(a.ID))
	return nil
}

func (c *CachedStore) UpdateAccount(ctx context.Context, a *models.Account) (bool, error) {
	ok, err := c.Store.UpdateAccount(ctx, a)
	if err != nil {
		return ok, err
	}
	c.invalidate(ctx, keyAccounts, keyAccountPrefix+normID(a.ID))
	return ok, nil
}

func (c *CachedStore) DeleteAccount(ctx context.Context, id string) (bool, error) {
	ok, err := c.Store.DeleteAccount(ctx, id)
	if err != nil {
		return ok, err
	}
	c.invalidate(ctx, keyAccounts, keyAccountPrefix+normID(id), keyMappingPrefix+normID(id))
	return ok, nil
}

func (c *CachedStore) ListMappings(ctx context.Context, accountID string) ([]models.ChannelMapping, error) {
	return cached(ctx, c.cache, keyMappingPrefix+normID(accountID), ttlMappings, func() ([]models.ChannelMapping, error) {
		return c.Store.ListMappings(ctx, accountID)
	})
}

func (c *CachedStore) CreateMapping(ctx context.Context, m *models.ChannelMapping) error {
	if err := c.Store.CreateMapping(ctx, m); err != nil {
		return err
	}
	c.invalidate(ctx, keyMappingPrefix+normID(m.AccountID))
	return nil
}

func (c *CachedStore) UpdateMapping(ctx context.Context, m *models.ChannelMapping) (bool, error) {
	ok, err := c.Store.UpdateMapping(ctx, m)
	if err != nil {
		return ok, err
	}
	c.invalidate(ctx, keyMappingPrefix+normID(m.AccountID))
	return ok, nil
}

// DeleteMapping drops every cached mapping list since the owner is unknown
// without a lookup.
func (c *CachedStore) DeleteMapping(ctx context.Context, id string) (bool, error) {
	ok, err := c.Store.DeleteMapping(ctx, id)
	if err != nil {
		return ok, err
	}
	if err := cache.DelPattern(ctx, c.cache, keyMappingPrefix+"*"); err != nil {
		log.Warn().Err(err).Msg("cache invalidate mappings")
	}
	return ok, nil
}

func (c *CachedStore) DeleteAccountMappings(ctx context.Context, accountID string) (int, error) {
	n, err := c.Store.DeleteAccountMappings(ctx, accountID)
	if err != nil {
		return n, err
	}
	c.invalidate(ctx, keyMappingPrefix+normID(accountID))
	return n, nil
}
