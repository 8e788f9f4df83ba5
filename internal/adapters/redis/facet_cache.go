package redis_adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"storefront-service/internal/contextkeys"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultReferenceTTL = 5 * time.Minute
	keyPrefix           = "storefront:facets:"
)

// ErrCacheMiss - ключа нет в кэше.
var ErrCacheMiss = errors.New("cache miss")

// Store - хранилище байтов с TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore реализует Store поверх go-redis.
type RedisStore struct {
	client *goredis.Client
}

func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// CachedFacetCatalog - декоратор FacetCatalogPort: справочники читаются из Redis,
// при промахе - из внешнего API с записью в кэш. Ошибки кэша не ломают запрос.
type CachedFacetCatalog struct {
	next  port.FacetCatalogPort
	store Store
	ttl   time.Duration
}

var _ port.FacetCatalogPort = (*CachedFacetCatalog)(nil)

func NewCachedFacetCatalog(next port.FacetCatalogPort, store Store, ttl time.Duration) *CachedFacetCatalog {
	if ttl <= 0 {
		ttl = DefaultReferenceTTL
	}
	return &CachedFacetCatalog{next: next, store: store, ttl: ttl}
}

func (c *CachedFacetCatalog) ListCategories(ctx context.Context) ([]domain.FacetItem, error) {
	return c.cached(ctx, keyPrefix+"categories", c.next.ListCategories)
}

func (c *CachedFacetCatalog) ListLocations(ctx context.Context) ([]domain.FacetItem, error) {
	return c.cached(ctx, keyPrefix+"locations", c.next.ListLocations)
}

func (c *CachedFacetCatalog) ListSubCategories(ctx context.Context, categoryID int) ([]domain.FacetItem, error) {
	return c.cached(ctx, fmt.Sprintf("%ssubcategories:%d", keyPrefix, categoryID), func(ctx context.Context) ([]domain.FacetItem, error) {
		return c.next.ListSubCategories(ctx, categoryID)
	})
}

func (c *CachedFacetCatalog) ListSubLocations(ctx context.Context, locationID int) ([]domain.FacetItem, error) {
	return c.cached(ctx, fmt.Sprintf("%ssublocations:%d", keyPrefix, locationID), func(ctx context.Context) ([]domain.FacetItem, error) {
		return c.next.ListSubLocations(ctx, locationID)
	})
}

func (c *CachedFacetCatalog) cached(ctx context.Context, key string, load func(context.Context) ([]domain.FacetItem, error)) ([]domain.FacetItem, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "CachedFacetCatalog",
		"cache_key": key,
	})

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var items []domain.FacetItem
		if err := json.Unmarshal(raw, &items); err == nil {
			logger.Debug("Cache hit", nil)
			return items, nil
		}
		logger.Warn("Corrupted cache entry, reloading", nil)
	case errors.Is(err, ErrCacheMiss):
		logger.Debug("Cache miss", nil)
	default:
		logger.Warn("Cache read failed", port.Fields{"error": err.Error()})
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(items)
	if err == nil {
		err = c.store.Set(ctx, key, payload, c.ttl)
	}
	if err != nil {
		logger.Warn("Cache write failed", port.Fields{"error": err.Error()})
	}
	return items, nil
}
