package service

import (
	"context"
	"encoding/json"
	"time"

	"anoa.com/fitquest/internal/entity"
	"anoa.com/fitquest/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const catalogCacheKey = "achievements:catalog"

// CatalogCache holds the achievement catalog between reads. A miss is never an error.
type CatalogCache interface {
	Get(ctx context.Context) ([]entity.Achievement, bool)
	Set(ctx context.Context, catalog []entity.Achievement)
	Invalidate(ctx context.Context)
}

type redisCatalogCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCatalogCache returns a cache that does nothing when rdb is nil.
func NewRedisCatalogCache(rdb *redis.Client, ttl time.Duration) CatalogCache {
	return &redisCatalogCache{rdb: rdb, ttl: ttl}
}

func (c *redisCatalogCache) Get(ctx context.Context) ([]entity.Achievement, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, catalogCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var catalog []entity.Achievement
	if err := json.Unmarshal(raw, &catalog); err != nil {
		logger.Logger.Warn("catalog_cache_decode_failed", zap.Error(err))
		return nil, false
	}
	return catalog, true
}

func (c *redisCatalogCache) Set(ctx context.Context, catalog []entity.Achievement) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(catalog)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, catalogCacheKey, raw, c.ttl).Err(); err != nil {
		logger.Logger.Warn("catalog_cache_set_failed", zap.Error(err))
	}
}

func (c *redisCatalogCache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, catalogCacheKey).Err(); err != nil {
		logger.Logger.Warn("catalog_cache_invalidate_failed", zap.Error(err))
	}
}
