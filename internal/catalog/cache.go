package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/clinicware/staffing/internal/shared/metrics"
	"github.com/clinicware/staffing/internal/shared/types"
)

const (
	cacheKeyCatalog = "staffing:catalog:indicators"
	cacheTTL        = 10 * time.Minute
)

// CachedCatalog is a read-through cache in front of the catalog repository.
// The catalog is static reference data read on every classification, so cache
// misses are rare after warm-up and staleness is bounded by the TTL.
type CachedCatalog struct {
	inner  Catalog
	client *redis.Client
	log    *zap.Logger
}

// NewCachedCatalog wraps a catalog with a Redis read-through cache
func NewCachedCatalog(inner Catalog, client *redis.Client, log *zap.Logger) *CachedCatalog {
	return &CachedCatalog{inner: inner, client: client, log: log}
}

// ListIndicators returns the full catalog, from cache when possible.
func (c *CachedCatalog) ListIndicators(ctx context.Context) ([]Indicator, error) {
	raw, err := c.client.Get(ctx, cacheKeyCatalog).Bytes()
	if err == nil {
		var indicators []Indicator
		if err := json.Unmarshal(raw, &indicators); err == nil {
			metrics.RecordCatalogCacheLookup(true)
			return indicators, nil
		}
		// Corrupt entry, fall through to the repository.
		c.log.Warn("dropping corrupt catalog cache entry")
	}
	metrics.RecordCatalogCacheLookup(false)

	indicators, err := c.inner.ListIndicators(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(indicators); err == nil {
		if err := c.client.Set(ctx, cacheKeyCatalog, raw, cacheTTL).Err(); err != nil {
			c.log.Warn("failed to cache catalog", zap.Error(err))
		}
	}
	return indicators, nil
}

// GetIndicator resolves a single indicator through the cached full catalog.
func (c *CachedCatalog) GetIndicator(ctx context.Context, id types.ID) (*Indicator, error) {
	indicators, err := c.ListIndicators(ctx)
	if err != nil {
		return c.inner.GetIndicator(ctx, id)
	}
	for i := range indicators {
		if indicators[i].ID == id {
			return &indicators[i], nil
		}
	}
	return c.inner.GetIndicator(ctx, id)
}

// Invalidate drops the cached catalog, used after seeding.
func (c *CachedCatalog) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, cacheKeyCatalog).Err(); err != nil {
		c.log.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}

var _ Catalog = (*CachedCatalog)(nil)
