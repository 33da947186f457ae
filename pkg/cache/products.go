package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.connectwisedev.com/pos-service/models"
)

// productsVersionKey holds a counter that is part of every listing key.
// Bumping it orphans all cached pages at once; orphans expire by TTL.
const productsVersionKey = "products:version"

// ProductListCache caches product listing pages in Redis. Redis errors are
// logged and reported as misses so listings fall back to the database.
type ProductListCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewProductListCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ProductListCache {
	return &ProductListCache{client: client, ttl: ttl, logger: logger}
}

func (c *ProductListCache) version(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, productsVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to read %s: %w", productsVersionKey, err)
	}
	return version, nil
}

func pageKey(version int64, page, limit int, search string) string {
	return fmt.Sprintf("products:v%d:p%d:l%d:s%s", version, page, limit, strings.ToLower(search))
}

// GetProducts looks the page up under the current version and returns that
// version, or -1 when it could not be read. Pass it back to SetProducts so a
// page read from the store is filed under the version seen before the read.
func (c *ProductListCache) GetProducts(ctx context.Context, page, limit int, search string) (models.Page[models.Product], int64, bool) {
	version, err := c.version(ctx)
	if err != nil {
		c.logger.Warn("product_cache_unavailable", "error", err)
		return models.Page[models.Product]{}, -1, false
	}

	key := pageKey(version, page, limit, search)
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Page[models.Product]{}, version, false
	}
	if err != nil {
		c.logger.Warn("product_cache_get_failed", "key", key, "error", err)
		return models.Page[models.Product]{}, version, false
	}

	var p models.Page[models.Product]
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Warn("product_cache_corrupt_entry", "key", key, "error", err)
		return models.Page[models.Product]{}, version, false
	}
	return p, version, true
}

// SetProducts stores p under version. A negative version is ignored.
func (c *ProductListCache) SetProducts(ctx context.Context, version int64, page, limit int, search string, p models.Page[models.Product]) {
	if version < 0 {
		return
	}
	key := pageKey(version, page, limit, search)
	payload, err := json.Marshal(p)
	if err != nil {
		c.logger.Warn("product_cache_marshal_failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("product_cache_set_failed", "key", key, "error", err)
	}
}

func (c *ProductListCache) InvalidateProducts(ctx context.Context) {
	if err := c.client.Incr(ctx, productsVersionKey).Err(); err != nil {
		c.logger.Warn("product_cache_invalidate_failed", "error", err)
	}
}
