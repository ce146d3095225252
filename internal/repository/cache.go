package repository

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"stock-service/internal/models"
)

// Cache TTL constants
const (
	ItemListCacheTTL = 2 * time.Minute
)

const itemListKeyPrefix = "stock:items:list:"

// itemListCache stores listing pages in redis. A nil cache is a no-op.
type itemListCache struct {
	redis  *redis.Client
	logger *logrus.Entry
}

type cachedItemPage struct {
	Items []models.Item `json:"items"`
	Total int64         `json:"total"`
}

func newItemListCache(client *redis.Client, logger *logrus.Logger) *itemListCache {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &itemListCache{redis: client, logger: logger.WithField("component", "item-cache")}
}

// generateItemListCacheKey hashes the filter so every distinct listing gets its own key.
func generateItemListCacheKey(filter models.ItemFilter) string {
	raw, _ := json.Marshal(filter)
	sum := sha1.Sum(raw)
	return itemListKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *itemListCache) get(ctx context.Context, filter models.ItemFilter) ([]models.Item, int64, bool) {
	if c == nil {
		return nil, 0, false
	}
	raw, err := c.redis.Get(ctx, generateItemListCacheKey(filter)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).Warn("item list cache read failed")
		}
		return nil, 0, false
	}
	var page cachedItemPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, 0, false
	}
	return page.Items, page.Total, true
}

func (c *itemListCache) set(ctx context.Context, filter models.ItemFilter, items []models.Item, total int64) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(cachedItemPage{Items: items, Total: total})
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, generateItemListCacheKey(filter), raw, ItemListCacheTTL).Err(); err != nil {
		c.logger.WithError(err).Warn("item list cache write failed")
	}
}

// invalidate drops every cached listing page.
func (c *itemListCache) invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	iter := c.redis.Scan(ctx, 0, itemListKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WithError(err).Warn("item list cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithError(err).WithField("keys", len(keys)).Warn("item list cache invalidation failed")
	}
}
