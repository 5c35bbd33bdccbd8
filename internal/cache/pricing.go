package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ovenline/production-api/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PriceCache stores resolved merchant prices in Redis. Read errors count as
// misses so a Redis outage only costs a database lookup.
type PriceCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewPriceCache creates a PriceCache whose entries expire after ttl.
func NewPriceCache(rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *PriceCache {
	return &PriceCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Key is the Redis key for a merchant/recipe price.
func Key(merchantID, recipeID uuid.UUID) string {
	return fmt.Sprintf("pricing:merchant:%s:recipe:%s", merchantID, recipeID)
}

func (c *PriceCache) Get(ctx context.Context, merchantID, recipeID uuid.UUID) (service.ResolvedPrice, bool) {
	raw, err := c.rdb.Get(ctx, Key(merchantID, recipeID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("price cache read failed", zap.Error(err))
		}
		return service.ResolvedPrice{}, false
	}
	var p service.ResolvedPrice
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Warn("price cache entry corrupt", zap.String("key", Key(merchantID, recipeID)), zap.Error(err))
		return service.ResolvedPrice{}, false
	}
	return p, true
}

func (c *PriceCache) Set(ctx context.Context, merchantID, recipeID uuid.UUID, p service.ResolvedPrice) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, Key(merchantID, recipeID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("price cache write failed", zap.Error(err))
	}
}

func (c *PriceCache) Invalidate(ctx context.Context, merchantID, recipeID uuid.UUID) error {
	if err := c.rdb.Del(ctx, Key(merchantID, recipeID)).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", Key(merchantID, recipeID), err)
	}
	return nil
}

// NewClient parses a redis:// URL into a client.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
