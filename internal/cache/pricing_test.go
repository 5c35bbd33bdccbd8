package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ovenline/production-api/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func priceFixture() service.ResolvedPrice {
	return service.ResolvedPrice{
		UnitPrice: decimal.RequireFromString("3.50"),
		Tier:      "volume",
		BaseCost:  decimal.RequireFromString("1.20"),
	}
}

func TestKey(t *testing.T) {
	m := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	r := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	want := "pricing:merchant:11111111-1111-1111-1111-111111111111:recipe:22222222-2222-2222-2222-222222222222"
	if got := Key(m, r); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPriceCache_UnreachableRedisIsAMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	c := NewPriceCache(rdb, time.Hour, zap.NewNop())
	ctx := context.Background()
	m, r := uuid.New(), uuid.New()

	if _, ok := c.Get(ctx, m, r); ok {
		t.Error("expected miss")
	}
	c.Set(ctx, m, r, priceFixture())
	if err := c.Invalidate(ctx, m, r); err == nil {
		t.Error("expected invalidate error when redis is down")
	}
}

func TestNewClient_BadURL(t *testing.T) {
	if _, err := NewClient("not a url"); err == nil {
		t.Error("expected parse error")
	}
}
