// Package cache adds a Redis read-through layer in front of market resolution
// so restarts and parallel processes share event→ticker lookups.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

const (
	DefaultTTL = 6 * time.Hour
	keyPrefix  = "kalshibot:ticker:"
	// noMarket marks a negative lookup, cached for a shorter time.
	noMarket = "-"
)

// CachedResolver wraps a MarketResolver with a Redis read-through cache.
// Redis failures degrade to the primary resolver.
type CachedResolver struct {
	primary ports.MarketResolver
	rdb     *redis.Client
	ttl     time.Duration
	missTTL time.Duration
}

var _ ports.MarketResolver = (*CachedResolver)(nil)

// NewCachedResolver creates the cached wrapper. ttl <= 0 uses DefaultTTL.
func NewCachedResolver(primary ports.MarketResolver, rdb *redis.Client, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	missTTL := ttl / 12
	if missTTL < time.Minute {
		missTTL = time.Minute
	}
	return &CachedResolver{primary: primary, rdb: rdb, ttl: ttl, missTTL: missTTL}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache.Connect: parse url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache.Connect: ping: %w", err)
	}
	return rdb, nil
}

// ResolveTicker checks Redis first, then the primary resolver.
func (c *CachedResolver) ResolveTicker(ctx context.Context, game domain.GameState) (string, error) {
	key := tickerKey(game)

	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil && val == noMarket:
		return "", domain.ErrNoMarket
	case err == nil:
		return val, nil
	case !errors.Is(err, redis.Nil):
		slog.Debug("cache: redis get failed", "key", key, "err", err)
	}

	ticker, err := c.primary.ResolveTicker(ctx, game)
	if err != nil {
		if errors.Is(err, domain.ErrNoMarket) {
			c.set(ctx, key, noMarket, c.missTTL)
		}
		return "", err
	}
	c.set(ctx, key, ticker, c.ttl)
	return ticker, nil
}

// Invalidate drops the cached ticker of a game.
func (c *CachedResolver) Invalidate(ctx context.Context, game domain.GameState) error {
	if err := c.rdb.Del(ctx, tickerKey(game)).Err(); err != nil {
		return fmt.Errorf("cache.Invalidate: %w", err)
	}
	return nil
}

func (c *CachedResolver) set(ctx context.Context, key, val string, ttl time.Duration) {
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		slog.Debug("cache: redis set failed", "key", key, "err", err)
	}
}

func tickerKey(game domain.GameState) string {
	return keyPrefix + string(game.Sport) + ":" + game.EventID
}
