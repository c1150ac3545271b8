package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/kalshibot/internal/adapters/cache"
	"github.com/alejandrodnm/kalshibot/internal/domain"
)

type countingResolver struct {
	ticker string
	err    error
	calls  int
}

func (r *countingResolver) ResolveTicker(context.Context, domain.GameState) (string, error) {
	r.calls++
	return r.ticker, r.err
}

func setup(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

var buf = domain.GameState{EventID: "401547001", Sport: domain.SportNFL}

func TestCachedResolver_ReadThrough(t *testing.T) {
	mr, rdb := setup(t)
	primary := &countingResolver{ticker: "KXNFL-BUF-KC"}
	c := cache.NewCachedResolver(primary, rdb, time.Hour)
	ctx := context.Background()

	got, err := c.ResolveTicker(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "KXNFL-BUF-KC", got)

	got, err = c.ResolveTicker(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "KXNFL-BUF-KC", got)
	assert.Equal(t, 1, primary.calls)

	val, err := mr.Get("kalshibot:ticker:nfl:401547001")
	require.NoError(t, err)
	assert.Equal(t, "KXNFL-BUF-KC", val)
	assert.Equal(t, time.Hour, mr.TTL("kalshibot:ticker:nfl:401547001"))
}

func TestCachedResolver_ExpiresAfterTTL(t *testing.T) {
	mr, rdb := setup(t)
	primary := &countingResolver{ticker: "KXNFL-BUF-KC"}
	c := cache.NewCachedResolver(primary, rdb, time.Hour)

	_, err := c.ResolveTicker(context.Background(), buf)
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)

	_, err = c.ResolveTicker(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, 2, primary.calls)
}

func TestCachedResolver_NegativeCaching(t *testing.T) {
	mr, rdb := setup(t)
	primary := &countingResolver{err: domain.ErrNoMarket}
	c := cache.NewCachedResolver(primary, rdb, time.Hour)
	ctx := context.Background()

	_, err := c.ResolveTicker(ctx, buf)
	assert.ErrorIs(t, err, domain.ErrNoMarket)
	_, err = c.ResolveTicker(ctx, buf)
	assert.ErrorIs(t, err, domain.ErrNoMarket)
	assert.Equal(t, 1, primary.calls)

	// misses live shorter than hits
	assert.Equal(t, 5*time.Minute, mr.TTL("kalshibot:ticker:nfl:401547001"))
}

func TestCachedResolver_UpstreamErrorNotCached(t *testing.T) {
	mr, rdb := setup(t)
	primary := &countingResolver{err: &domain.APIError{StatusCode: 503}}
	c := cache.NewCachedResolver(primary, rdb, time.Hour)

	_, err := c.ResolveTicker(context.Background(), buf)
	require.Error(t, err)
	assert.False(t, mr.Exists("kalshibot:ticker:nfl:401547001"))
}

func TestCachedResolver_RedisDownFallsBack(t *testing.T) {
	mr, rdb := setup(t)
	primary := &countingResolver{ticker: "KXNFL-BUF-KC"}
	c := cache.NewCachedResolver(primary, rdb, time.Hour)
	mr.Close()

	got, err := c.ResolveTicker(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, "KXNFL-BUF-KC", got)
}

func TestCachedResolver_Invalidate(t *testing.T) {
	mr, rdb := setup(t)
	primary := &countingResolver{ticker: "KXNFL-BUF-KC"}
	c := cache.NewCachedResolver(primary, rdb, time.Hour)
	ctx := context.Background()

	_, err := c.ResolveTicker(ctx, buf)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, buf))
	assert.False(t, mr.Exists("kalshibot:ticker:nfl:401547001"))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := cache.Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = rdb.Close()

	_, err = cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}
