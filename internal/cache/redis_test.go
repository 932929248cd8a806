package cache_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/tinderito/internal/cache"
	"github.com/oggyb/tinderito/internal/config"
)

func newCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestLikeCountRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	_, ok, err := c.GetLikeCount(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetLikeCount(ctx, 42, 7))
	n, ok, err := c.GetLikeCount(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, cache.LikeCountTTL, mr.TTL("likes:count:42"))
}

func TestLikeCountExpiresAndInvalidates(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	require.NoError(t, c.SetLikeCount(ctx, 1, 3))
	require.NoError(t, c.SetLikeCount(ctx, 2, 4))

	mr.FastForward(cache.LikeCountTTL + 1)
	_, ok, err := c.GetLikeCount(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetLikeCount(ctx, 1, 3))
	require.NoError(t, c.InvalidateLikeCount(ctx, 1, 2))
	assert.False(t, mr.Exists("likes:count:1"))
	assert.False(t, mr.Exists("likes:count:2"))
}

func TestGarbageCountIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	require.NoError(t, mr.Set("likes:count:5", "not-a-number"))
	_, ok, err := c.GetLikeCount(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaleLikeCountIsNotWrittenBack(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	version, err := c.LikeCountVersion(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	// a react lands between the DB count and the cache write
	require.NoError(t, c.InvalidateLikeCount(ctx, 7))

	stored, err := c.SetLikeCountIfVersion(ctx, 7, 3, version)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists("likes:count:7"))

	version, err = c.LikeCountVersion(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	stored, err = c.SetLikeCountIfVersion(ctx, 7, 4, version)
	require.NoError(t, err)
	assert.True(t, stored)

	n, ok, err := c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, cache.LikeCountTTL, mr.TTL("likes:count:7"))
}
