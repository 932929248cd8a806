package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/tinderito/internal/config"
)

// LikeCountTTL is how long a liked-you counter lives without being read.
const LikeCountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForLikeCount generates Redis key for a user's liked-you count
func (c *RedisCache) KeyForLikeCount(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

// KeyForLikeCountVersion is bumped on every invalidation of userID's counter.
func (c *RedisCache) KeyForLikeCountVersion(userID uint64) string {
	return fmt.Sprintf("likes:count:%d:v", userID)
}

// SetLikeCount stores the counter and (re)starts its TTL.
func (c *RedisCache) SetLikeCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, LikeCountTTL).Err()
}

// LikeCountVersion returns the current invalidation version of userID's
// counter. Read it before computing a count, then store the count with
// SetLikeCountIfVersion.
func (c *RedisCache) LikeCountVersion(ctx context.Context, userID uint64) (int64, error) {
	v, err := c.Client.Get(ctx, c.KeyForLikeCountVersion(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetLikeCountIfVersion stores count only if no invalidation happened since
// version was read. stored is false when the count was dropped as stale.
func (c *RedisCache) SetLikeCountIfVersion(ctx context.Context, userID uint64, count, version int64) (stored bool, err error) {
	versionKey := c.KeyForLikeCountVersion(userID)
	err = c.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.KeyForLikeCount(userID), count, LikeCountTTL)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		// invalidated while we were writing
		return false, nil
	}
	return stored, err
}

// GetLikeCount returns the cached counter. ok is false on a cache miss.
// A hit refreshes the TTL since the user is active.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID uint64) (count int64, ok bool, err error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}

	count, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // garbage counts as a miss
	}

	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, LikeCountTTL).Err()
	return count, true, nil
}

// InvalidateLikeCount drops the counters of the given users and bumps their
// versions, so a count computed before this call is never stored after it.
func (c *RedisCache) InvalidateLikeCount(ctx context.Context, userIDs ...uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			versionKey := c.KeyForLikeCountVersion(id)
			pipe.Incr(ctx, versionKey)
			pipe.Expire(ctx, versionKey, 2*LikeCountTTL)
			pipe.Del(ctx, c.KeyForLikeCount(id))
		}
		return nil
	})
	return err
}
