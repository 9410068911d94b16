package jobingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeenCache remembers the content hash of listings ingested by earlier cycles,
// so unchanged listings are not embedded again.
type SeenCache interface {
	// Unchanged reports whether jobID was last ingested with the same hash.
	Unchanged(ctx context.Context, jobID, hash string) (bool, error)
	Mark(ctx context.Context, jobID, hash string) error
}

// DefaultSeenTTL is how long an ingested listing is considered fresh.
const DefaultSeenTTL = 72 * time.Hour

const seenKeyPrefix = "jobrec:seen:"

// RedisSeenCache keeps listing hashes in Redis with a TTL.
type RedisSeenCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSeenCache connects to redisURL, either a redis:// URL or a bare host:port.
func NewRedisSeenCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisSeenCache, error) {
	var opt *redis.Options
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{Addr: redisURL}
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewRedisSeenCacheFromClient(rdb, ttl), nil
}

// NewRedisSeenCacheFromClient wraps an existing client.
func NewRedisSeenCacheFromClient(rdb *redis.Client, ttl time.Duration) *RedisSeenCache {
	if ttl <= 0 {
		ttl = DefaultSeenTTL
	}
	return &RedisSeenCache{rdb: rdb, ttl: ttl}
}

func (c *RedisSeenCache) Unchanged(ctx context.Context, jobID, hash string) (bool, error) {
	stored, err := c.rdb.Get(ctx, seenKeyPrefix+jobID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == hash, nil
}

func (c *RedisSeenCache) Mark(ctx context.Context, jobID, hash string) error {
	return c.rdb.Set(ctx, seenKeyPrefix+jobID, hash, c.ttl).Err()
}

// Close closes the Redis client.
func (c *RedisSeenCache) Close() error {
	return c.rdb.Close()
}
