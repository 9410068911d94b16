//go:build integration

package jobingest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSeenCache(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	cache, err := NewRedisSeenCache(ctx, redisURL, time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	jobID := "test-" + uuid.NewString()
	defer cache.rdb.Del(ctx, seenKeyPrefix+jobID)

	unchanged, err := cache.Unchanged(ctx, jobID, "hash-1")
	require.NoError(t, err)
	assert.False(t, unchanged)

	require.NoError(t, cache.Mark(ctx, jobID, "hash-1"))

	unchanged, err = cache.Unchanged(ctx, jobID, "hash-1")
	require.NoError(t, err)
	assert.True(t, unchanged)

	ttl, err := cache.rdb.TTL(ctx, seenKeyPrefix+jobID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
