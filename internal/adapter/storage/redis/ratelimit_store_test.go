package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitStore_AllowWithinLimit(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewRateLimitStore(client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := store.Allow(ctx, "owner-1:wallet_write", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimitStore_BlocksOverLimit(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewRateLimitStore(client)
	ctx := context.Background()

	var last *RateLimitResult
	for i := 0; i < 4; i++ {
		result, err := store.Allow(ctx, "owner-2:payments", 3, time.Minute)
		require.NoError(t, err)
		last = result
	}

	assert.False(t, last.Allowed)
	assert.Equal(t, int64(0), last.Remaining)
}

func TestRateLimitStore_SeparateKeysSeparateCounters(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewRateLimitStore(client)
	ctx := context.Background()

	r1, err := store.Allow(ctx, "owner-a:rides", 2, time.Minute)
	require.NoError(t, err)
	r2, err := store.Allow(ctx, "owner-b:rides", 2, time.Minute)
	require.NoError(t, err)

	assert.True(t, r1.Allowed)
	assert.True(t, r2.Allowed)
	assert.Equal(t, int64(1), r1.Remaining)
	assert.Equal(t, int64(1), r2.Remaining)
}
