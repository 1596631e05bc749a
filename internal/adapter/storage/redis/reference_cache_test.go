package redis_test

import (
	"context"
	"testing"
	"time"

	"wallet-ledger-service/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := redis.NewReferenceCache(client)
	ctx := context.Background()

	t.Run("unseen reference", func(t *testing.T) {
		seen, err := cache.Seen(ctx, "r-unknown")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("mark then seen", func(t *testing.T) {
		require.NoError(t, cache.Mark(ctx, "r1", time.Hour))

		seen, err := cache.Seen(ctx, "r1")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("mark expires after ttl", func(t *testing.T) {
		require.NoError(t, cache.Mark(ctx, "r-short", time.Minute))

		mr.FastForward(61 * time.Second)

		seen, err := cache.Seen(ctx, "r-short")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("references are independent", func(t *testing.T) {
		require.NoError(t, cache.Mark(ctx, "t1-out", time.Hour))

		seen, err := cache.Seen(ctx, "t2-out")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("error when redis is down", func(t *testing.T) {
		mr.Close()
		_, err := cache.Seen(ctx, "r1")
		assert.Error(t, err)
		assert.Error(t, cache.Mark(ctx, "r2", time.Hour))
	})
}
