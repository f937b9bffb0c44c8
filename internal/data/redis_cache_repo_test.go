package data

import (
	"context"
	"testing"
	"time"

	"github.com/equinetracker/equinetracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheRepo_SetGetDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		ttl := 5 * time.Minute
		require.NoError(t, repo.Set(ctx, "test:barns", []byte(`[{"id":"b1"}]`), ttl))

		got, err := repo.Get(ctx, "test:barns")
		require.NoError(t, err)
		assert.Equal(t, []byte(`[{"id":"b1"}]`), got)

		actualTTL := client.TTL(ctx, "test:barns").Val()
		assert.True(t, actualTTL > 0 && actualTTL <= ttl)
	})

	t.Run("get missing key returns nil", func(t *testing.T) {
		got, err := repo.Get(ctx, "test:missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete reports existence", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "test:gone", []byte("x"), 0))

		deleted, err := repo.Delete(ctx, "test:gone")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, "test:gone")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, repo.Health(ctx))
	})
}

func TestRedisCacheRepo_EmptyKey(t *testing.T) {
	// Key validation happens before any network call.
	repo := NewRedisCacheRepo(nil)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Set(ctx, "", nil, time.Minute), ErrCacheKeyRequired)
	_, err := repo.Get(ctx, "")
	assert.ErrorIs(t, err, ErrCacheKeyRequired)
	_, err = repo.Delete(ctx, "")
	assert.ErrorIs(t, err, ErrCacheKeyRequired)
}
