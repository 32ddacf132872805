package liststore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotecast/quotecast/internal/model"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func TestRedisBackend_StoreOperations(t *testing.T) {
	client := setupTestRedis(t)
	store := New(NewRedisBackend(client, "test:"), nil)
	ctx := context.Background()

	exists, err := store.Exists(ctx, model.ListSubscribed)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.BulkAdd(ctx, model.ListSubscribed, "a@x.com,b@x.com\nc@x.com")
	require.NoError(t, err)

	lines, err := store.Load(ctx, model.ListSubscribed)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, lines)

	removed, err := store.Remove(ctx, model.ListSubscribed, "b@x.com")
	require.NoError(t, err)
	assert.True(t, removed)

	lines, err = store.Load(ctx, model.ListSubscribed)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "c@x.com"}, lines)
}

func TestRedisBackend_EmptiedListStillExists(t *testing.T) {
	client := setupTestRedis(t)
	store := New(NewRedisBackend(client, ""), nil)
	ctx := context.Background()

	_, err := store.Add(ctx, model.ListSubscribed, "only@x.com")
	require.NoError(t, err)
	_, err = store.Remove(ctx, model.ListSubscribed, "only@x.com")
	require.NoError(t, err)

	exists, err := store.Exists(ctx, model.ListSubscribed)
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := store.Count(ctx, model.ListSubscribed)
	require.NoError(t, err)
	assert.Zero(t, n)
}
