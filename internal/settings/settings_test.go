package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_DefaultsWhenAbsent(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.json"))

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, got.ShowSendToEmail)
}

func TestFileStore_ToggleOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	store := NewFileStore(path)
	ctx := context.Background()

	got, err := store.Toggle(ctx)
	require.NoError(t, err)
	assert.False(t, got.ShowSendToEmail)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"showSendToEmail": false}`, string(data))

	got, err = store.Toggle(ctx)
	require.NoError(t, err)
	assert.True(t, got.ShowSendToEmail)

	got, err = NewFileStore(path).Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.ShowSendToEmail)
}

func TestFileStore_MissingFieldDefaultsTrue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	got, err := NewFileStore(path).Get(context.Background())
	require.NoError(t, err)
	assert.True(t, got.ShowSendToEmail)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := NewFileStore(path).Get(context.Background())
	assert.Error(t, err)
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStore_Toggle(t *testing.T) {
	store := NewRedisStore(setupTestRedis(t), "")
	ctx := context.Background()

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.ShowSendToEmail)

	got, err = store.Toggle(ctx)
	require.NoError(t, err)
	assert.False(t, got.ShowSendToEmail)

	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.False(t, got.ShowSendToEmail)

	got, err = store.Toggle(ctx)
	require.NoError(t, err)
	assert.True(t, got.ShowSendToEmail)
}
