package liststore

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/quotecast/quotecast/internal/model"
)

const defaultRedisPrefix = "quotecast:list:"

// RedisBackend stores each list as a Redis list under prefix+name.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend creates a RedisBackend. An empty prefix uses the default.
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) key(list model.ListName) string {
	return b.prefix + string(list)
}

// markerKey flags that a list was written even when it is now empty,
// since Redis drops empty lists.
func (b *RedisBackend) markerKey(list model.ListName) string {
	return b.prefix + string(list) + ":exists"
}

// Read implements Backend.
func (b *RedisBackend) Read(ctx context.Context, list model.ListName) ([]string, bool, error) {
	pipe := b.client.Pipeline()
	exists := pipe.Exists(ctx, b.markerKey(list))
	items := pipe.LRange(ctx, b.key(list), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, false, err
	}

	lines := items.Val()
	return lines, exists.Val() > 0 || len(lines) > 0, nil
}

// Write implements Backend.
func (b *RedisBackend) Write(ctx context.Context, list model.ListName, lines []string) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, b.key(list))
		if len(lines) > 0 {
			pipe.RPush(ctx, b.key(list), toArgs(lines)...)
		}
		pipe.Set(ctx, b.markerKey(list), "1", 0)
		return nil
	})
	return err
}

// Append implements Backend.
func (b *RedisBackend) Append(ctx context.Context, list model.ListName, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, b.key(list), toArgs(lines)...)
		pipe.Set(ctx, b.markerKey(list), "1", 0)
		return nil
	})
	return err
}

// Ping checks Redis connectivity.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func toArgs(lines []string) []interface{} {
	args := make([]interface{}, len(lines))
	for i, l := range lines {
		args[i] = l
	}
	return args
}
