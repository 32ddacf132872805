package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quotecast/quotecast/internal/model"
)

// DefaultRedisKey holds the settings document when lists live in Redis.
const DefaultRedisKey = "quotecast:settings"

// toggleScript flips showSendToEmail atomically. A missing key counts as
// true, so the first toggle stores false.
var toggleScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
local show = true
if raw then
	local doc = cjson.decode(raw)
	if doc["showSendToEmail"] == false then
		show = false
	end
end
show = not show
local out = cjson.encode({showSendToEmail = show})
redis.call("SET", KEYS[1], out)
return out
`)

// RedisStore keeps settings as a JSON string under one key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a RedisStore. An empty key uses DefaultRedisKey.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context) (model.Settings, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return decode(raw)
}

// Toggle implements Store.
func (s *RedisStore) Toggle(ctx context.Context) (model.Settings, error) {
	raw, err := toggleScript.Run(ctx, s.client, []string{s.key}).Text()
	if err != nil {
		return model.Settings{}, fmt.Errorf("toggle settings: %w", err)
	}
	return decode(raw)
}

func decode(raw string) (model.Settings, error) {
	settings := model.DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return model.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}
