package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// rateLimitPrefix is the Redis key prefix for rate limit buckets.
	rateLimitPrefix = "quotecast:ratelimit:"
	// rateLimitMinTTL is the shortest TTL for a bucket key.
	rateLimitMinTTL = 10 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript is a Lua script implementing the token bucket algorithm.
// It's atomic and handles token refill and consumption in a single operation.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- max tokens (bucket capacity)
	local now = tonumber(ARGV[3])       -- current time in seconds
	local ttl = tonumber(ARGV[4])       -- TTL in seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = now - last_update
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// Limiter is a per-client token bucket stored in Redis, shared across
// instances. Each scope ("login", "api") has its own buckets.
type Limiter struct {
	cache         *Cache
	scope         string
	ratePerMinute int
	burst         int
	logger        *slog.Logger
}

// NewLimiter creates a Limiter for one scope.
func NewLimiter(c *Cache, scope string, ratePerMinute, burst int, logger *slog.Logger) *Limiter {
	if burst <= 0 {
		burst = ratePerMinute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		cache:         c,
		scope:         scope,
		ratePerMinute: ratePerMinute,
		burst:         burst,
		logger:        logger.With("component", "ratelimit", "scope", scope),
	}
}

// Limit returns the configured requests per minute.
func (l *Limiter) Limit() int {
	return l.ratePerMinute
}

// Check consumes one token for the client identified by ip.
// IP is hashed to avoid storing raw IP addresses.
func (l *Limiter) Check(ctx context.Context, ip string) (*RateLimitResult, error) {
	if l.ratePerMinute <= 0 {
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int64(l.burst),
			ResetAt:   time.Now().Add(time.Minute),
		}, nil
	}

	key := rateLimitPrefix + l.scope + ":" + hashIP(ip)
	ratePerSecond := float64(l.ratePerMinute) / 60.0
	return l.checkRateLimit(ctx, key, ratePerSecond)
}

func (l *Limiter) checkRateLimit(ctx context.Context, key string, rate float64) (*RateLimitResult, error) {
	now := time.Now().Unix()
	ttl := bucketTTL(rate, l.burst)

	result, err := tokenBucketScript.Run(ctx, l.cache.client,
		[]string{key},
		rate, l.burst, now, int(ttl.Seconds()),
	).Int64Slice()

	if err != nil {
		// Fail open on Redis errors - allow the request
		l.logger.Warn("rate limit check failed, allowing request", "error", err)
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int64(l.burst),
			ResetAt:   time.Now().Add(time.Minute),
		}, nil
	}

	return &RateLimitResult{
		Allowed:    result[0] == 1,
		Remaining:  result[2],
		ResetAt:    time.Now().Add(time.Duration(float64(time.Second) / rate)),
		RetryAfter: time.Duration(result[1]) * time.Second,
	}, nil
}

// bucketTTL keeps a bucket long enough to refill completely.
func bucketTTL(rate float64, burst int) time.Duration {
	ttl := time.Duration(float64(burst)/rate*float64(time.Second)) + time.Second
	if ttl < rateLimitMinTTL {
		return rateLimitMinTTL
	}
	return ttl
}

// hashIP creates a truncated SHA256 hash of an IP address.
// This provides privacy while maintaining uniqueness.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
