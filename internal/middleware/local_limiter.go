package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/quotecast/quotecast/internal/cache"
)

const (
	localLimiterSweepEvery = 5 * time.Minute
	localLimiterIdleAfter  = 10 * time.Minute
)

type localLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is an in-process per-IP token bucket used when no Redis is
// configured. Limits are not shared between instances.
type LocalLimiter struct {
	requestsPerMinute int
	burst             int

	mu       sync.Mutex
	limiters map[string]*localLimiterEntry
	now      func() time.Time
}

// NewLocalLimiter creates a LocalLimiter. burst <= 0 uses requestsPerMinute.
func NewLocalLimiter(requestsPerMinute, burst int) *LocalLimiter {
	if burst <= 0 {
		burst = requestsPerMinute
	}
	return &LocalLimiter{
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
		limiters:          make(map[string]*localLimiterEntry),
		now:               time.Now,
	}
}

// Limit implements Limiter.
func (l *LocalLimiter) Limit() int {
	return l.requestsPerMinute
}

// Check implements Limiter.
func (l *LocalLimiter) Check(_ context.Context, ip string) (*cache.RateLimitResult, error) {
	now := l.now()
	if l.requestsPerMinute <= 0 {
		return &cache.RateLimitResult{Allowed: true, Remaining: int64(l.burst), ResetAt: now.Add(time.Minute)}, nil
	}

	limiter := l.getLimiter(ip, now)
	interval := time.Minute / time.Duration(l.requestsPerMinute)

	res := limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
		return &cache.RateLimitResult{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    now.Add(delay),
			RetryAfter: delay,
		}, nil
	}

	return &cache.RateLimitResult{
		Allowed:   true,
		Remaining: int64(limiter.TokensAt(now)),
		ResetAt:   now.Add(interval),
	}, nil
}

// getLimiter returns or creates the limiter for ip.
func (l *LocalLimiter) getLimiter(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		interval := time.Minute / time.Duration(l.requestsPerMinute)
		entry = &localLimiterEntry{limiter: rate.NewLimiter(rate.Every(interval), l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Sweep drops limiters idle for longer than the idle window.
func (l *LocalLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-localLimiterIdleAfter)
	removed := 0
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
			removed++
		}
	}
	return removed
}

// Run sweeps idle limiters periodically until ctx is cancelled.
func (l *LocalLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(localLimiterSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Sweep()
		}
	}
}
