package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Allower decides whether another hit is permitted for key
type Allower interface {
	Allow(ctx context.Context, key string) bool
}

// Limiter is an in-memory sliding window limiter
type Limiter struct {
	mu      sync.RWMutex
	limits  map[string][]time.Time
	window  time.Duration
	maxHits int
}

func NewLimiter(window time.Duration, maxHits int) *Limiter {
	return &Limiter{
		limits:  make(map[string][]time.Time),
		window:  window,
		maxHits: maxHits,
	}
}

func (l *Limiter) Allow(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-l.window)

	// Clean old entries
	if hits, exists := l.limits[key]; exists {
		valid := hits[:0]
		for _, hit := range hits {
			if hit.After(windowStart) {
				valid = append(valid, hit)
			}
		}
		l.limits[key] = valid
	}

	if len(l.limits[key]) >= l.maxHits {
		return false
	}

	l.limits[key] = append(l.limits[key], now)
	return true
}

// Counter is a shared fixed-window counter, such as Redis INCR with EXPIRE
type Counter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// CounterLimiter enforces a fixed window through a shared Counter so limits
// hold across processes. It falls back to an in-memory limiter when the
// counter errors.
type CounterLimiter struct {
	counter  Counter
	prefix   string
	window   time.Duration
	maxHits  int
	fallback *Limiter
}

func NewCounterLimiter(counter Counter, prefix string, window time.Duration, maxHits int) *CounterLimiter {
	return &CounterLimiter{
		counter:  counter,
		prefix:   prefix,
		window:   window,
		maxHits:  maxHits,
		fallback: NewLimiter(window, maxHits),
	}
}

func (l *CounterLimiter) Allow(ctx context.Context, key string) bool {
	count, err := l.counter.IncrWindow(ctx, fmt.Sprintf("ratelimit:%s:%s", l.prefix, key), l.window)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Shared rate limit counter unavailable, using local limiter")
		return l.fallback.Allow(ctx, key)
	}
	return count <= int64(l.maxHits)
}
