// Package ratelimit implements a fixed-window request limiter on Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
)

const keyPrefix = "finance:ratelimit:"

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts requests per key in fixed windows. A nil client or a Redis
// failure lets every request through.
type Limiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	now    func() time.Time
}

// New returns a limiter admitting limit requests per window for each key.
func New(client redis.UniversalClient, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window, now: time.Now}
}

func (l *Limiter) windowKey(key string, now time.Time) (string, time.Duration) {
	start := now.Truncate(l.window)
	return fmt.Sprintf("%s%s:%d", keyPrefix, key, start.Unix()), start.Add(l.window).Sub(now)
}

// Allow counts one request for key.
func (l *Limiter) Allow(ctx context.Context, key string) Decision {
	if l == nil {
		return Decision{Allowed: true}
	}
	open := Decision{Allowed: true, Limit: l.limit, Remaining: l.limit}
	if l.client == nil || l.limit <= 0 {
		return open
	}

	redisKey, resetIn := l.windowKey(key, l.now())

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window+time.Second)
		return nil
	})
	if err != nil {
		logger.Get().Warnw("rate limiter unavailable, allowing request",
			"key", key,
			"error", err,
		)
		return open
	}

	count := int(incr.Val())
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetIn:   resetIn,
	}
}
