package redis

import (
	"context"
	"fmt"
	"time"

	"pickup-verification/internal/domain/ports/adapter"
)

var _ adapter.AttemptLimiter = (*RateLimiter)(nil)

// RateLimiter is a fixed-window counter: INCR the key, set its TTL on the
// first hit, deny once the count passes limit.
type RateLimiter struct {
	client RedisClient
	limit  int
	window time.Duration
}

func NewRateLimiter(client RedisClient, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := AttemptKey(key)
	count, err := r.client.Incr(ctx, k)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, k, r.window); err != nil {
			return false, err
		}
	}

	return count <= int64(r.limit), nil
}

func AttemptKey(key string) string {
	return fmt.Sprintf("pickup:attempts:%s", key)
}
