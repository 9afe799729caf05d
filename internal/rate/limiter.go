package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds write limiter tuning parameters.
type Config struct {
	Prefix    string
	MaxWrites int
	Window    time.Duration
}

// Limiter enforces a per-caller write budget using Redis fixed-window counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "rl"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// AllowWrite records one write for caller and reports ErrRateLimited once
// the caller went over MaxWrites in the current window.
func (l *Limiter) AllowWrite(ctx context.Context, caller string) error {
	if l == nil || l.redis == nil {
		return nil
	}
	count, err := l.incrementWithTTL(ctx, l.writeKey(caller), l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxWrites) {
		return ErrRateLimited
	}
	return nil
}

// Writes returns the writes recorded for caller in the current window.
// Missing keys return zero.
func (l *Limiter) Writes(ctx context.Context, caller string) (int, error) {
	count, err := l.redis.Get(ctx, l.writeKey(caller)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// Reset clears the window for caller.
func (l *Limiter) Reset(ctx context.Context, caller string) error {
	if err := l.redis.Del(ctx, l.writeKey(caller)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) writeKey(caller string) string {
	return l.config.Prefix + ":w:" + caller
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
