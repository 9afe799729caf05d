package space

import (
	"context"
	"errors"
	"fmt"

	goSpace "github.com/MrEthical07/goSpace"
	"github.com/redis/go-redis/v9"
)

// Space is an opened namespace with a private and a public half.
type Space struct {
	name    string
	private *hashKV
	public  *hashKV
}

// Name returns the namespace key.
func (s *Space) Name() string { return s.name }

// Private returns the private half.
func (s *Space) Private() goSpace.KeyValue { return s.private }

// Public returns the public half, readable by anyone through GetSpace.
func (s *Space) Public() goSpace.KeyValue { return s.public }

type hashKV struct {
	store *Store
	key   string
}

// Get returns "" for a missing field.
func (h *hashKV) Get(ctx context.Context, key string) (string, error) {
	value, err := h.store.redis.HGet(ctx, h.key, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return value, nil
}

func (h *hashKV) Set(ctx context.Context, key, value string) error {
	if err := h.store.redis.HSet(ctx, h.key, key, value).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
