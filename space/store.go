package space

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goSpace "github.com/MrEthical07/goSpace"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrRedisUnavailable is returned when a Redis command failed.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrInvalidAddress is returned for an empty address.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidNamespace is returned for an empty namespace key.
	ErrInvalidNamespace = errors.New("invalid namespace")
	// ErrAddressNotAuthorized is returned when the wallet provider does not
	// hold the address a box is opened for.
	ErrAddressNotAuthorized = errors.New("address not authorized by wallet provider")
)

const defaultPrefix = "gs"

var (
	_ goSpace.StoreBackend = (*Store)(nil)
	_ goSpace.StoreBox     = (*Box)(nil)
	_ goSpace.StoreSpace   = (*Space)(nil)
	_ goSpace.KeyValue     = (*hashKV)(nil)
)

// Store is a Redis implementation of [goSpace.StoreBackend].
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewStore creates a Store. An empty prefix defaults to "gs".
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *Store) boxKey(address string) string {
	return s.prefix + ":box:" + address
}

func (s *Store) boxSpacesKey(address string) string {
	return s.prefix + ":box:" + address + ":spaces"
}

func (s *Store) spaceKey(address, namespaceKey, half string) string {
	return s.prefix + ":space:" + address + ":" + namespaceKey + ":" + half
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// OpenBox authenticates address against the store. The provider must
// authorize the address; the box is created on first open. A provider that
// implements goSpace.AccountLister and already lists address is not asked to
// Enable again.
func (s *Store) OpenBox(ctx context.Context, address string, provider goSpace.WalletProvider) (goSpace.StoreBox, error) {
	addr := normalizeAddress(address)
	if addr == "" {
		return nil, ErrInvalidAddress
	}
	if provider == nil {
		return nil, ErrAddressNotAuthorized
	}

	if !s.alreadyAuthorized(ctx, addr, provider) {
		accounts, err := provider.Enable(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAddressNotAuthorized, err)
		}
		if !containsAddress(accounts, addr) {
			return nil, ErrAddressNotAuthorized
		}
	}

	now := s.now().UTC().Unix()
	key := s.boxKey(addr)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, "created_at", now)
		pipe.HSet(ctx, key, "opened_at", now)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return &Box{store: s, address: addr}, nil
}

func (s *Store) alreadyAuthorized(ctx context.Context, addr string, provider goSpace.WalletProvider) bool {
	lister, ok := provider.(goSpace.AccountLister)
	if !ok {
		return false
	}
	accounts, err := lister.Accounts(ctx)
	if err != nil {
		return false
	}
	return containsAddress(accounts, addr)
}

// GetSpace returns the public values of namespaceKey under address. It
// needs no authenticated box; an unknown space reads as empty data.
func (s *Store) GetSpace(ctx context.Context, address, namespaceKey string) (goSpace.PublicData, error) {
	addr := normalizeAddress(address)
	if addr == "" {
		return nil, ErrInvalidAddress
	}
	if namespaceKey == "" {
		return nil, ErrInvalidNamespace
	}

	values, err := s.redis.HGetAll(ctx, s.spaceKey(addr, namespaceKey, "public")).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return goSpace.PublicData(values), nil
}

// Ping measures a Redis round-trip.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func containsAddress(accounts []string, addr string) bool {
	for _, a := range accounts {
		if normalizeAddress(a) == addr {
			return true
		}
	}
	return false
}
