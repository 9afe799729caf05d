package space

import (
	"context"
	"fmt"
	"sort"

	goSpace "github.com/MrEthical07/goSpace"
)

// Box is the authenticated store connection of one address.
type Box struct {
	store   *Store
	address string
}

// Address returns the normalized address the box was opened for.
func (b *Box) Address() string {
	return b.address
}

// OpenSpace records namespaceKey on the box and returns its handle.
func (b *Box) OpenSpace(ctx context.Context, namespaceKey string) (goSpace.StoreSpace, error) {
	if namespaceKey == "" {
		return nil, ErrInvalidNamespace
	}
	if err := b.store.redis.SAdd(ctx, b.store.boxSpacesKey(b.address), namespaceKey).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return &Space{
		name: namespaceKey,
		private: &hashKV{
			store: b.store,
			key:   b.store.spaceKey(b.address, namespaceKey, "private"),
		},
		public: &hashKV{
			store: b.store,
			key:   b.store.spaceKey(b.address, namespaceKey, "public"),
		},
	}, nil
}

// Spaces lists the namespace keys ever opened by the box, sorted.
func (b *Box) Spaces(ctx context.Context) ([]string, error) {
	names, err := b.store.redis.SMembers(ctx, b.store.boxSpacesKey(b.address)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	sort.Strings(names)
	return names, nil
}
