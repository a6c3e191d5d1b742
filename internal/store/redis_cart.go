package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/stitchnstyle/internal/cart"
	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"github.com/redis/go-redis/v9"
)

// RedisCartStore keeps each cart as a JSON string under <prefix>cart:<owner>. Updates use
// WATCH/MULTI and retry when another writer touched the key in between.
type RedisCartStore struct {
	client     redis.UniversalClient
	prefix     string
	maxRetries int
}

// NewRedisCartStore creates a CartStore backed by Redis.
func NewRedisCartStore(client redis.UniversalClient, keyPrefix string, maxRetries int) *RedisCartStore {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RedisCartStore{client: client, prefix: keyPrefix, maxRetries: maxRetries}
}

func (s *RedisCartStore) key(owner string) string {
	return s.prefix + "cart:" + owner
}

func (s *RedisCartStore) Get(ctx context.Context, owner string) (cart.Items, error) {
	if owner == "" {
		return nil, sferrors.ErrOwnerRequired
	}
	doc, err := s.client.Get(ctx, s.key(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cart.Items{}, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart.Decode(doc)
}

func (s *RedisCartStore) Update(ctx context.Context, owner string, fn func(c *cart.Cart) error) (cart.Items, error) {
	if owner == "" {
		return nil, sferrors.ErrOwnerRequired
	}
	key := s.key(owner)
	var stored cart.Items
	txf := func(tx *redis.Tx) error {
		doc, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("get cart: %w", err)
		}
		items, err := cart.Decode(doc)
		if err != nil {
			return err
		}
		c, err := cart.FromItems(owner, items)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		stored = c.Items()
		encoded, err := cart.Encode(stored)
		if err != nil {
			return fmt.Errorf("encode cart: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		return err
	}

	for range s.maxRetries {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return stored, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: cart of %s kept changing", sferrors.ErrOptimisticLock, owner)
}
