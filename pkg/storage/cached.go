package storage

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached keeps recently used values in memory in front of another Store.
// Writes go through to the inner store first and only then update the cache.
type Cached struct {
	inner Store
	cache *lru.Cache[string, string]
}

func NewCached(inner Store, size int) (*Cached, error) {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: c}, nil
}

func (c *Cached) Get(ctx context.Context, key string) (string, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, v)
	return v, nil
}

func (c *Cached) Put(ctx context.Context, key, value string) error {
	if err := c.inner.Put(ctx, key, value); err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, value)
	return nil
}

func (c *Cached) Delete(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return c.inner.Delete(ctx, key)
}

func (c *Cached) Keys(ctx context.Context, prefix string) ([]string, error) {
	return c.inner.Keys(ctx, prefix)
}
