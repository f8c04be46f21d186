package pipeline

import (
	"context"
	"sync"

	"github.com/Veraticus/grantlens/internal/model"
)

// LoadFunc produces a dataset.
type LoadFunc func(ctx context.Context) (*model.Dataset, error)

// Cache holds the result of a single load for the life of the process.
// The first successful Get computes the dataset; later calls return the
// same pointer until Invalidate is called. Failed loads are not kept.
type Cache struct {
	load    LoadFunc
	dataset *model.Dataset
	loads   int
	mu      sync.Mutex
}

// NewCache returns a cache that loads the given organizations. The slice is
// copied so later changes by the caller do not alter the cached inputs.
func NewCache(orgs []model.Organization, opts ...Option) *Cache {
	inputs := make([]model.Organization, len(orgs))
	copy(inputs, orgs)

	return NewCacheFunc(func(ctx context.Context) (*model.Dataset, error) {
		return LoadAndClean(ctx, inputs, opts...)
	})
}

// NewCacheFunc returns a cache around an arbitrary load function.
func NewCacheFunc(load LoadFunc) *Cache {
	return &Cache{load: load}
}

// Get returns the cached dataset, loading it on first use. Concurrent
// callers wait for the in-flight load instead of starting their own.
func (c *Cache) Get(ctx context.Context) (*model.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dataset != nil {
		return c.dataset, nil
	}

	ds, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.dataset = ds
	c.loads++

	return ds, nil
}

// Invalidate discards the cached dataset so the next Get reloads it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataset = nil
}

// Loads reports how many successful loads the cache has performed.
func (c *Cache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}
