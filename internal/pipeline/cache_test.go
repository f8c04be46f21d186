package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/grantlens/internal/model"
	"github.com/Veraticus/grantlens/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestCacheLoadsOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	cache := NewCacheFunc(func(context.Context) (*model.Dataset, error) {
		calls.Add(1)
		return &model.Dataset{}, nil
	})

	const workers = 16
	results := make([]*model.Dataset, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := cache.Get(context.Background())
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, ds := range results {
		assert.Same(t, results[0], ds)
	}
	assert.Equal(t, 1, cache.Loads())
}

func TestCacheInvalidate(t *testing.T) {
	var calls int
	cache := NewCacheFunc(func(context.Context) (*model.Dataset, error) {
		calls++
		return &model.Dataset{}, nil
	})

	first, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Loads())

	cache.Invalidate()
	assert.Equal(t, 1, cache.Loads(), "invalidating does not load")

	second, err := cache.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, cache.Loads())
	assert.NotSame(t, first, second)
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	errLoad := errors.New("disk on fire")
	fail := true
	cache := NewCacheFunc(func(context.Context) (*model.Dataset, error) {
		if fail {
			return nil, errLoad
		}
		return &model.Dataset{}, nil
	})

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, errLoad)
	assert.Equal(t, 0, cache.Loads())

	fail = false
	ds, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ds)
}

func TestCacheCopiesOrganizations(t *testing.T) {
	dir := t.TempDir()
	orgs := testutil.StandardOrganizations(t, dir)

	cache := NewCache(orgs)
	orgs[0].GrantsPath = "/nonexistent"

	ds, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Grants, 1800)

	again, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, ds, again)
}
