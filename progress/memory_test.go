package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistrySetGetClear(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	_, ok, err := r.Get(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "t1", 3))
	n, ok, err := r.Get(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	require.NoError(t, r.Clear(ctx, "t1"))
	_, ok, err = r.Get(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRegistryDecrReachesZero(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, "t1", 2))

	n, err := r.Decr(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.Decr(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryRegistryDecrIsAtomicUnderConcurrency(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, "t1", 100))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Decr(ctx, "t1")
		}()
	}
	wg.Wait()

	n, ok, err := r.Get(ctx, "t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, n)
}
