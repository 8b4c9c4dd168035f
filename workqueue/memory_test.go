package workqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueFIFOPerQueue(t *testing.T) {
	q := NewMemoryQueue(0)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "dryad", "tiid1"))
	require.NoError(t, q.Enqueue(ctx, "dryad", "tiid2"))

	got, ok, err := q.Dequeue(ctx, "dryad", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tiid1", got)

	got, ok, err = q.Dequeue(ctx, "dryad", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tiid2", got)
}

func TestMemoryQueueDequeueTimesOut(t *testing.T) {
	q := NewMemoryQueue(0)
	_, ok, err := q.Dequeue(context.Background(), "empty", 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryQueueNoCrossQueueOrdering(t *testing.T) {
	q := NewMemoryQueue(0)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, "a", "x"))
	require.NoError(t, q.Enqueue(ctx, "b", "y"))

	n, err := q.Size(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = q.Size(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
