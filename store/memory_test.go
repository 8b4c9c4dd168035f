package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altimpact.dev/item"
)

func TestMemoryCreateAndGetItemRoundTrips(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	tiid, err := item.NewTIID()
	require.NoError(t, err)
	it := item.NewItem(tiid, []item.Alias{{Namespace: "doi", ID: "10.1/x"}})

	require.NoError(t, s.CreateItem(ctx, it))
	assert.NotEmpty(t, it.Rev)

	got, err := s.GetItem(ctx, tiid)
	require.NoError(t, err)
	assert.Equal(t, tiid, got.TIID)
	assert.Equal(t, []string{"10.1/x"}, got.Aliases["doi"])
}

func TestMemoryCreateItemTwiceConflicts(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	it := item.NewItem("abc", nil)
	require.NoError(t, s.CreateItem(ctx, it))
	err := s.CreateItem(ctx, item.NewItem("abc", nil))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemorySaveItemStaleRevConflicts(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	it := item.NewItem("abc", nil)
	require.NoError(t, s.CreateItem(ctx, it))

	stale := item.NewItem("abc", nil)
	stale.Rev = "not-the-current-rev"
	err := s.SaveItem(ctx, stale)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryGetItemMissingIsNotFound(t *testing.T) {
	s := NewMemory()
	_, err := s.GetItem(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryFindTIIDByAlias(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	it := item.NewItem("abc", []item.Alias{{Namespace: "doi", ID: "10.1/x"}})
	require.NoError(t, s.CreateItem(ctx, it))

	tiid, ok, err := s.FindTIIDByAlias(ctx, "doi", "10.1/x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", tiid)

	_, ok, err = s.FindTIIDByAlias(ctx, "doi", "no-such-id")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryItemsNeedingAliases(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	pending := item.NewItem("pending", nil)
	require.NoError(t, s.CreateItem(ctx, pending))

	resolved := item.NewItem("resolved", nil)
	resolved.NeedsAliases = nil
	require.NoError(t, s.CreateItem(ctx, resolved))

	tiids, err := s.ItemsNeedingAliases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pending"}, tiids)
}

func TestMemoryCollectionRoundTrip(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	c := item.NewCollection("abc123", "my set", []string{"t1", "t2"}, "127.0.0.1")
	require.NoError(t, s.CreateCollection(ctx, c))

	got, err := s.GetCollection(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, got.TIIDs)

	got.TIIDs = append(got.TIIDs, "t3")
	require.NoError(t, s.SaveCollection(ctx, got))

	got2, err := s.GetCollection(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, got2.TIIDs)
}

func TestMemoryUserRoundTrip(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	u := item.NewUser("key-1")
	require.NoError(t, s.SaveUser(ctx, u))

	got, err := s.GetUser(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "key-1", got.APIKey)
}
