package kv

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func assertQuiet(t *testing.T, ch <-chan Change, wait time.Duration) {
	t.Helper()
	select {
	case c := <-ch:
		t.Fatalf("unexpected change %+v", c)
	case <-time.After(wait):
	}
}

func TestMemoryStore_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "token", "abc"))
	v, ok, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Remove(ctx, "token"))
	_, ok, _ = s.Get(ctx, "token")
	assert.False(t, ok)

	require.NoError(t, s.Remove(ctx, "token"), "removing an absent key is fine")
}

func TestMemoryStore_PeersSeeEachOthersWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := NewMemoryStore()
	b := a.Peer()

	aCh := a.Watch(ctx)
	bCh := b.Watch(ctx)

	require.NoError(t, b.Set(ctx, "token", "xyz"))
	assert.Equal(t, Change{Key: "token", NewValue: "xyz"}, receive(t, aCh))
	assertQuiet(t, bCh, 50*time.Millisecond)

	v, ok, _ := a.Get(ctx, "token")
	assert.True(t, ok)
	assert.Equal(t, "xyz", v)

	require.NoError(t, a.Remove(ctx, "token"))
	assert.Equal(t, Change{Key: "token", OldValue: "xyz", Deleted: true}, receive(t, bCh))
	assertQuiet(t, aCh, 50*time.Millisecond)
}

func TestMemoryStore_UnchangedValueIsSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := NewMemoryStore()
	b := a.Peer()
	ch := a.Watch(ctx)

	require.NoError(t, b.Set(ctx, "k", "v"))
	receive(t, ch)
	require.NoError(t, b.Set(ctx, "k", "v"))
	assertQuiet(t, ch, 50*time.Millisecond)
}

func TestMemoryStore_WatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := NewMemoryStore().Watch(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestDiff(t *testing.T) {
	before := map[string]string{"a": "1", "b": "2", "c": "3"}
	after := map[string]string{"a": "1", "b": "20", "d": "4"}

	assert.Equal(t, []Change{
		{Key: "b", OldValue: "2", NewValue: "20"},
		{Key: "c", OldValue: "3", Deleted: true},
		{Key: "d", NewValue: "4"},
	}, diff(before, after))

	assert.Empty(t, diff(after, after))
}

func openTestStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	s.PollInterval = 20 * time.Millisecond
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "client.db"))

	_, ok, err := s.Get(ctx, "favorites")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "favorites", "[]"))
	require.NoError(t, s.Set(ctx, "favorites", `[{"Title":"Alien","Year":"1979"}]`))

	v, ok, err := s.Get(ctx, "favorites")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"Title":"Alien","Year":"1979"}]`, v)

	require.NoError(t, s.Remove(ctx, "favorites"))
	_, ok, err = s.Get(ctx, "favorites")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_WatchSeesOtherProcessWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "client.db")
	a := openTestStore(t, path)
	b := openTestStore(t, path)

	ch := a.Watch(ctx)

	require.NoError(t, a.Set(ctx, "mine", "1"))
	assertQuiet(t, ch, 100*time.Millisecond)

	require.NoError(t, b.Set(ctx, "token", "jwt"))
	assert.Equal(t, Change{Key: "token", NewValue: "jwt"}, receive(t, ch))

	require.NoError(t, b.Remove(ctx, "token"))
	assert.Equal(t, Change{Key: "token", OldValue: "jwt", Deleted: true}, receive(t, ch))
}
