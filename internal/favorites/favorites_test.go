package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviehub/internal/kv"
	"moviehub/pkg/models"
)

var (
	matrix    = models.Movie{"Title": "The Matrix", "Year": "1999", "imdbID": "tt0133093", "Poster": "https://img/matrix.jpg", "Type": "movie"}
	inception = models.Movie{"Title": "Inception", "Year": "2010", "imdbID": "tt1375666", "Poster": "N/A"}
)

// flakyStore fails writes while fail is set.
type flakyStore struct {
	*kv.MemoryStore
	fail bool
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return errors.New("quota exceeded")
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func stored(t *testing.T, s kv.Store) []models.Favorite {
	t.Helper()
	raw, ok, err := s.Get(context.Background(), Key)
	require.NoError(t, err)
	require.True(t, ok)
	var out []models.Favorite
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestToggle_AddThenRemove(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	s := New(mem, nil)
	require.NoError(t, s.Load(ctx))
	assert.Empty(t, s.List())

	require.NoError(t, s.Toggle(ctx, matrix))
	assert.True(t, s.Contains(matrix))
	assert.Equal(t, []models.Favorite{{
		Title: "The Matrix", Year: "1999", Poster: "https://img/matrix.jpg", IMDbID: "tt0133093",
	}}, s.List(), "only the minimal projection is kept")
	assert.Equal(t, s.List(), stored(t, mem))

	require.NoError(t, s.Toggle(ctx, matrix))
	assert.False(t, s.Contains(matrix))
	assert.Empty(t, s.List())
	assert.Empty(t, stored(t, mem))
}

func TestToggle_KeepsInsertionOrderAndUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemoryStore(), nil)

	require.NoError(t, s.Toggle(ctx, matrix))
	require.NoError(t, s.Toggle(ctx, inception))
	require.NoError(t, s.Toggle(ctx, models.Movie{"Title": "The Matrix", "Year": "1999"}))
	require.NoError(t, s.Toggle(ctx, models.Movie{"Title": "The Matrix", "Year": "1999"}))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Inception", list[0].Title)
	assert.Equal(t, "The Matrix", list[1].Title)
}

func TestToggle_SameTitleDifferentYear(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemoryStore(), nil)

	require.NoError(t, s.Toggle(ctx, models.Movie{"Title": "Dune", "Year": "1984"}))
	require.NoError(t, s.Toggle(ctx, models.Movie{"Title": "Dune", "Year": "2021"}))
	assert.Len(t, s.List(), 2)
}

func TestToggle_IgnoresIncompleteRecords(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	s := New(mem, nil)

	require.NoError(t, s.Toggle(ctx, models.Movie{"Title": "No Year"}))
	require.NoError(t, s.Toggle(ctx, models.Movie{"Year": "2001"}))
	require.NoError(t, s.Toggle(ctx, nil))

	assert.Empty(t, s.List())
	_, ok, _ := mem.Get(ctx, Key)
	assert.False(t, ok, "nothing persisted")
}

func TestToggle_RollsBackOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: kv.NewMemoryStore()}
	s := New(store, nil)

	require.NoError(t, s.Toggle(ctx, matrix))

	store.fail = true
	err := s.Toggle(ctx, inception)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.False(t, s.Contains(inception))
	assert.Len(t, s.List(), 1)

	err = s.Toggle(ctx, matrix)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.True(t, s.Contains(matrix), "removal rolled back too")
}

func TestLoad_CorruptDataIsRemoved(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, Key, "{not json"))

	s := New(mem, nil)
	require.NoError(t, s.Load(ctx))
	assert.Empty(t, s.List())

	_, ok, _ := mem.Get(ctx, Key)
	assert.False(t, ok)
}

func TestLoad_NonArrayIsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, Key, `{"Title":"The Matrix"}`))

	s := New(mem, nil)
	require.NoError(t, s.Load(ctx))
	assert.Empty(t, s.List())

	_, ok, _ := mem.Get(ctx, Key)
	assert.True(t, ok, "valid JSON is left alone")
}

func TestLoad_ReadsExistingList(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, Key, `[{"Title":"Alien","Year":"1979","Poster":"N/A"}, 42]`))

	s := New(mem, nil)
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, []models.Favorite{{Title: "Alien", Year: "1979", Poster: "N/A"}}, s.List())
	assert.True(t, s.Contains(models.Movie{"Title": "Alien", "Year": "1979"}))
}

func TestReload_PicksUpPeerWrites(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	a := New(mem, nil)
	b := New(mem.Peer(), nil)
	require.NoError(t, a.Load(ctx))
	require.NoError(t, b.Load(ctx))

	require.NoError(t, b.Toggle(ctx, inception))
	assert.False(t, a.Contains(inception))

	require.NoError(t, a.Reload(ctx))
	assert.True(t, a.Contains(inception))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	s := New(mem, nil)
	require.NoError(t, s.Toggle(ctx, matrix))

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.List())
	_, ok, _ := mem.Get(ctx, Key)
	assert.False(t, ok)
}

func TestList_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemoryStore(), nil)
	require.NoError(t, s.Toggle(ctx, matrix))

	list := s.List()
	list[0].Title = "changed"
	assert.Equal(t, "The Matrix", s.List()[0].Title)
}
