// Package favorites keeps the user's favorite movies in the local store.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"moviehub/internal/kv"
	"moviehub/pkg/models"
)

// Key is the storage key holding the JSON-encoded favorites list.
const Key = "favorites"

var ErrPersistence = errors.New("favorites: failed to persist")

// Store is an in-memory favorites list mirrored to a kv.Store.
// Entries are unique by (Title, Year) and kept in insertion order.
type Store struct {
	kv     kv.Store
	logger *slog.Logger

	mu    sync.RWMutex
	items []models.Favorite
}

func New(store kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: store, logger: logger}
}

// Load replaces the in-memory list with what storage holds. Unreadable data
// yields an empty list and is removed from storage.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return fmt.Errorf("favorites: read: %w", err)
	}

	items := []models.Favorite{}
	if ok && raw != "" {
		parsed, perr := decode(raw)
		if perr != nil {
			s.logger.Error("error reading favorites from storage", "error", perr)
			if err := s.kv.Remove(ctx, Key); err != nil {
				s.logger.Warn("failed to remove corrupt favorites", "error", err)
			}
		} else {
			items = parsed
		}
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// Reload is Load, named for the storage-change path.
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// List returns a copy of the favorites in insertion order.
func (s *Store) List() []models.Favorite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Favorite{}, s.items...)
}

func (s *Store) Contains(m models.Movie) bool {
	f := models.FavoriteOf(m)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.items, f) >= 0
}

// Toggle adds m when absent and removes it when present, then persists the
// list. Records without a Title or Year are ignored. When persisting fails
// the in-memory list is left as it was.
func (s *Store) Toggle(ctx context.Context, m models.Movie) error {
	f := models.FavoriteOf(m)
	if f.Title == "" || f.Year == "" {
		s.logger.Warn("attempted to toggle favorite for invalid movie", "title", f.Title, "year", f.Year)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.items
	var next []models.Favorite
	if i := indexOf(prev, f); i >= 0 {
		next = slices.Delete(slices.Clone(prev), i, i+1)
	} else {
		next = append(slices.Clone(prev), f)
	}
	if next == nil {
		next = []models.Favorite{}
	}

	if err := s.persist(ctx, next); err != nil {
		s.logger.Error("error writing favorites to storage", "error", err)
		return err
	}
	s.items = next
	return nil
}

// Clear empties the list and removes it from storage.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []models.Favorite{}
	if err := s.kv.Remove(ctx, Key); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *Store) persist(ctx context.Context, items []models.Favorite) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// decode accepts any JSON value. Anything but an array is an empty list;
// array elements that are not objects are skipped.
func decode(raw string) ([]models.Favorite, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return []models.Favorite{}, nil
	}
	out := make([]models.Favorite, 0, len(arr))
	for _, el := range arr {
		if obj, ok := el.(map[string]any); ok {
			out = append(out, models.FavoriteOf(models.Movie(obj)))
		}
	}
	return out, nil
}

func indexOf(items []models.Favorite, f models.Favorite) int {
	return slices.IndexFunc(items, func(x models.Favorite) bool { return x.Same(f) })
}
