package movies

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"moviehub/pkg/models"
)

const DefaultCacheTTL = time.Hour

// Snapshot is one successful fetch of the upstream collection.
type Snapshot struct {
	Movies    []models.Movie
	FetchedAt time.Time
}

// Stats describes the cache state for health reporting.
type Stats struct {
	Count     int       `json:"count"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
	Fresh     bool      `json:"fresh"`
	TTL       string    `json:"ttl"`
}

// RefreshListener is told about every snapshot the cache installs.
type RefreshListener func(Snapshot)

// Cache holds the latest snapshot of the upstream collection and serves it
// while it is younger than the TTL.
//
// The snapshot pointer is swapped atomically. Concurrent refreshes are not
// serialized; the upstream is read-only so a redundant fetch is harmless.
type Cache struct {
	source Source
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	snap     atomic.Pointer[Snapshot]
	onChange RefreshListener
}

func NewCache(source Source, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		source: source,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// WithNowFunc allows tests to override the time source.
func (c *Cache) WithNowFunc(now func() time.Time) *Cache {
	c.now = now
	return c
}

// OnRefresh registers fn to be called after each installed snapshot.
// It must be set before the cache is shared.
func (c *Cache) OnRefresh(fn RefreshListener) {
	c.onChange = fn
}

// Get returns the cached collection, refreshing it from the source when the
// snapshot is missing or older than the TTL.
func (c *Cache) Get(ctx context.Context) ([]models.Movie, error) {
	if s := c.snap.Load(); s != nil && c.now().Sub(s.FetchedAt) < c.ttl {
		c.logger.Debug("serving movies from cache", "count", len(s.Movies))
		return s.Movies, nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches from the source regardless of freshness.
func (c *Cache) Refresh(ctx context.Context) ([]models.Movie, error) {
	if c.source == nil {
		return nil, ErrNoSource
	}

	started := c.now()
	c.logger.Info("fetching movies from upstream")

	movies, err := c.source.Fetch(ctx)
	prev := c.snap.Load()

	if err != nil {
		if errors.Is(err, ErrInvalidUpstreamFormat) {
			c.logger.Error("upstream returned invalid data", "error", err)
			return nil, err
		}
		c.logger.Error("error fetching movie data", "error", err)
		if prev != nil {
			c.logger.Warn("returning potentially stale cache due to fetch error",
				"count", len(prev.Movies),
				"fetched_at", prev.FetchedAt)
			return prev.Movies, nil
		}
		return nil, err
	}

	if len(movies) == 0 && prev != nil && len(prev.Movies) > 0 {
		c.logger.Warn("upstream returned an empty list, keeping previous snapshot",
			"count", len(prev.Movies))
		return prev.Movies, nil
	}

	next := &Snapshot{Movies: movies, FetchedAt: started}
	for {
		cur := c.snap.Load()
		if cur != nil && !next.FetchedAt.After(cur.FetchedAt) {
			// a fetch that started later already installed its result
			return cur.Movies, nil
		}
		if c.snap.CompareAndSwap(cur, next) {
			break
		}
	}

	c.logger.Info("fetched and cached movies", "count", len(movies))
	if c.onChange != nil {
		c.onChange(*next)
	}
	return movies, nil
}

// Snapshot returns the installed snapshot, if any.
func (c *Cache) Snapshot() (Snapshot, bool) {
	s := c.snap.Load()
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}

func (c *Cache) Stats() Stats {
	st := Stats{TTL: c.ttl.String()}
	if s := c.snap.Load(); s != nil {
		st.Count = len(s.Movies)
		st.FetchedAt = s.FetchedAt
		st.Fresh = c.now().Sub(s.FetchedAt) < c.ttl
	}
	return st
}
