package movies

import "errors"

var (
	// ErrUpstreamFetch means the upstream could not be reached or answered
	// with a non-2xx status. A stale snapshot may be served instead.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrInvalidUpstreamFormat means the upstream answered with something
	// other than a JSON array of movie objects. It is never masked by a stale
	// snapshot.
	ErrInvalidUpstreamFormat = errors.New("invalid data format received from upstream")

	ErrNoSource = errors.New("movie source not configured")
)
