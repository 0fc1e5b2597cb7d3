package movies

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"moviehub/pkg/models"
)

//go:generate mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks

// DefaultUpstreamURL is the static movie list the service was built around.
const DefaultUpstreamURL = "https://gist.githubusercontent.com/saniyusuf/406b843afdfb9c6a86e25753fe2761f4/raw/523c324c7fcc36efab8224f9ebb7556c09b69a14/Film.JSON"

const defaultFetchTimeout = 10 * time.Second

// maxUpstreamBody caps how much of the upstream document we read.
const maxUpstreamBody = 32 << 20

// Source fetches the full movie collection.
type Source interface {
	Fetch(ctx context.Context) ([]models.Movie, error)
}

// HTTPSource reads a JSON array of movies from a fixed URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]models.Movie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstreamFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamFetch, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamFetch, err)
	}
	return DecodeMovies(data)
}

// DecodeMovies parses an upstream document, which must be a JSON array.
// Anything else is ErrInvalidUpstreamFormat. Elements that are not objects
// are dropped.
func DecodeMovies(data []byte) ([]models.Movie, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: not an array", ErrInvalidUpstreamFormat)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpstreamFormat, err)
	}

	out := make([]models.Movie, 0, len(raw))
	for _, elem := range raw {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			continue
		}
		var m models.Movie
		if err := json.Unmarshal(elem, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
