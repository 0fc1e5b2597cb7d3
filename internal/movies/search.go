package movies

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"moviehub/pkg/models"
)

type SortField string

const (
	SortNone  SortField = ""
	SortTitle SortField = "title"
	SortYear  SortField = "year"
)

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Query is a search request over the cached collection.
type Query struct {
	Text      string
	SortBy    SortField
	SortOrder SortOrder
}

// ParseSortOrder maps anything but "desc" to ascending.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(Descending)) {
		return Descending
	}
	return Ascending
}

// Apply filters collection by title and then orders it. The result is a new
// slice; collection itself is never reordered.
func Apply(collection []models.Movie, q Query) []models.Movie {
	out := filter(collection, q.Text)

	less := comparator(q.SortBy)
	if less == nil {
		return out
	}
	sign := 1
	if q.SortOrder == Descending {
		sign = -1
	}
	slices.SortStableFunc(out, func(a, b models.Movie) int {
		return sign * less(a, b)
	})
	return out
}

func filter(collection []models.Movie, text string) []models.Movie {
	if text == "" {
		return append(make([]models.Movie, 0, len(collection)), collection...)
	}
	needle := fold(text)
	out := make([]models.Movie, 0, len(collection))
	for _, m := range collection {
		title := m.Title()
		if title == "" {
			continue
		}
		if strings.Contains(fold(title), needle) {
			out = append(out, m)
		}
	}
	return out
}

func comparator(field SortField) func(a, b models.Movie) int {
	switch field {
	case SortTitle:
		return func(a, b models.Movie) int {
			return strings.Compare(fold(a.Title()), fold(b.Title()))
		}
	case SortYear:
		return func(a, b models.Movie) int {
			return cmp.Compare(YearValue(a), YearValue(b))
		}
	default:
		return nil
	}
}

// YearValue parses the leading integer of Year; "2010–2013" is 2010.
// Missing or unparseable years are 0.
func YearValue(m models.Movie) int {
	y := strings.TrimSpace(m.Year())
	end := 0
	for end < len(y) && (y[end] >= '0' && y[end] <= '9' || end == 0 && (y[end] == '-' || y[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(y[:end])
	if err != nil {
		return 0
	}
	return n
}

// fold builds a fresh Caser per call; cases.Caser is not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}
