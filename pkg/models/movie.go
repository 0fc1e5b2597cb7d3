package models

import (
	"strconv"
	"strings"
)

// NoPoster is the upstream sentinel for a missing poster image.
const NoPoster = "N/A"

// Movie is a single upstream record. It is kept as a raw JSON object so that
// fields we don't know about are passed through to clients unchanged.
type Movie map[string]any

func (m Movie) Title() string  { return m.str("Title") }
func (m Movie) Year() string   { return m.str("Year") }
func (m Movie) Poster() string { return m.str("Poster") }
func (m Movie) IMDbID() string { return m.str("imdbID") }

// HasPoster reports whether the record carries a usable poster URL.
func (m Movie) HasPoster() bool {
	p := strings.TrimSpace(m.Poster())
	return p != "" && p != NoPoster
}

func (m Movie) str(key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		// encoding/json decodes bare numbers as float64 ("Year": 1999)
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Favorite is the minimal projection of a Movie kept in a favorites list.
// JSON names match the upstream record so a Favorite round-trips as a Movie.
type Favorite struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	Poster string `json:"Poster,omitempty"`
	IMDbID string `json:"imdbID,omitempty"`
}

// FavoriteOf projects m onto its favorites identity.
func FavoriteOf(m Movie) Favorite {
	return Favorite{
		Title:  m.Title(),
		Year:   m.Year(),
		Poster: m.Poster(),
		IMDbID: m.IMDbID(),
	}
}

// Same reports whether both refer to the same (Title, Year).
func (f Favorite) Same(other Favorite) bool {
	return f.Title == other.Title && f.Year == other.Year
}
