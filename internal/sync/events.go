package sync

import "time"

const (
	EventWelcome          = "welcome"
	EventCatalogRefreshed = "catalog.refreshed"
)

// CatalogEvent tells clients the server installed a new movie snapshot.
type CatalogEvent struct {
	Type      string    `json:"type"`
	Count     int       `json:"count"`
	FetchedAt time.Time `json:"fetched_at"`
	At        time.Time `json:"at"`
}
