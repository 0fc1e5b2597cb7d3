package client

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/gorilla/websocket"

	synchub "moviehub/internal/sync"
)

// WebsocketURL maps an API base URL to the service's /ws endpoint.
func WebsocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   "/ws",
	}).String(), nil
}

// WatchCatalog streams catalog events to fn until ctx is done or the
// connection drops.
func (c *Client) WatchCatalog(ctx context.Context, fn func(synchub.CatalogEvent)) error {
	endpoint, err := WebsocketURL(c.BaseURL)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var ev synchub.CatalogEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}
		fn(ev)
	}
}
