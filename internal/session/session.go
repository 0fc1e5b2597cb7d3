// Package session tracks the client's authentication state in the local
// store and follows changes made by other clients sharing it.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"moviehub/internal/favorites"
	"moviehub/internal/kv"
)

// TokenKey is the storage key holding the bearer token.
const TokenKey = "token"

// EventKind names what changed in an Event.
type EventKind string

const (
	EventLoggedIn          EventKind = "logged_in"
	EventLoggedOut         EventKind = "logged_out"
	EventFavoritesReloaded EventKind = "favorites_reloaded"
)

type Event struct {
	Kind          EventKind
	Authenticated bool
}

type Session struct {
	store     kv.Store
	favorites *favorites.Store
	logger    *slog.Logger

	authenticated atomic.Bool

	mu       sync.Mutex
	onChange func(Event)
}

// New derives the authenticated flag from the stored token and loads
// favorites when fav is non-nil.
func New(ctx context.Context, store kv.Store, fav *favorites.Store, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{store: store, favorites: fav, logger: logger}

	token, ok, err := store.Get(ctx, TokenKey)
	if err != nil {
		return nil, fmt.Errorf("session: read token: %w", err)
	}
	s.authenticated.Store(ok && token != "")

	if fav != nil {
		if err := fav.Load(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// OnChange registers fn to observe transitions seen by Run.
func (s *Session) OnChange(fn func(Event)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Session) IsAuthenticated() bool {
	return s.authenticated.Load()
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, _, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		return "", fmt.Errorf("session: read token: %w", err)
	}
	return token, nil
}

func (s *Session) Login(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("session: store token: %w", err)
	}
	s.authenticated.Store(true)
	return nil
}

// Logout forgets the token and the favorites list.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx, TokenKey); err != nil {
		return fmt.Errorf("session: remove token: %w", err)
	}
	s.authenticated.Store(false)

	if s.favorites != nil {
		return s.favorites.Clear(ctx)
	}
	if err := s.store.Remove(ctx, favorites.Key); err != nil {
		return fmt.Errorf("session: remove favorites: %w", err)
	}
	return nil
}

// Run applies external storage changes until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	changes := s.store.Watch(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-changes:
			if !ok {
				return ctx.Err()
			}
			s.apply(ctx, c)
		}
	}
}

func (s *Session) apply(ctx context.Context, c kv.Change) {
	switch c.Key {
	case TokenKey:
		authed := !c.Deleted && c.NewValue != ""
		s.authenticated.Store(authed)
		kind := EventLoggedOut
		if authed {
			kind = EventLoggedIn
		}
		s.logger.Debug("token changed elsewhere", "authenticated", authed)
		s.emit(Event{Kind: kind, Authenticated: authed})

	case favorites.Key:
		if s.favorites == nil {
			return
		}
		if err := s.favorites.Reload(ctx); err != nil {
			s.logger.Warn("failed to reload favorites", "error", err)
			return
		}
		s.emit(Event{Kind: EventFavoritesReloaded, Authenticated: s.IsAuthenticated()})
	}
}

func (s *Session) emit(ev Event) {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
