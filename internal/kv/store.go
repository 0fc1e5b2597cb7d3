// Package kv is the client's persistent key/value storage. Writers never see
// their own changes on Watch; every other view of the same data does.
package kv

import (
	"cmp"
	"context"
	"slices"
)

// Change describes a mutation made through another view of the store.
type Change struct {
	Key      string
	OldValue string
	NewValue string
	Deleted  bool
}

type Store interface {
	// Get reports ok=false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Watch streams external changes until ctx is done, then closes the channel.
	Watch(ctx context.Context) <-chan Change
}

const watchBuffer = 16

// subscribers fans changes out to watchers; callers hold their own lock.
type subscribers struct {
	next int
	subs map[int]chan Change
}

func (s *subscribers) add() (int, chan Change) {
	if s.subs == nil {
		s.subs = make(map[int]chan Change)
	}
	id := s.next
	s.next++
	ch := make(chan Change, watchBuffer)
	s.subs[id] = ch
	return id, ch
}

func (s *subscribers) remove(id int) {
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// publish drops the change for a watcher whose buffer is full.
func (s *subscribers) publish(c Change) {
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (s *subscribers) count() int { return len(s.subs) }

// diff returns the changes turning before into after, sorted by key.
func diff(before, after map[string]string) []Change {
	var out []Change
	for k, old := range before {
		nv, ok := after[k]
		switch {
		case !ok:
			out = append(out, Change{Key: k, OldValue: old, Deleted: true})
		case nv != old:
			out = append(out, Change{Key: k, OldValue: old, NewValue: nv})
		}
	}
	for k, nv := range after {
		if _, ok := before[k]; !ok {
			out = append(out, Change{Key: k, NewValue: nv})
		}
	}
	slices.SortFunc(out, func(a, b Change) int { return cmp.Compare(a.Key, b.Key) })
	return out
}
