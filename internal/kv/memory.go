package kv

import (
	"context"
	"sync"
)

type memoryData struct {
	mu    sync.Mutex
	m     map[string]string
	views []*MemoryStore
}

// MemoryStore is an in-process Store. Views created with Peer share data and
// see each other's writes on Watch, the way browser tabs share localStorage.
type MemoryStore struct {
	data *memoryData
	subs subscribers
}

func NewMemoryStore() *MemoryStore {
	d := &memoryData{m: make(map[string]string)}
	s := &MemoryStore{data: d}
	d.views = append(d.views, s)
	return s
}

// Peer returns another view onto the same data.
func (s *MemoryStore) Peer() *MemoryStore {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	p := &MemoryStore{data: s.data}
	s.data.views = append(s.data.views, p)
	return p
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	v, ok := s.data.m[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	old, existed := s.data.m[key]
	if existed && old == value {
		return nil
	}
	s.data.m[key] = value
	s.notifyOthers(Change{Key: key, OldValue: old, NewValue: value})
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	old, existed := s.data.m[key]
	if !existed {
		return nil
	}
	delete(s.data.m, key)
	s.notifyOthers(Change{Key: key, OldValue: old, Deleted: true})
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context) <-chan Change {
	s.data.mu.Lock()
	id, ch := s.subs.add()
	s.data.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.data.mu.Lock()
		s.subs.remove(id)
		s.data.mu.Unlock()
	}()
	return ch
}

// notifyOthers requires data.mu.
func (s *MemoryStore) notifyOthers(c Change) {
	for _, v := range s.data.views {
		if v != s {
			v.subs.publish(c)
		}
	}
}
