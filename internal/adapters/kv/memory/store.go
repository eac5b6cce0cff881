package memory

import (
	"context"
	"sync"

	"italiancorner/mydata_core/internal/core/kv"
)

type item struct {
	value   []byte
	version int64
}

// Store is an in-process kv.Store used in tests and with STORAGE_DRIVER=memory.
type Store struct {
	mu    sync.RWMutex
	items map[string]item
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{items: make(map[string]item)}
}

var _ kv.Store = (*Store)(nil)

func (s *Store) Get(_ context.Context, key string) ([]byte, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[key]
	if !ok {
		return nil, 0, nil
	}
	return append([]byte(nil), it.value...), it.version, nil
}

func (s *Store) CompareAndSwap(_ context.Context, key string, expectedVersion int64, value []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items[key].version != expectedVersion {
		return false, nil
	}
	s.items[key] = item{value: append([]byte(nil), value...), version: expectedVersion + 1}
	return true, nil
}
