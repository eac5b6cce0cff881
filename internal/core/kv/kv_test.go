package kv

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type mapStore struct {
	mu       sync.Mutex
	values   map[string][]byte
	versions map[string]int64
	// interfere runs once before the next swap, simulating another writer.
	interfere func()
}

func newMapStore() *mapStore {
	return &mapStore{values: map[string][]byte{}, versions: map[string]int64{}}
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], s.versions[key], nil
}

func (s *mapStore) CompareAndSwap(_ context.Context, key string, expected int64, value []byte) (bool, error) {
	if f := s.interfere; f != nil {
		s.interfere = nil
		f()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versions[key] != expected {
		return false, nil
	}
	s.values[key] = value
	s.versions[key] = expected + 1
	return true, nil
}

func TestUpdate_CreatesAndAppends(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()

	for _, n := range []int{1, 2, 3} {
		if _, err := Update(ctx, store, "numbers", func(v *[]int) error {
			*v = append(*v, n)
			return nil
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := Load[[]int](ctx, store, "numbers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[2] != 3 {
		t.Errorf("expected [1 2 3], got %v", got)
	}
	if store.versions["numbers"] != 3 {
		t.Errorf("expected version 3, got %d", store.versions["numbers"])
	}
}

func TestUpdate_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.interfere = func() {
		store.values["counter"] = []byte("10")
		store.versions["counter"] = 1
	}

	calls := 0
	got, err := Update(ctx, store, "counter", func(v *int) error {
		calls++
		*v++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
	if got != 11 {
		t.Errorf("expected the concurrent write to be kept, got %d", got)
	}
}

func TestUpdate_FnErrorAborts(t *testing.T) {
	store := newMapStore()
	boom := errors.New("boom")

	_, err := Update(context.Background(), store, "k", func(v *int) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if _, ok := store.values["k"]; ok {
		t.Error("expected nothing to be written")
	}
}

type alwaysConflict struct{ *mapStore }

func (s *alwaysConflict) CompareAndSwap(context.Context, string, int64, []byte) (bool, error) {
	return false, nil
}

func TestUpdate_GivesUp(t *testing.T) {
	store := &alwaysConflict{mapStore: newMapStore()}
	_, err := Update(context.Background(), store, "k", func(v *int) error { return nil })
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	got, err := Load[map[string]int](context.Background(), newMapStore(), "missing")
	if err != nil || got != nil {
		t.Errorf("expected nil map and no error, got %v, %v", got, err)
	}
}
