package store

import (
	"context"
	"fmt"
	"slices"

	"italiancorner/mydata_core/internal/core/kv"
	"italiancorner/mydata_core/internal/core/queue"
)

// Queue implements queue.Repository as a single ordered list.
type Queue struct {
	kv kv.Store
}

func NewQueue(store kv.Store) *Queue {
	return &Queue{kv: store}
}

var _ queue.Repository = (*Queue)(nil)

func (q *Queue) Enqueue(ctx context.Context, entry queue.FailedEntry) error {
	_, err := kv.Update(ctx, q.kv, keyFailedQueue, func(entries *[]queue.FailedEntry) error {
		*entries = append(*entries, entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("enqueue failed submission: %w", err)
	}
	return nil
}

func (q *Queue) List(ctx context.Context) ([]queue.FailedEntry, error) {
	entries, err := kv.Load[[]queue.FailedEntry](ctx, q.kv, keyFailedQueue)
	if err != nil {
		return nil, fmt.Errorf("load retry queue: %w", err)
	}
	return entries, nil
}

func (q *Queue) Get(ctx context.Context, id string) (queue.FailedEntry, error) {
	entries, err := q.List(ctx)
	if err != nil {
		return queue.FailedEntry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return queue.FailedEntry{}, queue.ErrNotFound
}

func (q *Queue) Remove(ctx context.Context, id string) error {
	_, err := kv.Update(ctx, q.kv, keyFailedQueue, func(entries *[]queue.FailedEntry) error {
		i := slices.IndexFunc(*entries, func(e queue.FailedEntry) bool { return e.ID == id })
		if i < 0 {
			return queue.ErrNotFound
		}
		*entries = slices.Delete(*entries, i, i+1)
		return nil
	})
	return err
}
