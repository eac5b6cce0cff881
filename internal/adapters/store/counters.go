package store

import (
	"context"
	"errors"
	"fmt"

	"italiancorner/mydata_core/internal/core/kv"
	"italiancorner/mydata_core/internal/core/sequence"
)

// Counters implements sequence.CounterStore, one integer key per branch.
type Counters struct {
	kv kv.Store
}

func NewCounters(store kv.Store) *Counters {
	return &Counters{kv: store}
}

var _ sequence.CounterStore = (*Counters)(nil)

var errUnchanged = errors.New("unchanged")

func (c *Counters) Current(ctx context.Context, branchID string) (int, error) {
	n, err := kv.Load[int](ctx, c.kv, sequenceKey(branchID))
	if err != nil {
		return 0, fmt.Errorf("load sequence counter: %w", err)
	}
	return n, nil
}

func (c *Counters) Set(ctx context.Context, branchID string, value int) error {
	_, err := kv.Update(ctx, c.kv, sequenceKey(branchID), func(n *int) error {
		*n = value
		return nil
	})
	if err != nil {
		return fmt.Errorf("store sequence counter: %w", err)
	}
	return nil
}

func (c *Counters) RaiseTo(ctx context.Context, branchID string, value int) (bool, error) {
	_, err := kv.Update(ctx, c.kv, sequenceKey(branchID), func(n *int) error {
		if *n >= value {
			return errUnchanged
		}
		*n = value
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("raise sequence counter: %w", err)
	}
	return true, nil
}
