package submission

import (
	"context"
	"sync"
)

// branchLocks serializes work per branch. Each branch gets a one-slot
// semaphore so waiting honours context cancellation.
type branchLocks struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

func newBranchLocks() *branchLocks {
	return &branchLocks{sems: make(map[string]chan struct{})}
}

func (l *branchLocks) slot(branchID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.sems[branchID]
	if !ok {
		sem = make(chan struct{}, 1)
		l.sems[branchID] = sem
	}
	return sem
}

// acquire blocks until the branch is free or ctx is done.
func (l *branchLocks) acquire(ctx context.Context, branchID string) (func(), error) {
	sem := l.slot(branchID)
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
