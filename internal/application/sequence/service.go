package sequence

import (
	"context"
	"errors"
	"fmt"

	"italiancorner/mydata_core/internal/core/branch"
	"italiancorner/mydata_core/internal/core/history"
	coresequence "italiancorner/mydata_core/internal/core/sequence"
)

// ErrNoSequence is returned by Commit when the number carries no digits.
var ErrNoSequence = errors.New("invoice number has no sequence")

// Service allocates invoice numbers per branch. The stored counter only moves
// forward through Commit or Sync; Next is read-only.
type Service struct {
	registry *branch.Registry
	ledger   history.Ledger
	counters coresequence.CounterStore
}

// NewService creates a sequencer reading the active history from ledger.
func NewService(registry *branch.Registry, ledger history.Ledger, counters coresequence.CounterStore) *Service {
	return &Service{
		registry: registry,
		ledger:   ledger,
		counters: counters,
	}
}

// Highest returns the highest sequence of a sent entry in the active history.
func (s *Service) Highest(ctx context.Context, branchID string) (int, error) {
	if _, err := s.registry.Lookup(branchID); err != nil {
		return 0, err
	}
	entries, err := s.ledger.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("read history: %w", err)
	}
	return coresequence.HighestSequence(branchID, entries), nil
}

// Sync raises the stored counter to the highest sent sequence when history
// is ahead of it, and reports whether it did.
func (s *Service) Sync(ctx context.Context, branchID string) (bool, error) {
	highest, err := s.Highest(ctx, branchID)
	if err != nil {
		return false, err
	}
	return s.counters.RaiseTo(ctx, branchID, highest)
}

// Next returns the zero-padded number to use for the next invoice of the
// branch. It never writes.
func (s *Service) Next(ctx context.Context, branchID string) (string, error) {
	highest, err := s.Highest(ctx, branchID)
	if err != nil {
		return "", err
	}
	stored, err := s.counters.Current(ctx, branchID)
	if err != nil {
		return "", err
	}
	return coresequence.Next(stored, highest), nil
}

// Commit sets the stored counter to the trailing integer of usedNumber.
// It is an absolute set, so manual numbers below the counter move it back.
// Call it only after myDATA has accepted the document.
func (s *Service) Commit(ctx context.Context, branchID, usedNumber string) error {
	if _, err := s.registry.Lookup(branchID); err != nil {
		return err
	}
	n, ok := coresequence.ParseTrailingInteger(usedNumber)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSequence, usedNumber)
	}
	return s.counters.Set(ctx, branchID, n)
}
