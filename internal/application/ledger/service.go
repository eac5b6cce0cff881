package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"italiancorner/mydata_core/internal/core/branch"
	"italiancorner/mydata_core/internal/core/history"
	"italiancorner/mydata_core/internal/core/queue"
)

// Service exposes the submission history, its trash and the dashboard figures.
type Service struct {
	ledger history.Ledger
	queue  queue.Repository
	now    func() time.Time
}

// NewService creates a ledger service. now defaults to time.Now.
func NewService(ledger history.Ledger, failed queue.Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{ledger: ledger, queue: failed, now: now}
}

// List returns the active history, newest first, optionally for one branch.
func (s *Service) List(ctx context.Context, branchID string) ([]history.Entry, error) {
	entries, err := s.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	return history.ForBranch(entries, branchID), nil
}

// ListTrash returns the soft-deleted entries, most recently deleted first.
func (s *Service) ListTrash(ctx context.Context) ([]history.Entry, error) {
	return s.ledger.ListTrash(ctx)
}

// Trash moves an entry out of the active history. Trashing a sent entry
// lowers the highest sequence the sequencer sees.
func (s *Service) Trash(ctx context.Context, id string) (history.Entry, error) {
	return s.ledger.MoveToTrash(ctx, id, s.now())
}

// Restore moves an entry back from the trash.
func (s *Service) Restore(ctx context.Context, id string) (history.Entry, error) {
	return s.ledger.Restore(ctx, id)
}

// Purge deletes an entry from the trash for good.
func (s *Service) Purge(ctx context.Context, id string) error {
	return s.ledger.Purge(ctx, id)
}

// MonthTotals are the amounts of the current month's entries.
type MonthTotals struct {
	Month string  `json:"month"`
	Net   float64 `json:"net"`
	VAT   float64 `json:"vat"`
	Gross float64 `json:"gross"`
}

// Summary is the per-branch dashboard.
type Summary struct {
	BranchID       string      `json:"branchId"`
	Total          int         `json:"total"`
	Sent           int         `json:"sent"`
	Failed         int         `json:"failed"`
	Cancelled      int         `json:"cancelled"`
	QueueLength    int         `json:"queueLength"`
	SentPercentage int         `json:"sentPercentage"`
	Monthly        MonthTotals `json:"monthly"`
}

// Summary counts the branch's active entries and sums the amounts of the
// entries issued in the current month. Queue length covers all branches.
func (s *Service) Summary(ctx context.Context, branchID string) (Summary, error) {
	entries, err := s.List(ctx, branchID)
	if err != nil {
		return Summary{}, err
	}
	queued, err := s.queue.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load retry queue: %w", err)
	}

	month := s.now().Format("2006-01")
	sum := Summary{
		BranchID:    branchID,
		Total:       len(entries),
		QueueLength: len(queued),
		Monthly:     MonthTotals{Month: month},
	}

	net, vat, gross := decimal.Zero, decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Status {
		case history.StatusSent:
			sum.Sent++
		case history.StatusFailed:
			sum.Failed++
		case history.StatusCancelled:
			sum.Cancelled++
		}

		if !inMonth(e.Date(), month) {
			continue
		}
		entryGross := e.Totals.Gross
		if entryGross == 0 {
			entryGross = e.Totals.Net + e.Totals.VAT
		}
		net = net.Add(decimal.NewFromFloat(e.Totals.Net))
		vat = vat.Add(decimal.NewFromFloat(e.Totals.VAT))
		gross = gross.Add(decimal.NewFromFloat(entryGross))
	}

	if sum.Total > 0 {
		sum.SentPercentage = int(math.Round(float64(sum.Sent) / float64(sum.Total) * 100))
	}
	sum.Monthly.Net = net.Round(2).InexactFloat64()
	sum.Monthly.VAT = vat.Round(2).InexactFloat64()
	sum.Monthly.Gross = gross.Round(2).InexactFloat64()
	return sum, nil
}

func inMonth(date, month string) bool {
	d, err := time.Parse(branch.DateLayout, date)
	if err != nil {
		return false
	}
	return d.Format("2006-01") == month
}
