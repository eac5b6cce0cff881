package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"italiancorner/mydata_core/internal/application/sequence"
	"italiancorner/mydata_core/internal/core/branch"
	"italiancorner/mydata_core/internal/core/history"
	"italiancorner/mydata_core/internal/core/invoice"
	"italiancorner/mydata_core/internal/core/money"
	"italiancorner/mydata_core/internal/core/mydata"
	"italiancorner/mydata_core/internal/core/queue"
)

// Config tunes the submission service.
type Config struct {
	// Sandbox is copied into every payload's meta block.
	Sandbox bool
	// RetryRPS paces RetryAll. Zero or less disables pacing.
	RetryRPS float64
	// Now and NewID default to time.Now and uuid strings.
	Now   func() time.Time
	NewID func() string
}

// Service drives invoices through validation, submission, retry and
// cancellation, keeping history, the retry queue and the sequencer in step.
type Service struct {
	registry  *branch.Registry
	gateway   mydata.Gateway
	ledger    history.Ledger
	queue     queue.Repository
	sequencer *sequence.Service
	log       *slog.Logger

	sandbox bool
	pacer   *rate.Limiter
	now     func() time.Time
	newID   func() string
	locks   *branchLocks
}

// NewService wires the submission use cases.
func NewService(
	registry *branch.Registry,
	gateway mydata.Gateway,
	ledger history.Ledger,
	failed queue.Repository,
	sequencer *sequence.Service,
	log *slog.Logger,
	cfg Config,
) *Service {
	limit := rate.Inf
	if cfg.RetryRPS > 0 {
		limit = rate.Limit(cfg.RetryRPS)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Service{
		registry:  registry,
		gateway:   gateway,
		ledger:    ledger,
		queue:     failed,
		sequencer: sequencer,
		log:       log,
		sandbox:   cfg.Sandbox,
		pacer:     rate.NewLimiter(limit, 1),
		now:       cfg.Now,
		newID:     cfg.NewID,
		locks:     newBranchLocks(),
	}
}

// Outcome is the result of a submission that reached the submit endpoint.
type Outcome struct {
	Entry history.Entry `json:"entry"`
	// QueueID is set when the attempt failed and was queued for retry.
	QueueID string `json:"queueId,omitempty"`
	// NextNumber is the branch's next invoice number after the attempt.
	NextNumber string `json:"nextNumber"`
}

// Sent reports whether myDATA accepted the document.
func (o Outcome) Sent() bool {
	return o.Entry.Status == history.StatusSent
}

// Submit validates inv locally and remotely, then submits it.
//
// A local or remote validation failure returns an error and records nothing.
// Once the submit endpoint is called the attempt is always recorded: a sent
// entry and a sequencer commit on success, or a failed entry and a queue
// entry otherwise. A failed attempt is not an error.
func (s *Service) Submit(ctx context.Context, inv invoice.Invoice) (Outcome, error) {
	if err := invoice.Check(inv, s.registry); err != nil {
		return Outcome{}, err
	}
	b, err := s.registry.Lookup(inv.BranchID)
	if err != nil {
		return Outcome{}, err
	}
	inv = invoice.ApplySurcharge(inv, b, s.now())

	release, err := s.locks.acquire(ctx, b.ID)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	payload, err := invoice.BuildPayload(inv, b, invoice.ModeFor(inv, b), s.sandbox)
	if err != nil {
		return Outcome{}, fmt.Errorf("build payload: %w", err)
	}

	if check := s.gateway.Validate(ctx, payload); !check.OK {
		s.log.Warn("myDATA pre-check rejected invoice",
			"branch", b.ID,
			"number", inv.Number,
			"error", check.Error,
		)
		return Outcome{}, fmt.Errorf("%w: %s", ErrRemoteRejected, check.Error)
	}

	result := s.gateway.Submit(ctx, payload)
	return s.record(ctx, history.KindInvoice, inv, payload, result)
}

// IssueSurchargeDocument submits the levy of a villa history entry as its own
// document with a fresh number, dated today. The base entry is not touched.
func (s *Service) IssueSurchargeDocument(ctx context.Context, entryID string) (Outcome, error) {
	base, err := s.ledger.Get(ctx, entryID)
	if err != nil {
		return Outcome{}, err
	}
	b, err := s.registry.Lookup(base.BranchID)
	if err != nil {
		return Outcome{}, err
	}
	if !b.SurchargeEligible() || base.Kind == history.KindSurcharge {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotSurchargeEligible, b.ID)
	}

	amount := base.Surcharge
	if amount <= 0 {
		amount = base.Totals.Surcharge
	}
	if amount <= 0 {
		amount = invoice.ComputeSurchargeAt(b, base.InvoiceDate, base.Items, s.now())
	}
	amount = money.Round2(amount)
	if amount <= 0 {
		return Outcome{}, ErrNoSurcharge
	}

	release, err := s.locks.acquire(ctx, b.ID)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	number, err := s.sequencer.Next(ctx, b.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("allocate number: %w", err)
	}
	inv := invoice.Invoice{
		BranchID:      b.ID,
		Date:          s.now().Format(branch.DateLayout),
		Number:        number,
		Customer:      base.Customer,
		PaymentMethod: base.PaymentMethod,
		Surcharge:     amount,
	}
	payload, err := invoice.BuildPayload(inv, b, invoice.ModeSurchargeOnly, s.sandbox)
	if err != nil {
		return Outcome{}, fmt.Errorf("build payload: %w", err)
	}

	result := s.gateway.Submit(ctx, payload)
	return s.record(ctx, history.KindSurcharge, inv, payload, result)
}

// record writes the history entry for a submit call and, depending on the
// result, commits the sequencer or queues the payload. Callers hold the
// branch lock.
func (s *Service) record(ctx context.Context, kind history.Kind, inv invoice.Invoice, payload invoice.Payload, result mydata.Result) (Outcome, error) {
	now := s.now()
	entry := history.Entry{
		ID:                s.newID(),
		Kind:              kind,
		BranchID:          inv.BranchID,
		InvoiceNumber:     inv.Number,
		InvoiceDate:       inv.Date,
		IssueDate:         payload.Header.IssueDate,
		Customer:          inv.Customer,
		Items:             inv.Items,
		PaymentMethod:     inv.PaymentMethodOrDefault(),
		Surcharge:         payload.Totals.Surcharge,
		SeparateSurcharge: inv.SeparateSurcharge,
		Totals:            payload.Totals,
		Timestamp:         now.UTC(),
	}

	if result.OK {
		entry.Status = history.StatusSent
		entry.Mark = result.Mark
		if err := s.ledger.Append(ctx, entry); err != nil {
			s.log.Error("invoice accepted by myDATA but not recorded",
				"branch", inv.BranchID,
				"number", inv.Number,
				"mark", result.Mark,
				"error", err,
			)
			return Outcome{Entry: entry}, fmt.Errorf("record sent invoice: %w", err)
		}
		if err := s.sequencer.Commit(ctx, inv.BranchID, inv.Number); err != nil {
			s.log.Error("failed to commit invoice sequence",
				"branch", inv.BranchID,
				"number", inv.Number,
				"error", err,
			)
		}
		s.log.Info("invoice submitted",
			"branch", inv.BranchID,
			"number", inv.Number,
			"kind", kind,
			"mark", result.Mark,
		)
		return s.outcome(ctx, entry, "")
	}

	entry.Status = history.StatusFailed
	entry.Error = result.Error
	if err := s.ledger.Append(ctx, entry); err != nil {
		return Outcome{Entry: entry}, fmt.Errorf("record failed invoice: %w", err)
	}
	failed := queue.FailedEntry{
		ID:        s.newID(),
		Timestamp: now.UTC(),
		Payload:   payload,
		Error:     result.Error,
	}
	if err := s.queue.Enqueue(ctx, failed); err != nil {
		return Outcome{Entry: entry}, fmt.Errorf("queue failed invoice: %w", err)
	}
	s.log.Warn("invoice submission failed, queued for retry",
		"branch", inv.BranchID,
		"number", inv.Number,
		"kind", kind,
		"queue_id", failed.ID,
		"error", result.Error,
	)
	return s.outcome(ctx, entry, failed.ID)
}

func (s *Service) outcome(ctx context.Context, entry history.Entry, queueID string) (Outcome, error) {
	next, err := s.sequencer.Next(ctx, entry.BranchID)
	if err != nil {
		return Outcome{Entry: entry, QueueID: queueID}, fmt.Errorf("compute next number: %w", err)
	}
	return Outcome{Entry: entry, QueueID: queueID, NextNumber: next}, nil
}

// RetryResult reports one retry of a queued payload.
type RetryResult struct {
	QueueID       string `json:"queueId"`
	BranchID      string `json:"branchId"`
	InvoiceNumber string `json:"invoiceNumber"`
	OK            bool   `json:"ok"`
	Mark          string `json:"mark,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Retry resubmits a queued payload unchanged. On success the entry leaves the
// queue; on failure it stays and the error is returned in the result.
func (s *Service) Retry(ctx context.Context, queueID string) (RetryResult, error) {
	entry, err := s.queue.Get(ctx, queueID)
	if err != nil {
		return RetryResult{}, err
	}
	return s.retry(ctx, entry)
}

// retry holds the branch lock and re-reads the entry, so a payload already
// retried by another caller is reported as queue.ErrNotFound and never sent twice.
func (s *Service) retry(ctx context.Context, entry queue.FailedEntry) (RetryResult, error) {
	release, err := s.locks.acquire(ctx, entry.Payload.Meta.BranchID)
	if err != nil {
		return RetryResult{}, err
	}
	defer release()

	entry, err = s.queue.Get(ctx, entry.ID)
	if err != nil {
		return RetryResult{}, err
	}

	res := RetryResult{
		QueueID:       entry.ID,
		BranchID:      entry.Payload.Meta.BranchID,
		InvoiceNumber: entry.Payload.Header.AA,
	}

	result := s.gateway.Retry(ctx, entry.Payload)
	if !result.OK {
		res.Error = result.Error
		s.log.Warn("retry failed",
			"queue_id", entry.ID,
			"branch", res.BranchID,
			"number", res.InvoiceNumber,
			"error", result.Error,
		)
		return res, nil
	}

	res.OK = true
	res.Mark = result.Mark
	if err := s.queue.Remove(ctx, entry.ID); err != nil && !errors.Is(err, queue.ErrNotFound) {
		return res, fmt.Errorf("remove retried entry: %w", err)
	}
	s.log.Info("retry succeeded",
		"queue_id", entry.ID,
		"branch", res.BranchID,
		"number", res.InvoiceNumber,
		"mark", result.Mark,
	)
	return res, nil
}

// RetryReport summarizes a RetryAll run.
type RetryReport struct {
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Results   []RetryResult `json:"results"`
}

// RetryAll retries every queued payload one after the other, over a snapshot
// of the queue taken when it starts. Entries removed since the snapshot are
// skipped.
func (s *Service) RetryAll(ctx context.Context) (RetryReport, error) {
	snapshot, err := s.queue.List(ctx)
	if err != nil {
		return RetryReport{}, err
	}

	report := RetryReport{Results: make([]RetryResult, 0, len(snapshot))}
	for _, entry := range snapshot {
		if err := s.pacer.Wait(ctx); err != nil {
			return report, err
		}
		res, err := s.retry(ctx, entry)
		if errors.Is(err, queue.ErrNotFound) {
			continue
		}
		if err != nil {
			return report, err
		}
		report.Attempted++
		if res.OK {
			report.Succeeded++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, res)
	}

	s.log.Info("retry queue processed",
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)
	return report, nil
}

// ListQueue returns the retry queue in insertion order.
func (s *Service) ListQueue(ctx context.Context) ([]queue.FailedEntry, error) {
	return s.queue.List(ctx)
}

// DiscardFailed removes a queued payload without retrying it.
func (s *Service) DiscardFailed(ctx context.Context, queueID string) error {
	return s.queue.Remove(ctx, queueID)
}

// Cancel asks myDATA to cancel a sent invoice. The entry becomes cancelled
// only when a cancellation mark comes back; otherwise it is left as is.
func (s *Service) Cancel(ctx context.Context, entryID, reasonCode string) (history.Entry, error) {
	reason, err := mydata.ParseCancelReason(reasonCode)
	if err != nil {
		return history.Entry{}, err
	}
	entry, err := s.ledger.Get(ctx, entryID)
	if err != nil {
		return history.Entry{}, err
	}
	if !entry.Sent() {
		return history.Entry{}, fmt.Errorf("%w: status is %s", ErrNotCancellable, entry.Status)
	}

	release, err := s.locks.acquire(ctx, entry.BranchID)
	if err != nil {
		return history.Entry{}, err
	}
	defer release()

	result := s.gateway.Cancel(ctx, mydata.CancelRequest{
		InvoiceNumber: entry.InvoiceNumber,
		BranchID:      entry.BranchID,
		Reason:        reason,
	})
	if !result.OK() {
		msg := result.Error
		if msg == "" {
			msg = "no cancellation mark returned"
		}
		s.log.Warn("cancellation rejected",
			"entry_id", entry.ID,
			"number", entry.InvoiceNumber,
			"error", msg,
		)
		return history.Entry{}, fmt.Errorf("%w: %s", ErrCancelRejected, msg)
	}

	cancelledAt := s.now().UTC()
	updated, err := s.ledger.Update(ctx, entry.ID, func(e *history.Entry) error {
		if !e.Sent() {
			return fmt.Errorf("%w: status is %s", ErrNotCancellable, e.Status)
		}
		e.Status = history.StatusCancelled
		e.CancelMark = result.CancelMark
		e.CancelReason = string(reason)
		e.CancelledAt = &cancelledAt
		return nil
	})
	if err != nil {
		return history.Entry{}, fmt.Errorf("record cancellation: %w", err)
	}
	s.log.Info("invoice cancelled",
		"entry_id", updated.ID,
		"number", updated.InvoiceNumber,
		"cancel_mark", updated.CancelMark,
		"reason", reason.Label(),
	)
	return updated, nil
}
