package queue

import (
	"context"
	"errors"
	"time"

	"italiancorner/mydata_core/internal/core/invoice"
)

// FailedEntry is a submission that myDATA did not accept. The payload is
// frozen and resubmitted as-is.
type FailedEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"ts"`
	Payload   invoice.Payload `json:"payload"`
	Error     string          `json:"error"`
}

var ErrNotFound = errors.New("queue entry not found")

// Repository is the ordered retry queue. Entries keep insertion order and
// are never deduplicated.
type Repository interface {
	Enqueue(ctx context.Context, entry FailedEntry) error
	List(ctx context.Context) ([]FailedEntry, error)
	Get(ctx context.Context, id string) (FailedEntry, error)
	Remove(ctx context.Context, id string) error
}
