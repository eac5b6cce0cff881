package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"italiancorner/mydata_core/internal/adapters/kv/memory"
	"italiancorner/mydata_core/internal/core/customer"
	"italiancorner/mydata_core/internal/core/history"
	"italiancorner/mydata_core/internal/core/invoice"
	"italiancorner/mydata_core/internal/core/queue"
)

func entryAt(id string, minute int, status history.Status) history.Entry {
	return history.Entry{
		ID:            id,
		BranchID:      "central",
		InvoiceNumber: id,
		Status:        status,
		Timestamp:     time.Date(2025, 7, 1, 10, minute, 0, 0, time.UTC),
	}
}

func ids(entries []history.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLedger_AppendNewestFirst(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memory.NewStore())

	for i, id := range []string{"a", "b", "c"} {
		if err := l.Append(ctx, entryAt(id, i, history.StatusSent)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	entries, err := l.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := ids(entries); !equalIDs(got, []string{"c", "b", "a"}) {
		t.Errorf("expected [c b a], got %v", got)
	}
}

func TestLedger_TrashRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memory.NewStore())
	for i, id := range []string{"a", "b", "c"} {
		if err := l.Append(ctx, entryAt(id, i, history.StatusSent)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	before, _ := l.List(ctx)

	trashed, err := l.MoveToTrash(ctx, "b", time.Now())
	if err != nil {
		t.Fatalf("move to trash: %v", err)
	}
	if trashed.DeletedAt == nil {
		t.Error("expected deletedAt to be set")
	}

	active, _ := l.List(ctx)
	if got := ids(active); !equalIDs(got, []string{"c", "a"}) {
		t.Errorf("expected [c a] after trash, got %v", got)
	}
	trash, _ := l.ListTrash(ctx)
	if len(trash) != 1 || trash[0].ID != "b" || trash[0].DeletedAt == nil {
		t.Fatalf("unexpected trash %+v", trash)
	}

	restored, err := l.Restore(ctx, "b")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.DeletedAt != nil {
		t.Error("expected deletedAt to be cleared")
	}

	after, _ := l.List(ctx)
	if !equalIDs(ids(after), ids(before)) {
		t.Errorf("expected %v after restore, got %v", ids(before), ids(after))
	}
	for _, e := range after {
		if e.DeletedAt != nil {
			t.Errorf("entry %s still has deletedAt", e.ID)
		}
	}
	if trash, _ := l.ListTrash(ctx); len(trash) != 0 {
		t.Errorf("expected empty trash, got %d entries", len(trash))
	}
}

// gatedStore holds the first write to one key until release is closed.
type gatedStore struct {
	*memory.Store
	key     string
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func (g *gatedStore) CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (bool, error) {
	if key == g.key {
		first := false
		g.once.Do(func() { first = true })
		if first {
			close(g.reached)
			<-g.release
		}
	}
	return g.Store.CompareAndSwap(ctx, key, version, value)
}

func TestLedger_ConcurrentMoveToTrashKeepsEntry(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{
		Store:   memory.NewStore(),
		key:     keyHistory,
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}
	l := NewLedger(store.Store)
	if err := l.Append(ctx, entryAt("a", 0, history.StatusFailed)); err != nil {
		t.Fatalf("append: %v", err)
	}
	l = NewLedger(store)

	errA := make(chan error, 1)
	go func() {
		_, err := l.MoveToTrash(ctx, "a", time.Now())
		errA <- err
	}()
	<-store.reached

	if _, err := l.MoveToTrash(ctx, "a", time.Now()); err != nil {
		t.Fatalf("expected second delete to succeed, got %v", err)
	}
	close(store.release)

	if err := <-errA; !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound for the losing delete, got %v", err)
	}
	if active, _ := l.List(ctx); len(active) != 0 {
		t.Errorf("expected empty history, got %v", ids(active))
	}
	trash, _ := l.ListTrash(ctx)
	if got := ids(trash); !equalIDs(got, []string{"a"}) {
		t.Errorf("expected [a] in trash, got %v", got)
	}
}

func TestLedger_Purge(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memory.NewStore())
	_ = l.Append(ctx, entryAt("a", 0, history.StatusFailed))

	if _, err := l.MoveToTrash(ctx, "a", time.Now()); err != nil {
		t.Fatalf("move to trash: %v", err)
	}
	if err := l.Purge(ctx, "a"); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if err := l.Purge(ctx, "a"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second purge, got %v", err)
	}
	if _, err := l.Restore(ctx, "a"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound on restore, got %v", err)
	}
}

func TestLedger_Update(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memory.NewStore())
	_ = l.Append(ctx, entryAt("a", 0, history.StatusSent))

	updated, err := l.Update(ctx, "a", func(e *history.Entry) error {
		e.Status = history.StatusCancelled
		e.CancelMark = "C-1"
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != history.StatusCancelled {
		t.Errorf("expected cancelled, got %s", updated.Status)
	}
	got, _ := l.Get(ctx, "a")
	if got.CancelMark != "C-1" {
		t.Errorf("expected cancel mark to persist, got %q", got.CancelMark)
	}

	if _, err := l.Update(ctx, "missing", func(*history.Entry) error { return nil }); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	boom := errors.New("boom")
	if _, err := l.Update(ctx, "a", func(e *history.Entry) error {
		e.Status = history.StatusFailed
		return boom
	}); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if got, _ := l.Get(ctx, "a"); got.Status != history.StatusCancelled {
		t.Errorf("expected aborted update to leave status, got %s", got.Status)
	}
}

func TestQueue(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(memory.NewStore())

	for _, id := range []string{"q1", "q2", "q3"} {
		if err := q.Enqueue(ctx, queue.FailedEntry{ID: id, Error: "X"}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if err := q.Remove(ctx, "q2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	entries, _ := q.List(ctx)
	if len(entries) != 2 || entries[0].ID != "q1" || entries[1].ID != "q3" {
		t.Errorf("unexpected queue %+v", entries)
	}
	if err := q.Remove(ctx, "q2"); !errors.Is(err, queue.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := q.Get(ctx, "q3"); err != nil {
		t.Errorf("expected q3, got %v", err)
	}
}

func TestCustomerBook(t *testing.T) {
	ctx := context.Background()
	b := NewCustomerBook(memory.NewStore())

	created, err := b.Upsert(ctx, "villa1", customer.Customer{Name: "A", VAT: "1"})
	if err != nil || !created {
		t.Fatalf("expected create, got %v, %v", created, err)
	}
	_, _ = b.Upsert(ctx, "villa1", customer.Customer{Name: "B", VAT: "2"})
	created, _ = b.Upsert(ctx, "villa1", customer.Customer{Name: "A2", VAT: "1"})
	if created {
		t.Error("expected update of existing VAT")
	}

	list, _ := b.List(ctx, "villa1")
	if len(list) != 2 || list[0].VAT != "2" || list[1].Name != "A2" {
		t.Errorf("unexpected customers %+v", list)
	}
	if other, _ := b.List(ctx, "villa2"); len(other) != 0 {
		t.Errorf("expected books to be per branch, got %+v", other)
	}

	if err := b.Delete(ctx, "villa1", "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := b.Delete(ctx, "villa1", "1"); !errors.Is(err, customer.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCounters(t *testing.T) {
	ctx := context.Background()
	c := NewCounters(memory.NewStore())

	if n, _ := c.Current(ctx, "central"); n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
	raised, _ := c.RaiseTo(ctx, "central", 5)
	if !raised {
		t.Error("expected raise from 0 to 5")
	}
	raised, _ = c.RaiseTo(ctx, "central", 3)
	if raised {
		t.Error("expected no raise to a lower value")
	}
	if err := c.Set(ctx, "central", 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	if n, _ := c.Current(ctx, "central"); n != 2 {
		t.Errorf("expected absolute set to 2, got %d", n)
	}
	if n, _ := c.Current(ctx, "villa1"); n != 0 {
		t.Errorf("expected independent counters, got %d", n)
	}
}

func TestDrafts(t *testing.T) {
	ctx := context.Background()
	d := NewDrafts(memory.NewStore())

	if _, err := d.LoadDraft(ctx); !errors.Is(err, invoice.ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound, got %v", err)
	}
	draft := invoice.Invoice{BranchID: "villa2", Number: "0003", Items: []invoice.LineItem{{Description: "Stay", Quantity: 1}}}
	if err := d.SaveDraft(ctx, draft); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := d.LoadDraft(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Number != "0003" || len(got.Items) != 1 {
		t.Errorf("unexpected draft %+v", got)
	}
}
