package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"italiancorner/mydata_core/internal/core/history"
	"italiancorner/mydata_core/internal/core/kv"
)

// Ledger implements history.Ledger with the active list and the trash under
// separate keys, both newest first.
type Ledger struct {
	kv kv.Store
}

// NewLedger creates a ledger backed by store.
func NewLedger(store kv.Store) *Ledger {
	return &Ledger{kv: store}
}

var _ history.Ledger = (*Ledger)(nil)

func (l *Ledger) Append(ctx context.Context, entry history.Entry) error {
	_, err := kv.Update(ctx, l.kv, keyHistory, func(entries *[]history.Entry) error {
		*entries = slices.Insert(*entries, 0, entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}
	return nil
}

func (l *Ledger) List(ctx context.Context) ([]history.Entry, error) {
	entries, err := kv.Load[[]history.Entry](ctx, l.kv, keyHistory)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return entries, nil
}

func (l *Ledger) ListTrash(ctx context.Context) ([]history.Entry, error) {
	entries, err := kv.Load[[]history.Entry](ctx, l.kv, keyTrash)
	if err != nil {
		return nil, fmt.Errorf("load trash: %w", err)
	}
	return entries, nil
}

func (l *Ledger) Get(ctx context.Context, id string) (history.Entry, error) {
	entries, err := l.List(ctx)
	if err != nil {
		return history.Entry{}, err
	}
	i := indexOf(entries, id)
	if i < 0 {
		return history.Entry{}, history.ErrNotFound
	}
	return entries[i], nil
}

func (l *Ledger) Update(ctx context.Context, id string, fn func(*history.Entry) error) (history.Entry, error) {
	var updated history.Entry
	_, err := kv.Update(ctx, l.kv, keyHistory, func(entries *[]history.Entry) error {
		i := indexOf(*entries, id)
		if i < 0 {
			return history.ErrNotFound
		}
		e := (*entries)[i]
		if err := fn(&e); err != nil {
			return err
		}
		(*entries)[i] = e
		updated = e
		return nil
	})
	if err != nil {
		return history.Entry{}, err
	}
	return updated, nil
}

// MoveToTrash takes the entry out of the active list and then adds it to the
// trash. Only the caller that removed it from the list writes the trash copy,
// so concurrent deletes of one entry cannot lose it. If the trash write fails
// the entry is put back.
func (l *Ledger) MoveToTrash(ctx context.Context, id string, at time.Time) (history.Entry, error) {
	var entry history.Entry
	if _, err := kv.Update(ctx, l.kv, keyHistory, func(entries *[]history.Entry) error {
		i := indexOf(*entries, id)
		if i < 0 {
			return history.ErrNotFound
		}
		entry = (*entries)[i]
		*entries = slices.Delete(*entries, i, i+1)
		return nil
	}); err != nil {
		return history.Entry{}, fmt.Errorf("remove from history: %w", err)
	}

	deletedAt := at.UTC()
	entry.DeletedAt = &deletedAt

	if _, err := kv.Update(ctx, l.kv, keyTrash, func(trash *[]history.Entry) error {
		if i := indexOf(*trash, id); i >= 0 {
			(*trash)[i] = entry
			return nil
		}
		*trash = slices.Insert(*trash, 0, entry)
		return nil
	}); err != nil {
		restored := entry
		restored.DeletedAt = nil
		if _, rerr := kv.Update(ctx, l.kv, keyHistory, insertChronological(restored)); rerr != nil {
			return history.Entry{}, fmt.Errorf("add to trash: %w (entry %s not restored: %v)", err, id, rerr)
		}
		return history.Entry{}, fmt.Errorf("add to trash: %w", err)
	}
	return entry, nil
}

// Restore moves a trashed entry back to the active list at its chronological
// position and clears DeletedAt.
func (l *Ledger) Restore(ctx context.Context, id string) (history.Entry, error) {
	trash, err := l.ListTrash(ctx)
	if err != nil {
		return history.Entry{}, err
	}
	i := indexOf(trash, id)
	if i < 0 {
		return history.Entry{}, history.ErrNotFound
	}
	entry := trash[i]
	entry.DeletedAt = nil

	if _, err := kv.Update(ctx, l.kv, keyHistory, insertChronological(entry)); err != nil {
		return history.Entry{}, fmt.Errorf("restore to history: %w", err)
	}

	if _, err := kv.Update(ctx, l.kv, keyTrash, removeByID(id)); err != nil {
		return history.Entry{}, fmt.Errorf("remove from trash: %w", err)
	}
	return entry, nil
}

// Purge permanently deletes an entry from the trash.
func (l *Ledger) Purge(ctx context.Context, id string) error {
	_, err := kv.Update(ctx, l.kv, keyTrash, func(trash *[]history.Entry) error {
		i := indexOf(*trash, id)
		if i < 0 {
			return history.ErrNotFound
		}
		*trash = slices.Delete(*trash, i, i+1)
		return nil
	})
	return err
}

// insertChronological puts entry back at its position in a newest-first list.
// An entry already present is left alone.
func insertChronological(entry history.Entry) func(*[]history.Entry) error {
	return func(entries *[]history.Entry) error {
		if indexOf(*entries, entry.ID) >= 0 {
			return nil
		}
		pos := slices.IndexFunc(*entries, func(e history.Entry) bool {
			return e.Timestamp.Before(entry.Timestamp)
		})
		if pos < 0 {
			pos = len(*entries)
		}
		*entries = slices.Insert(*entries, pos, entry)
		return nil
	}
}

func removeByID(id string) func(*[]history.Entry) error {
	return func(entries *[]history.Entry) error {
		*entries = slices.DeleteFunc(*entries, func(e history.Entry) bool { return e.ID == id })
		return nil
	}
}

func indexOf(entries []history.Entry, id string) int {
	return slices.IndexFunc(entries, func(e history.Entry) bool { return e.ID == id })
}
