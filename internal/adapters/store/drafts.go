package store

import (
	"context"
	"fmt"

	"italiancorner/mydata_core/internal/core/invoice"
	"italiancorner/mydata_core/internal/core/kv"
)

// Drafts implements invoice.DraftRepository with a single slot.
type Drafts struct {
	kv kv.Store
}

func NewDrafts(store kv.Store) *Drafts {
	return &Drafts{kv: store}
}

var _ invoice.DraftRepository = (*Drafts)(nil)

func (d *Drafts) SaveDraft(ctx context.Context, draft invoice.Invoice) error {
	_, err := kv.Update(ctx, d.kv, keyDraft, func(slot **invoice.Invoice) error {
		*slot = &draft
		return nil
	})
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (d *Drafts) LoadDraft(ctx context.Context) (invoice.Invoice, error) {
	draft, err := kv.Load[*invoice.Invoice](ctx, d.kv, keyDraft)
	if err != nil {
		return invoice.Invoice{}, fmt.Errorf("load draft: %w", err)
	}
	if draft == nil {
		return invoice.Invoice{}, invoice.ErrDraftNotFound
	}
	return *draft, nil
}
