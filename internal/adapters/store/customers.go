package store

import (
	"context"
	"fmt"
	"slices"

	"italiancorner/mydata_core/internal/core/customer"
	"italiancorner/mydata_core/internal/core/kv"
)

// CustomerBook implements customer.Book with one list per branch.
type CustomerBook struct {
	kv kv.Store
}

func NewCustomerBook(store kv.Store) *CustomerBook {
	return &CustomerBook{kv: store}
}

var _ customer.Book = (*CustomerBook)(nil)

func (b *CustomerBook) List(ctx context.Context, branchID string) ([]customer.Customer, error) {
	customers, err := kv.Load[[]customer.Customer](ctx, b.kv, customersKey(branchID))
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	return customers, nil
}

// Upsert replaces the customer with the same VAT number in place, or puts a
// new one at the front of the list.
func (b *CustomerBook) Upsert(ctx context.Context, branchID string, c customer.Customer) (bool, error) {
	created := false
	_, err := kv.Update(ctx, b.kv, customersKey(branchID), func(customers *[]customer.Customer) error {
		i := slices.IndexFunc(*customers, func(x customer.Customer) bool { return x.VAT == c.VAT })
		if i >= 0 {
			(*customers)[i] = c
			created = false
			return nil
		}
		*customers = slices.Insert(*customers, 0, c)
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("save customer: %w", err)
	}
	return created, nil
}

func (b *CustomerBook) Delete(ctx context.Context, branchID, vat string) error {
	_, err := kv.Update(ctx, b.kv, customersKey(branchID), func(customers *[]customer.Customer) error {
		i := slices.IndexFunc(*customers, func(x customer.Customer) bool { return x.VAT == vat })
		if i < 0 {
			return customer.ErrNotFound
		}
		*customers = slices.Delete(*customers, i, i+1)
		return nil
	})
	return err
}
