package customer

import (
	"context"
	"errors"
)

// Customer is a counterparty kept in a branch's customer book.
// VAT identifies the customer within one branch.
type Customer struct {
	Name    string `json:"name"`
	VAT     string `json:"vat"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
}

// Book persists the per-branch customer lists.
type Book interface {
	// List returns the customers of a branch, most recently added first.
	List(ctx context.Context, branchID string) ([]Customer, error)
	// Upsert replaces the customer with the same VAT, or prepends it when new.
	Upsert(ctx context.Context, branchID string, c Customer) (created bool, err error)
	// Delete removes the customer with the given VAT. Deleting a missing
	// customer returns ErrNotFound.
	Delete(ctx context.Context, branchID, vat string) error
}

// Record is a company as returned by the GSIS public registry.
type Record struct {
	VAT        string `json:"vat"`
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	TaxOffice  string `json:"doy,omitempty"`
}

// Customer converts the registry record into a customer book entry.
func (r Record) Customer() Customer {
	return Customer{Name: r.Name, VAT: r.VAT, Address: r.Address, City: r.City}
}

// Directory looks up companies in the government VAT registry.
type Directory interface {
	LookupByVAT(ctx context.Context, vat string) (*Record, error)
}

var (
	ErrNotFound = errors.New("customer not found")
	// ErrRecordNotFound is returned by a Directory when the VAT is unknown.
	ErrRecordNotFound = errors.New("vat not found in registry")
	// ErrRegistryUnavailable wraps transport and upstream failures of a Directory.
	ErrRegistryUnavailable = errors.New("vat registry is unavailable")
)
