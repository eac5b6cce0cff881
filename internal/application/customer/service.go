package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/schollz/closestmatch"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"italiancorner/mydata_core/internal/core/branch"
	corecustomer "italiancorner/mydata_core/internal/core/customer"
)

var (
	ErrInvalidCustomer = errors.New("customer name and VAT number are required")
	// ErrDirectoryUnavailable is returned by Lookup when no registry is configured.
	ErrDirectoryUnavailable = errors.New("VAT registry lookup is not configured")
)

// Service manages the per-branch customer books and the VAT registry lookup.
type Service struct {
	registry  *branch.Registry
	book      corecustomer.Book
	directory corecustomer.Directory
}

// NewService creates a customer service. directory may be nil.
func NewService(registry *branch.Registry, book corecustomer.Book, directory corecustomer.Directory) *Service {
	return &Service{registry: registry, book: book, directory: directory}
}

func (s *Service) List(ctx context.Context, branchID string) ([]corecustomer.Customer, error) {
	if _, err := s.registry.Lookup(branchID); err != nil {
		return nil, err
	}
	return s.book.List(ctx, branchID)
}

// Save adds or updates a customer, keyed by VAT number.
func (s *Service) Save(ctx context.Context, branchID string, c corecustomer.Customer) (corecustomer.Customer, bool, error) {
	if _, err := s.registry.Lookup(branchID); err != nil {
		return corecustomer.Customer{}, false, err
	}
	c.Name = strings.TrimSpace(c.Name)
	c.VAT = strings.TrimSpace(c.VAT)
	if c.Name == "" || c.VAT == "" {
		return corecustomer.Customer{}, false, ErrInvalidCustomer
	}
	created, err := s.book.Upsert(ctx, branchID, c)
	if err != nil {
		return corecustomer.Customer{}, false, err
	}
	return c, created, nil
}

func (s *Service) Delete(ctx context.Context, branchID, vat string) error {
	if _, err := s.registry.Lookup(branchID); err != nil {
		return err
	}
	return s.book.Delete(ctx, branchID, vat)
}

// Search matches the query against name, VAT number and city, ignoring case
// and accents. When nothing matches, the customer with the closest name is
// returned instead.
func (s *Service) Search(ctx context.Context, branchID, query string) ([]corecustomer.Customer, error) {
	customers, err := s.List(ctx, branchID)
	if err != nil {
		return nil, err
	}
	q := fold(query)
	if q == "" {
		return customers, nil
	}

	var matches []corecustomer.Customer
	for _, c := range customers {
		if strings.Contains(fold(c.Name), q) || strings.Contains(fold(c.VAT), q) || strings.Contains(fold(c.City), q) {
			matches = append(matches, c)
		}
	}
	if len(matches) > 0 || len(customers) == 0 {
		return matches, nil
	}

	byName := make(map[string]corecustomer.Customer, len(customers))
	names := make([]string, 0, len(customers))
	for _, c := range customers {
		key := fold(c.Name)
		if _, seen := byName[key]; !seen {
			byName[key] = c
			names = append(names, key)
		}
	}
	cm := closestmatch.New(names, []int{2, 3})
	if best := cm.Closest(q); best != "" {
		return []corecustomer.Customer{byName[best]}, nil
	}
	return nil, nil
}

// Lookup fetches a company from the VAT registry to prefill a customer.
func (s *Service) Lookup(ctx context.Context, vat string) (*corecustomer.Record, error) {
	if s.directory == nil {
		return nil, ErrDirectoryUnavailable
	}
	vat = strings.TrimSpace(vat)
	if vat == "" {
		return nil, fmt.Errorf("%w: vat is required", ErrInvalidCustomer)
	}
	return s.directory.LookupByVAT(ctx, vat)
}

// fold lowercases s and strips combining marks, so "Ρέθυμνο" matches "ρεθυμνο".
func fold(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return strings.ToLower(strings.TrimSpace(result))
}
