package invoice

import (
	"errors"
	"fmt"
	"strings"

	"italiancorner/mydata_core/internal/core/branch"
)

// ErrValidation is matched by *ValidationError.
var ErrValidation = errors.New("invoice is not valid")

// ValidationError lists every problem the local validator found.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Check runs Validate and returns the problems as a *ValidationError, or nil.
func Check(inv Invoice, registry *branch.Registry) error {
	if errs := Validate(inv, registry); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Validate checks an invoice against the branch registry and returns every
// problem found, in a stable order. An empty result means the invoice may be
// previewed, printed or submitted.
func Validate(inv Invoice, registry *branch.Registry) []string {
	var errs []string
	if strings.TrimSpace(inv.Number) == "" {
		errs = append(errs, "invoice number is required")
	}
	if strings.TrimSpace(inv.Date) == "" {
		errs = append(errs, "invoice date is required")
	}

	b, known := branch.Branch{}, false
	switch {
	case strings.TrimSpace(inv.BranchID) == "":
		errs = append(errs, "branch is required")
	case registry != nil:
		b, known = registry.Get(inv.BranchID)
		if !known {
			errs = append(errs, "unknown branch")
		}
	default:
		errs = append(errs, "unknown branch")
	}

	if strings.TrimSpace(inv.Customer.Name) == "" {
		errs = append(errs, "customer name is required")
	}
	if strings.TrimSpace(inv.Customer.VAT) == "" {
		errs = append(errs, "customer VAT number is required")
	}
	if len(inv.Items) == 0 {
		errs = append(errs, "at least one line item is required")
	}

	for i, it := range inv.Items {
		line := i + 1
		if strings.TrimSpace(it.Description) == "" {
			errs = append(errs, fmt.Sprintf("line %d: description is required", line))
		}
		if !(it.Quantity > 0) {
			errs = append(errs, fmt.Sprintf("line %d: quantity must be greater than 0", line))
		}
		if !(it.UnitPrice >= 0) {
			errs = append(errs, fmt.Sprintf("line %d: unit price must not be negative", line))
		}
		if known && !b.AllowsVATRate(it.VATRate) {
			errs = append(errs, fmt.Sprintf("line %d: VAT rate %d%% is not allowed for %s", line, it.VATRate, b.Label))
		}
	}
	return errs
}
