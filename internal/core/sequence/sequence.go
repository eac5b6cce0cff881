package sequence

import (
	"context"
	"fmt"
	"strconv"

	"italiancorner/mydata_core/internal/core/history"
)

// Width is the zero-padded width of generated invoice numbers.
const Width = 4

// CounterStore persists one sequence counter per branch.
// A branch without a stored counter reads as 0.
type CounterStore interface {
	Current(ctx context.Context, branchID string) (int, error)
	Set(ctx context.Context, branchID string, value int) error
	// RaiseTo sets the counter to value only if it is currently lower and
	// reports whether it changed.
	RaiseTo(ctx context.Context, branchID string, value int) (bool, error)
}

// ParseTrailingInteger returns the last run of digits in s, so "I-REST-0042"
// yields 42. It reports false when s holds no digits.
func ParseTrailingInteger(s string) (int, bool) {
	end := len(s)
	for end > 0 && !isDigit(s[end-1]) {
		end--
	}
	if end == 0 {
		return 0, false
	}
	start := end
	for start > 0 && isDigit(s[start-1]) {
		start--
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// HighestSequence is the largest trailing integer among sent entries of the
// branch. Failed and cancelled entries, and numbers without digits, count as 0.
func HighestSequence(branchID string, entries []history.Entry) int {
	highest := 0
	for _, e := range entries {
		if e.BranchID != branchID || e.Status != history.StatusSent {
			continue
		}
		if n, ok := ParseTrailingInteger(e.InvoiceNumber); ok && n > highest {
			highest = n
		}
	}
	return highest
}

// Format zero-pads n to Width digits.
func Format(n int) string {
	return fmt.Sprintf("%0*d", Width, n)
}

// Next returns the number following the larger of the stored counter and the
// highest sent sequence.
func Next(stored, highest int) string {
	return Format(max(stored, highest) + 1)
}
