package submission

import "errors"

var (
	// ErrRemoteRejected means the myDATA pre-check refused the payload.
	// Nothing is recorded in that case.
	ErrRemoteRejected       = errors.New("myDATA validation rejected the invoice")
	ErrCancelRejected       = errors.New("myDATA rejected the cancellation")
	ErrNotCancellable       = errors.New("only sent invoices can be cancelled")
	ErrNotSurchargeEligible = errors.New("branch does not charge a surcharge")
	ErrNoSurcharge          = errors.New("invoice has no surcharge to issue")
)
