// Package store keeps the invoicing collections in a kv.Store, one JSON
// document per key. Every mutation goes through kv.Update, so concurrent
// writers retry instead of overwriting each other.
package store

const (
	keyFailedQueue = "aade_failed_queue"
	keyHistory     = "invoices_history"
	keyTrash       = "invoices_trash"
	keyDraft       = "invoice_draft"
)

func customersKey(branchID string) string {
	return "customers_" + branchID
}

func sequenceKey(branchID string) string {
	return "invoice_sequence_" + branchID
}
