// Package common defines shared constants and sentinel errors used across
// the store, repository and upload layers of receiptdesk. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Store lifecycle errors.
	ErrStoreInit     = errors.New("store init failed")
	ErrStorePoisoned = errors.New("store poisoned by a previous failure")

	// Query-level errors (bad parameters, driver failures).
	ErrQuery = errors.New("query failed")

	// Value (de)serialization errors.
	ErrSerialization = errors.New("serialization failed")

	// Transfer errors. A cancelled transfer is a deliberate abort and must
	// never be auto-retried; a failed one may be, at the caller's discretion.
	ErrTransferCancelled = errors.New("transfer cancelled")
	ErrTransferFailed    = errors.New("transfer failed")
)
