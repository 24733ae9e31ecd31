package models

import "encoding/json"

// SyncJob is one row of the durable outbox: a remote action pending delivery.
// Ids are store-assigned, strictly increasing and never reused; a job stays
// queued until explicitly deleted after confirmed delivery (at-least-once).
type SyncJob struct {
	// ID is the store-assigned, strictly increasing identity.
	ID int64

	// Action discriminates the remote operation.
	Action string

	// Method is the HTTP method used for delivery. Defaults to POST.
	Method string

	// Params carries opaque request parameters.
	Params json.RawMessage

	// Payload carries the opaque request body content.
	Payload json.RawMessage

	// CreatedAt is the UnixMilli timestamp at enqueue.
	CreatedAt int64
}
