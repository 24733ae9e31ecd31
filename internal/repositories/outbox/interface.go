package outbox

import (
	"context"

	"github.com/dmitrijs2005/receiptdesk/internal/models"
)

// AddParams describes a job to enqueue. Action is required; Method defaults
// to POST and Params to an empty object when unset.
type AddParams struct {
	Action  string
	Method  string
	Params  any
	Payload any
}

// Repository is the durable, strictly-ordered outbox of pending remote
// actions. A job stays queued until explicitly deleted after confirmed
// delivery, so consumers must tolerate duplicate attempts.
type Repository interface {
	// Add persists a new job and returns its id once the write is durable.
	Add(ctx context.Context, params AddParams) (int64, error)

	// List returns up to limit jobs ordered ascending by id (oldest first).
	// A non-positive limit falls back to the default of 200.
	List(ctx context.Context, limit int) ([]models.SyncJob, error)

	// Delete removes one job by id; absent ids are a no-op.
	Delete(ctx context.Context, id int64) error

	// Clear removes all jobs (full state reset, e.g. logout).
	Clear(ctx context.Context) error

	// Count returns the number of pending jobs.
	Count(ctx context.Context) (int64, error)
}
