// Package syncloop drains the durable outbox: it periodically lists pending
// jobs oldest-first, delivers each through the streaming uploader and deletes
// a job only after confirmed remote success. Retry and backoff policy lives
// here, not in the queue — the queue only guarantees that an undelivered job
// stays visible.
package syncloop

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/receiptdesk/internal/common"
	"github.com/dmitrijs2005/receiptdesk/internal/logging"
	"github.com/dmitrijs2005/receiptdesk/internal/models"
	"github.com/dmitrijs2005/receiptdesk/internal/repositories/outbox"
)

// Uploader is the slice of the upload client the loop needs. Each delivery
// attempt runs under a fresh transfer id: a failed or cancelled transfer is
// never resumed.
type Uploader interface {
	Start(ctx context.Context, uploadID string, job models.SyncJob) (json.RawMessage, error)
}

type Loop struct {
	queue       outbox.Repository
	uploader    Uploader
	interval    time.Duration
	maxAttempts uint64
	backoffBase time.Duration
	log         logging.Logger
}

func New(queue outbox.Repository, uploader Uploader, interval time.Duration, log logging.Logger) *Loop {
	return &Loop{
		queue:       queue,
		uploader:    uploader,
		interval:    interval,
		maxAttempts: 3,
		backoffBase: 500 * time.Millisecond,
		log:         log,
	}
}

// Run ticks until ctx is cancelled, flushing the queue on every tick.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Flush(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Flush lists pending jobs in id order and attempts delivery of each. A job
// is deleted only after a successful round trip; failed jobs stay queued for
// the next tick (at-least-once, duplicates possible downstream).
func (l *Loop) Flush(ctx context.Context) {
	jobs, err := l.queue.List(ctx, 0)
	if err != nil {
		l.log.Error(ctx, "failed to list pending jobs", "error", err)
		return
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}

		if err := l.deliver(ctx, job); err != nil {
			if errors.Is(err, common.ErrTransferCancelled) {
				l.log.Info(ctx, "job delivery cancelled", "jobId", job.ID)
			} else {
				l.log.Warn(ctx, "job delivery failed, job stays queued", "jobId", job.ID, "error", err)
			}
			continue
		}

		if err := l.queue.Delete(ctx, job.ID); err != nil {
			// The job will be re-delivered next tick; the remote side must
			// tolerate the duplicate.
			l.log.Error(ctx, "failed to delete delivered job", "jobId", job.ID, "error", err)
		}
	}
}

// deliver runs one job with bounded fibonacci backoff. Cancellation is a
// deliberate abort and is never retried.
func (l *Loop) deliver(ctx context.Context, job models.SyncJob) error {
	backoff := retry.WithMaxRetries(l.maxAttempts, retry.NewFibonacci(l.backoffBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := l.uploader.Start(ctx, uuid.NewString(), job)
		if err != nil {
			if errors.Is(err, common.ErrTransferCancelled) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
}
