package syncloop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/receiptdesk/internal/common"
	"github.com/dmitrijs2005/receiptdesk/internal/logging"
	"github.com/dmitrijs2005/receiptdesk/internal/models"
	"github.com/dmitrijs2005/receiptdesk/internal/repositories/outbox"
	"github.com/dmitrijs2005/receiptdesk/internal/store"
)

// fakeUploader succeeds or fails per action and records delivered jobs.
type fakeUploader struct {
	failActions map[string]error
	delivered   []int64
	attempts    map[int64]int
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{failActions: map[string]error{}, attempts: map[int64]int{}}
}

func (f *fakeUploader) Start(ctx context.Context, uploadID string, job models.SyncJob) (json.RawMessage, error) {
	f.attempts[job.ID]++
	if err, ok := f.failActions[job.Action]; ok {
		return nil, err
	}
	f.delivered = append(f.delivered, job.ID)
	return json.RawMessage(`{"ok":true}`), nil
}

func setupQueue(t *testing.T) outbox.Repository {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "app.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return outbox.NewSQLiteRepository(s)
}

func newLoop(queue outbox.Repository, uploader Uploader) *Loop {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	l := New(queue, uploader, time.Second, log)
	l.backoffBase = time.Millisecond
	return l
}

func TestFlush_DeliversInOrderAndDeletes(t *testing.T) {
	queue := setupQueue(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := queue.Add(ctx, outbox.AddParams{Action: "upload", Payload: i})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	uploader := newFakeUploader()
	newLoop(queue, uploader).Flush(ctx)

	assert.Equal(t, ids, uploader.delivered)

	count, err := queue.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFlush_FailedJobStaysQueued(t *testing.T) {
	queue := setupQueue(t)
	ctx := context.Background()

	okID, err := queue.Add(ctx, outbox.AddParams{Action: "upload", Payload: 1})
	require.NoError(t, err)
	badID, err := queue.Add(ctx, outbox.AddParams{Action: "broken", Payload: 2})
	require.NoError(t, err)

	uploader := newFakeUploader()
	uploader.failActions["broken"] = fmt.Errorf("%w: boom", common.ErrTransferFailed)

	newLoop(queue, uploader).Flush(ctx)

	assert.Contains(t, uploader.delivered, okID)

	jobs, err := queue.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, badID, jobs[0].ID)
}

func TestFlush_RetriesFailuresWithBackoff(t *testing.T) {
	queue := setupQueue(t)
	ctx := context.Background()

	id, err := queue.Add(ctx, outbox.AddParams{Action: "flaky", Payload: 1})
	require.NoError(t, err)

	uploader := newFakeUploader()
	uploader.failActions["flaky"] = fmt.Errorf("%w: unreachable", common.ErrTransferFailed)

	newLoop(queue, uploader).Flush(ctx)

	// Initial attempt plus the bounded retries.
	assert.Equal(t, 4, uploader.attempts[id])
}

func TestFlush_CancelledJobIsNotRetried(t *testing.T) {
	queue := setupQueue(t)
	ctx := context.Background()

	id, err := queue.Add(ctx, outbox.AddParams{Action: "cancelled", Payload: 1})
	require.NoError(t, err)

	uploader := newFakeUploader()
	uploader.failActions["cancelled"] = common.ErrTransferCancelled

	newLoop(queue, uploader).Flush(ctx)

	assert.Equal(t, 1, uploader.attempts[id])

	// The job stays queued; a cancel is not a confirmed delivery.
	count, err := queue.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	queue := setupQueue(t)
	uploader := newFakeUploader()

	l := New(queue, uploader, time.Millisecond, logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after context cancellation")
	}
}
