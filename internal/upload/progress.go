package upload

import (
	"io"
	"sync/atomic"

	"github.com/dmitrijs2005/receiptdesk/internal/common"
	"github.com/dmitrijs2005/receiptdesk/internal/models"
)

// DefaultEmitThreshold is how many bytes must accumulate between progress
// events. It bounds event frequency for large payloads while staying
// responsive for small ones.
const DefaultEmitThreshold = 64 * 1024

// ProgressReader wraps a finite byte source of known total length. On every
// read attempt it first checks the shared cancellation flag — before the
// first byte as well, so a cancellation requested right after registration is
// honored without a single network byte sent. Progress events are coalesced:
// one is emitted when the accumulated bytes since the last event reach the
// threshold, when the total is reached, and a final done event at
// end-of-stream.
//
// It layers over any io.Reader, so it composes with any transport.
type ProgressReader struct {
	inner     io.Reader
	total     int64
	sent      int64
	lastEmit  int64
	emitEvery int64
	uploadID  string
	cancel    *atomic.Bool
	emitter   Emitter
}

func NewProgressReader(inner io.Reader, total int64, uploadID string, cancel *atomic.Bool, emitter Emitter) *ProgressReader {
	return &ProgressReader{
		inner:     inner,
		total:     total,
		emitEvery: DefaultEmitThreshold,
		uploadID:  uploadID,
		cancel:    cancel,
		emitter:   emitter,
	}
}

// SetEmitThreshold overrides the coalescing threshold. Values below one byte
// are ignored.
func (r *ProgressReader) SetEmitThreshold(n int64) {
	if n > 0 {
		r.emitEvery = n
	}
}

func (r *ProgressReader) Read(p []byte) (int, error) {
	if r.cancel.Load() {
		return 0, common.ErrTransferCancelled
	}

	n, err := r.inner.Read(p)
	if n > 0 {
		r.sent += int64(n)
		if r.sent-r.lastEmit >= r.emitEvery || r.sent >= r.total {
			r.emit(r.sent >= r.total)
		}
	}
	if err == io.EOF {
		r.emit(true)
	}
	return n, err
}

// emit publishes a progress event. Delivery failures are swallowed: progress
// is advisory and never fails the transfer.
func (r *ProgressReader) emit(done bool) {
	_ = r.emitter.Emit(common.UploadProgressEvent, models.UploadProgress{
		UploadID: r.uploadID,
		Loaded:   r.sent,
		Total:    r.total,
		Done:     done,
	})
	r.lastEmit = r.sent
}
