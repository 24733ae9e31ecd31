package upload

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/receiptdesk/internal/common"
	"github.com/dmitrijs2005/receiptdesk/internal/logging"
	"github.com/dmitrijs2005/receiptdesk/internal/models"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testJob() models.SyncJob {
	return models.SyncJob{
		ID:      1,
		Action:  "uploadPaymentAttachment",
		Method:  "POST",
		Params:  json.RawMessage(`{}`),
		Payload: json.RawMessage(`{"fileName":"receipt.jpg"}`),
	}
}

func TestStart_SuccessReturnsParsedResponse(t *testing.T) {
	var gotBody []byte
	var gotHeader http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"ok":true,"id":"abc"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewRegistry(), &collectEmitter{}, testLogger())

	result, err := c.Start(context.Background(), "u1", testJob())
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"id":"abc"}`, string(result))

	assert.Equal(t, "text/plain", gotHeader.Get("Content-Type"))

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &envelope))
	assert.Equal(t, "uploadPaymentAttachment", envelope["action"])
	assert.Contains(t, envelope, "payload")
}

func TestStart_EmitsFinalDoneEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	emitter := &collectEmitter{}
	c := NewClient(srv.URL, NewRegistry(), emitter, testLogger())

	_, err := c.Start(context.Background(), "u1", testJob())
	require.NoError(t, err)

	require.NotEmpty(t, emitter.events)
	last := emitter.events[len(emitter.events)-1]
	assert.True(t, last.Done)
	assert.Equal(t, last.Total, last.Loaded)
}

// cancellingEmitter cancels the transfer from inside the first progress
// callback, which runs synchronously on the reader path.
type cancellingEmitter struct {
	registry *Registry
	id       string
	fired    atomic.Bool
}

func (e *cancellingEmitter) Emit(event string, payload models.UploadProgress) error {
	if e.fired.CompareAndSwap(false, true) {
		e.registry.Cancel(e.id)
	}
	return nil
}

func TestStart_CancelMidTransferIsTransferCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	registry := NewRegistry()
	emitter := &cancellingEmitter{registry: registry, id: "u1"}
	c := NewClient(srv.URL, registry, emitter, testLogger())

	// A payload large enough that the body is still streaming when the
	// first progress event fires and cancels the transfer.
	job := testJob()
	big := make([]byte, 4<<20)
	payload, err := json.Marshal(map[string]any{"data": big})
	require.NoError(t, err)
	job.Payload = payload

	_, err = c.Start(context.Background(), "u1", job)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransferCancelled)
	assert.NotErrorIs(t, err, common.ErrTransferFailed)
}

func TestStart_NonSuccessStatusIsTransferFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewRegistry(), &collectEmitter{}, testLogger())

	_, err := c.Start(context.Background(), "u1", testJob())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransferFailed)
	assert.NotErrorIs(t, err, common.ErrTransferCancelled)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestStart_MalformedResponseIsTransferFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewRegistry(), &collectEmitter{}, testLogger())

	_, err := c.Start(context.Background(), "u1", testJob())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransferFailed)
}

func TestStart_MissingEndpointFails(t *testing.T) {
	c := NewClient("", NewRegistry(), &collectEmitter{}, testLogger())

	_, err := c.Start(context.Background(), "u1", testJob())
	assert.ErrorIs(t, err, common.ErrTransferFailed)
}

func TestStart_RemovesFlagAfterOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	registry := NewRegistry()
	c := NewClient(srv.URL, registry, &collectEmitter{}, testLogger())

	_, err := c.Start(context.Background(), "u1", testJob())
	require.NoError(t, err)

	// Removed unconditionally: cancelling after completion is a negative no-op.
	assert.False(t, c.Cancel("u1"))
}

func TestCancel_UnknownIdReturnsFalse(t *testing.T) {
	c := NewClient("http://unused.invalid", NewRegistry(), &collectEmitter{}, testLogger())
	assert.False(t, c.Cancel("never-started"))
}
