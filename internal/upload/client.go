package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/receiptdesk/internal/common"
	"github.com/dmitrijs2005/receiptdesk/internal/logging"
	"github.com/dmitrijs2005/receiptdesk/internal/models"
)

// requestBody is the wire envelope sent for each queued job.
type requestBody struct {
	Action  string          `json:"action"`
	Params  json.RawMessage `json:"params,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Client performs exactly one HTTP round trip per job: no chunked
// resumption, no retry. A failed or cancelled transfer must be restarted by
// the caller under a fresh upload id.
type Client struct {
	endpointURL string
	registry    *Registry
	emitter     Emitter
	http        *http.Client
	log         logging.Logger
}

func NewClient(endpointURL string, registry *Registry, emitter Emitter, log logging.Logger) *Client {
	return &Client{
		endpointURL: endpointURL,
		registry:    registry,
		emitter:     emitter,
		http:        &http.Client{},
		log:         log,
	}
}

// Start registers uploadID, streams the serialized job to the endpoint and
// returns the parsed response verbatim. The flag is removed unconditionally
// once the outcome is known, whether the transfer completed, was cancelled
// or failed.
//
// Cancellation surfaces as common.ErrTransferCancelled, distinct from the
// common.ErrTransferFailed used for network, status and parse failures. A
// flag set before the first byte aborts without any network I/O.
func (c *Client) Start(ctx context.Context, uploadID string, job models.SyncJob) (json.RawMessage, error) {
	if c.endpointURL == "" {
		return nil, fmt.Errorf("%w: missing endpoint URL", common.ErrTransferFailed)
	}

	flag := c.registry.Register(uploadID)
	defer c.registry.Remove(uploadID)

	body := requestBody{Action: job.Action, Params: job.Params, Payload: job.Payload}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request body: %v", common.ErrSerialization, err)
	}
	total := int64(len(data))

	if flag.Load() {
		return nil, common.ErrTransferCancelled
	}

	method := job.Method
	if method == "" {
		method = common.DefaultHTTPMethod
	}

	reader := NewProgressReader(bytes.NewReader(data), total, uploadID, flag, c.emitter)

	req, err := http.NewRequestWithContext(ctx, method, c.endpointURL, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTransferFailed, err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.ContentLength = total

	resp, err := c.http.Do(req)
	if err != nil {
		if flag.Load() || errors.Is(err, common.ErrTransferCancelled) {
			return nil, common.ErrTransferCancelled
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTransferFailed, err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", common.ErrTransferFailed, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: unexpected status %s: %s", common.ErrTransferFailed, resp.Status, text)
	}

	if !json.Valid(text) {
		return nil, fmt.Errorf("%w: response is not valid JSON", common.ErrTransferFailed)
	}

	c.log.Debug(ctx, "upload completed", "uploadId", uploadID, "bytes", total)

	return json.RawMessage(text), nil
}

// Cancel requests cooperative cancellation of a running transfer. It reports
// whether an active flag was found; cancelling an unknown or already-removed
// id returns false.
func (c *Client) Cancel(uploadID string) bool {
	return c.registry.Cancel(uploadID)
}
