// Package sink uploads a run's alert batch to the downstream log-ingestion
// service in a single call, identified by a stream name and a stable rule
// id. It never stores anything itself — the sink is the system of record.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"graphsentry/internal/model"
)

// Uploader submits a batch of alert rows to the ingestion endpoint.
type Uploader interface {
	Upload(ctx context.Context, ruleID, streamName string, rows []model.Alert) error
}

// HTTPUploader posts the batch as a single JSON document to a configured
// ingestion URL.
type HTTPUploader struct {
	client   *http.Client
	endpoint string
}

// NewHTTPUploader builds an Uploader posting to endpoint.
func NewHTTPUploader(endpoint string, timeout time.Duration) *HTTPUploader {
	return &HTTPUploader{client: &http.Client{Timeout: timeout}, endpoint: endpoint}
}

type uploadRequest struct {
	RuleID     string        `json:"ruleId"`
	StreamName string        `json:"streamName"`
	Rows       []model.Alert `json:"rows"`
}

// Upload submits rows in a single request. An empty batch is a no-op —
// the ingestion endpoint is never called with nothing to send.
func (u *HTTPUploader) Upload(ctx context.Context, ruleID, streamName string, rows []model.Alert) error {
	if len(rows) == 0 {
		return nil
	}

	body, err := json.Marshal(uploadRequest{RuleID: ruleID, StreamName: streamName, Rows: rows})
	if err != nil {
		return fmt.Errorf("sink: marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sink: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("sink: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sink: upload returned status %d", resp.StatusCode)
	}
	return nil
}
