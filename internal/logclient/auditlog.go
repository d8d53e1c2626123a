package logclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"graphsentry/internal/model"
)

// AuditLogClient fetches unified audit log content. Unlike the sign-in and
// security alert feeds, the audit log requires an active content
// subscription per tenant before any content is available.
type AuditLogClient struct {
	base baseClient
}

// NewAuditLogClient builds a client against the audit log content API.
func NewAuditLogClient(baseURL string, credentials *CredentialCache, timeout time.Duration) *AuditLogClient {
	return &AuditLogClient{base: newBaseClient(baseURL, credentials, timeout)}
}

// EnsureSubscription starts the content subscription for contentType if one
// isn't already active. The upstream API treats "start" as idempotent: a
// second start for an already-active subscription returns success, so this
// is safe to call unconditionally at the top of every run. A "tenant does
// not exist" response is reclassified as auditLogDisabled — the audit
// feature itself is unavailable for the tenant, not a hard authorization
// failure.
func (c *AuditLogClient) EnsureSubscription(ctx context.Context, tenantID, contentType string) error {
	path := "/subscriptions/start?contentType=" + url.QueryEscape(contentType)
	err := c.base.post(ctx, tenantID, path, nil)
	if err == nil {
		return nil
	}
	if Classify(err) == ErrTenantNotFound {
		return &FetchError{Class: ErrAuditLogDisabled, Err: err}
	}
	return err
}

type contentBlob struct {
	ContentURI string `json:"contentUri"`
}

// FetchSince lists available content blobs in [since, now) and downloads
// each, flattening their JSON arrays into the returned event slice.
func (c *AuditLogClient) FetchSince(ctx context.Context, tenantID string, since, now time.Time) ([]model.Event, error) {
	listPath := fmt.Sprintf("/subscriptions/content?contentType=Audit.General&startTime=%s&endTime=%s",
		url.QueryEscape(since.UTC().Format(time.RFC3339)), url.QueryEscape(now.UTC().Format(time.RFC3339)))

	var blobs []contentBlob
	if err := c.base.get(ctx, tenantID, listPath, &blobs); err != nil {
		return nil, err
	}

	var events []model.Event
	for _, blob := range blobs {
		var records []map[string]any
		if err := c.base.get(ctx, tenantID, blob.ContentURI, &records); err != nil {
			return nil, err
		}
		events = append(events, toEvents(records)...)
	}
	return events, nil
}
