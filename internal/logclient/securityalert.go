package logclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"graphsentry/internal/model"
)

// SecurityAlertClient fetches security alerts raised by upstream detection
// engines (identity protection, endpoint, etc).
type SecurityAlertClient struct {
	base baseClient
}

// NewSecurityAlertClient builds a client against the security alerts feed.
func NewSecurityAlertClient(baseURL string, credentials *CredentialCache, timeout time.Duration) *SecurityAlertClient {
	return &SecurityAlertClient{base: newBaseClient(baseURL, credentials, timeout)}
}

type securityAlertResponse struct {
	Value []map[string]any `json:"value"`
}

// FetchSince returns security alerts for tenantID created in [since, now).
func (c *SecurityAlertClient) FetchSince(ctx context.Context, tenantID string, since, now time.Time) ([]model.Event, error) {
	filter := fmt.Sprintf("createdDateTime ge %s and createdDateTime lt %s",
		since.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	path := "/v1.0/security/alerts_v2?$filter=" + url.QueryEscape(filter)

	var resp securityAlertResponse
	if err := c.base.get(ctx, tenantID, path, &resp); err != nil {
		return nil, err
	}
	return toEvents(resp.Value), nil
}
