package logclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"graphsentry/internal/model"
)

// SignInClient fetches interactive sign-in log entries.
type SignInClient struct {
	base baseClient
}

// NewSignInClient builds a client against the sign-in log endpoint.
func NewSignInClient(baseURL string, credentials *CredentialCache, timeout time.Duration) *SignInClient {
	return &SignInClient{base: newBaseClient(baseURL, credentials, timeout)}
}

type signInResponse struct {
	Value []map[string]any `json:"value"`
}

// FetchSince returns sign-in events for tenantID created in [since, now).
func (c *SignInClient) FetchSince(ctx context.Context, tenantID string, since, now time.Time) ([]model.Event, error) {
	filter := fmt.Sprintf("createdDateTime ge %s and createdDateTime lt %s",
		since.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	path := "/v1.0/auditLogs/signIns?$filter=" + url.QueryEscape(filter)

	var resp signInResponse
	if err := c.base.get(ctx, tenantID, path, &resp); err != nil {
		return nil, err
	}
	return toEvents(resp.Value), nil
}
