// Package logclient implements the concrete upstream log feeds — SignIn,
// SecurityAlert, and AuditLog — as HTTP clients sharing a bearer-token
// credential cache and a common request/decode path.
package logclient

import (
	"context"
	"errors"
	"time"

	"graphsentry/internal/model"
)

// ErrorClass classifies an upstream failure per the tenant status
// vocabulary. Never used for control flow beyond that classification: a
// per-tenant error never aborts the run.
type ErrorClass string

const (
	ErrAppNotConsented ErrorClass = "appNotConsented"
	ErrTenantNotFound  ErrorClass = "tenantNotFound"
	ErrPermissionDenied ErrorClass = "permissionDenied"
	ErrAuditLogDisabled ErrorClass = "auditLogDisabled"
	ErrGeneric          ErrorClass = "error"
)

// FetchError wraps an upstream failure with its classification so callers
// can map it directly onto model.TenantStatus without re-parsing messages.
type FetchError struct {
	Class ErrorClass
	Err   error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return string(e.Class)
	}
	return string(e.Class) + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// Classify extracts the ErrorClass carried by err, defaulting to
// ErrGeneric for anything that isn't a *FetchError.
func Classify(err error) ErrorClass {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Class
	}
	return ErrGeneric
}

// Client fetches events for one tenant produced since a watermark.
type Client interface {
	FetchSince(ctx context.Context, tenantID string, since, now time.Time) ([]model.Event, error)
}

// AuditClient additionally supports the idempotent audit-log bootstrap step.
type AuditClient interface {
	Client
	EnsureSubscription(ctx context.Context, tenantID, contentType string) error
}

// Factory selects a Client by source type. Concrete clients share a
// baseClient for transport and credentials.
type Factory struct {
	signIn        Client
	securityAlert Client
	auditLog      AuditClient
}

// NewFactory builds a Factory over the three concrete clients.
func NewFactory(signIn, securityAlert Client, auditLog AuditClient) *Factory {
	return &Factory{signIn: signIn, securityAlert: securityAlert, auditLog: auditLog}
}

// For returns the client registered for source, or false if none is.
func (f *Factory) For(source model.SourceType) (Client, bool) {
	switch source {
	case model.SourceSignIn:
		return f.signIn, f.signIn != nil
	case model.SourceSecurityAlert:
		return f.securityAlert, f.securityAlert != nil
	case model.SourceAuditLog:
		return f.auditLog, f.auditLog != nil
	default:
		return nil, false
	}
}

// AuditLog returns the audit client directly, for the subscription
// bootstrap step which only it exposes.
func (f *Factory) AuditLog() (AuditClient, bool) {
	return f.auditLog, f.auditLog != nil
}
