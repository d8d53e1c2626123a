package orchestrator

import (
	"context"
	"time"

	"graphsentry/internal/alertstate"
	"graphsentry/internal/logclient"
	"graphsentry/internal/model"
)

// TenantStore is the subset of the config store the orchestrator consumes.
type TenantStore interface {
	ListTenants(ctx context.Context) ([]model.Tenant, error)
	UpdateTenantStatus(ctx context.Context, id string, status model.TenantStatus, message string, lastPoll *time.Time) error
	GetAlertsConfig(ctx context.Context) (model.AlertsConfig, error)
	AppendRunSummary(ctx context.Context, summary model.RunSummary) error
	PruneRunSummaries(ctx context.Context, now time.Time, retention time.Duration) (int, error)
}

// RuleLoader supplies the catalog snapshot for a run.
type RuleLoader interface {
	Load(ctx context.Context) ([]model.Rule, error)
}

// ClientFactory selects an upstream client by source type.
type ClientFactory interface {
	For(source model.SourceType) (logclient.Client, bool)
	AuditLog() (logclient.AuditClient, bool)
}

// AlertState is the two-layer dedup/throttle admission gate.
type AlertState interface {
	Process(ctx context.Context, tenantID, ruleName string, critical bool, user string, eventTime, now time.Time) alertstate.Decision
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Uploader submits the run's alert batch to the log-ingestion sink.
type Uploader interface {
	Upload(ctx context.Context, ruleID, streamName string, rows []model.Alert) error
}

// Notifier posts the chat-webhook card for a run.
type Notifier interface {
	Notify(ctx context.Context, cfg model.AlertsConfig, alerts []model.Alert) error
}
