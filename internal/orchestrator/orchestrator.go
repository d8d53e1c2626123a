// Package orchestrator drives one schedule tick: it loads the rule catalog
// and tenant list, polls each tenant's three upstream sources, evaluates and
// admits matches, and dispatches the resulting batch to the sink and
// notifier.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"graphsentry/internal/evaluator"
	"graphsentry/internal/logclient"
	"graphsentry/internal/model"
)

var allSources = []model.SourceType{model.SourceSignIn, model.SourceSecurityAlert, model.SourceAuditLog}
var signInAndAlertSources = []model.SourceType{model.SourceSignIn, model.SourceSecurityAlert}

// Dependencies bundles everything one Run needs. All fields except Logger
// are required; a nil Logger defaults to slog.Default().
type Dependencies struct {
	Tenants    TenantStore
	Rules      RuleLoader
	Clients    ClientFactory
	AlertState AlertState
	Sink       Uploader
	Notify     Notifier
	Logger     *slog.Logger

	SinkRuleID     string
	SinkStreamName string
}

// Orchestrator runs one tick over all configured tenants.
type Orchestrator struct {
	deps Dependencies
}

// New builds an Orchestrator over deps.
func New(deps Dependencies) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{deps: deps}
}

// Result summarizes a completed run for the caller (cmd/poller feeds it into
// its metrics counters).
type Result struct {
	Summary model.RunSummary
	Alerts  []model.Alert
}

// Run executes a full tick: rule load, per-tenant sequential polling with
// three-way concurrent fetch, evaluation, sink upload, notification, sweep,
// and run-history write.
func (o *Orchestrator) Run(ctx context.Context, now time.Time) (Result, error) {
	start := now

	rules, err := o.deps.Rules.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	tenants, err := o.deps.Tenants.ListTenants(ctx)
	if err != nil {
		return Result{}, err
	}

	var batch []model.Alert
	failures := 0
	eventsProcessed := 0
	for _, tenant := range tenants {
		alerts, processed, err := o.runTenant(ctx, tenant, rules, now)
		if err != nil {
			failures++
		}
		batch = append(batch, alerts...)
		eventsProcessed += processed
	}

	status := model.RunStatusSuccess
	var runErr error

	if err := o.deps.Sink.Upload(ctx, o.deps.SinkRuleID, o.deps.SinkStreamName, batch); err != nil {
		o.deps.Logger.Error("sink upload failed", slog.String("error", err.Error()))
		status = model.RunStatusPartial
		runErr = err
	}

	cfg, err := o.deps.Tenants.GetAlertsConfig(ctx)
	if err != nil {
		o.deps.Logger.Warn("could not load alert delivery config, skipping notification", slog.String("error", err.Error()))
	} else if err := o.deps.Notify.Notify(ctx, cfg, batch); err != nil {
		o.deps.Logger.Error("notifier failed", slog.String("error", err.Error()))
		status = model.RunStatusPartial
		if runErr == nil {
			runErr = err
		}
	}

	if _, err := o.deps.AlertState.Sweep(ctx, now); err != nil {
		o.deps.Logger.Warn("alert-state sweep failed", slog.String("error", err.Error()))
	}

	if _, err := o.deps.Tenants.PruneRunSummaries(ctx, now, RunHistoryRetention); err != nil {
		o.deps.Logger.Warn("run-history prune failed", slog.String("error", err.Error()))
	}

	if failures > 0 && status == model.RunStatusSuccess {
		status = model.RunStatusPartial
	}

	summary := model.RunSummary{
		StartTime:       start,
		EndTime:         time.Now(),
		ClientsChecked:  len(tenants),
		EventsProcessed: eventsProcessed,
		AlertsGenerated: len(batch),
		Status:          status,
	}
	if runErr != nil {
		summary.ErrorMessage = runErr.Error()
	}
	summary.DurationMs = summary.EndTime.Sub(summary.StartTime).Milliseconds()

	if err := o.deps.Tenants.AppendRunSummary(ctx, summary); err != nil {
		o.deps.Logger.Error("failed to record run summary", slog.String("error", err.Error()))
	}

	return Result{Summary: summary, Alerts: batch}, nil
}

// runTenant polls tenant's three sources concurrently, evaluates every
// fetched event in tenant-then-source order, and records the tenant's
// terminal status. It never returns an error that should abort the run —
// the returned error is purely for the caller's failure count.
func (o *Orchestrator) runTenant(ctx context.Context, tenant model.Tenant, rules []model.Rule, now time.Time) ([]model.Alert, int, error) {
	since, until := Window(tenant.LastPoll, now)

	sources := allSources
	auditDisabledMsg := ""
	if audit, ok := o.deps.Clients.AuditLog(); ok {
		if err := audit.EnsureSubscription(ctx, tenant.ID, "Audit.General"); err != nil {
			if logclient.Classify(err) == logclient.ErrAuditLogDisabled {
				o.deps.Logger.Warn("audit log disabled for tenant, skipping audit source", slog.String("tenant", tenant.ID), slog.String("error", err.Error()))
				sources = signInAndAlertSources
				auditDisabledMsg = err.Error()
			} else {
				o.deps.Logger.Warn("audit subscription bootstrap failed", slog.String("tenant", tenant.ID), slog.String("error", err.Error()))
			}
		}
	}

	fetched := o.fetchAll(ctx, tenant.ID, since, until, sources)

	var alerts []model.Alert
	var tenantErr error
	processed := 0
	for _, source := range sources {
		result := fetched[source]
		if result.err != nil && tenantErr == nil {
			tenantErr = result.err
		}
		for _, event := range result.events {
			processed++
			if alert, ok := o.evaluateOne(ctx, tenant, source, event, rules, now); ok {
				alerts = append(alerts, alert)
			}
		}
	}

	successStatus := model.TenantStatusSuccess
	successMsg := ""
	if auditDisabledMsg != "" {
		successStatus = model.TenantStatusAuditLogDisabled
		successMsg = auditDisabledMsg
	}
	o.finishTenant(ctx, tenant, until, tenantErr, successStatus, successMsg)
	return alerts, processed, tenantErr
}

func (o *Orchestrator) evaluateOne(ctx context.Context, tenant model.Tenant, source model.SourceType, event model.Event, rules []model.Rule, now time.Time) (model.Alert, bool) {
	rule, ok := evaluator.Evaluate(event, source, rules, tenant.ID)
	if !ok {
		return model.Alert{}, false
	}

	user := actingUser(source, event)
	eventTime, hasTime := eventTimestamp(source, event)
	if !hasTime {
		eventTime = now
	}

	decision := o.deps.AlertState.Process(ctx, tenant.ID, rule.Name, rule.Severity == model.SeverityCritical, user, eventTime, now)
	if !decision.Admit {
		return model.Alert{}, false
	}

	return model.Alert{
		TimeGenerated: eventTime,
		TimeProcessed: now,
		TenantID:      tenant.ID,
		TenantName:    tenant.Name,
		ActingUser:    user,
		RuleName:      rule.Name,
		Severity:      rule.Severity,
		Description:   rule.Description,
		Source:        source,
		SourceEventID: eventID(source, event),
		RawSummary:    rawSummary(source, event),
		ShouldNotify:  decision.ShouldNotify,
	}, true
}

type fetchResult struct {
	events []model.Event
	err    error
}

// fetchAll issues the given sources' fetches concurrently and waits for all
// of them regardless of individual failure, per spec.md §5.
func (o *Orchestrator) fetchAll(ctx context.Context, tenantID string, since, until time.Time, sources []model.SourceType) map[model.SourceType]fetchResult {
	results := make(map[model.SourceType]fetchResult, len(sources))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, source := range sources {
		client, ok := o.deps.Clients.For(source)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(source model.SourceType, client logclient.Client) {
			defer wg.Done()
			events, err := client.FetchSince(ctx, tenantID, since, until)
			mu.Lock()
			results[source] = fetchResult{events: events, err: err}
			mu.Unlock()
		}(source, client)
	}
	wg.Wait()
	return results
}

// finishTenant records the tenant's terminal status: a nil tenantErr advances
// lastPoll to until under successStatus (success, or auditLogDisabled when
// the audit source was skipped for this tenant); failure classifies the
// error, stores its message cut to 500 characters, and leaves lastPoll
// untouched so the next tick retries the same window.
func (o *Orchestrator) finishTenant(ctx context.Context, tenant model.Tenant, until time.Time, tenantErr error, successStatus model.TenantStatus, successMsg string) {
	if tenantErr == nil {
		if err := o.deps.Tenants.UpdateTenantStatus(ctx, tenant.ID, successStatus, successMsg, &until); err != nil {
			o.deps.Logger.Error("failed to record tenant success", slog.String("tenant", tenant.ID), slog.String("error", err.Error()))
		}
		return
	}

	const maxStatusMessageLength = 500
	status := classify(tenantErr)
	message := truncate(tenantErr.Error(), maxStatusMessageLength)
	if err := o.deps.Tenants.UpdateTenantStatus(ctx, tenant.ID, status, message, nil); err != nil {
		o.deps.Logger.Error("failed to record tenant failure", slog.String("tenant", tenant.ID), slog.String("error", err.Error()))
	}
}

func classify(err error) model.TenantStatus {
	switch logclient.Classify(err) {
	case logclient.ErrAppNotConsented:
		return model.TenantStatusAppNotConsented
	case logclient.ErrTenantNotFound:
		return model.TenantStatusTenantNotFound
	case logclient.ErrPermissionDenied:
		return model.TenantStatusPermissionDenied
	case logclient.ErrAuditLogDisabled:
		return model.TenantStatusAuditLogDisabled
	default:
		return model.TenantStatusError
	}
}
