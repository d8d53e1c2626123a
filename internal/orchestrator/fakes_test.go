package orchestrator

import (
	"context"
	"sync"
	"time"

	"graphsentry/internal/alertstate"
	"graphsentry/internal/logclient"
	"graphsentry/internal/model"
)

// fakeTenantStore is an in-memory stand-in for configstore.Store.
type fakeTenantStore struct {
	mu       sync.Mutex
	tenants  []model.Tenant
	statuses map[string]model.Tenant
	config   model.AlertsConfig
	runs     []model.RunSummary
}

func newFakeTenantStore(tenants ...model.Tenant) *fakeTenantStore {
	s := &fakeTenantStore{statuses: make(map[string]model.Tenant)}
	s.tenants = tenants
	for _, t := range tenants {
		s.statuses[t.ID] = t
	}
	return s
}

func (s *fakeTenantStore) ListTenants(context.Context) ([]model.Tenant, error) {
	return s.tenants, nil
}

func (s *fakeTenantStore) UpdateTenantStatus(_ context.Context, id string, status model.TenantStatus, message string, lastPoll *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.statuses[id]
	t.Status = status
	t.Message = message
	if lastPoll != nil {
		t.LastPoll = lastPoll
	}
	s.statuses[id] = t
	return nil
}

func (s *fakeTenantStore) GetAlertsConfig(context.Context) (model.AlertsConfig, error) {
	return s.config, nil
}

func (s *fakeTenantStore) AppendRunSummary(_ context.Context, summary model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, summary)
	return nil
}

func (s *fakeTenantStore) PruneRunSummaries(_ context.Context, now time.Time, retention time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []model.RunSummary
	pruned := 0
	for _, r := range s.runs {
		if r.StartTime.Before(now.Add(-retention)) {
			pruned++
			continue
		}
		kept = append(kept, r)
	}
	s.runs = kept
	return pruned, nil
}

// fakeRuleLoader returns a fixed rule set.
type fakeRuleLoader struct {
	rules []model.Rule
}

func (f fakeRuleLoader) Load(context.Context) ([]model.Rule, error) {
	return f.rules, nil
}

// fakeClient returns fixed events or an error for one source.
type fakeClient struct {
	events []model.Event
	err    error
}

func (f fakeClient) FetchSince(context.Context, string, time.Time, time.Time) ([]model.Event, error) {
	return f.events, f.err
}

type fakeAuditClient struct {
	fakeClient
	subscriptionErr error
}

func (f fakeAuditClient) EnsureSubscription(context.Context, string, string) error {
	return f.subscriptionErr
}

// fakeFactory dispatches to fixed per-source clients.
type fakeFactory struct {
	signIn        logclient.Client
	securityAlert logclient.Client
	auditLog      logclient.AuditClient
}

func (f fakeFactory) For(source model.SourceType) (logclient.Client, bool) {
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

func (f fakeFactory) AuditLog() (logclient.AuditClient, bool) {
	return f.auditLog, f.auditLog != nil
}

// fakeAlertState always admits and notifies, unless told to suppress.
type fakeAlertState struct {
	suppress bool
}

func (f fakeAlertState) Process(context.Context, string, string, bool, string, time.Time, time.Time) alertstate.Decision {
	if f.suppress {
		return alertstate.Decision{Admit: false, ShouldNotify: false}
	}
	return alertstate.Decision{Admit: true, ShouldNotify: true}
}

func (f fakeAlertState) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// fakeUploader records what it was asked to upload.
type fakeUploader struct {
	mu   sync.Mutex
	rows []model.Alert
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, _ string, _ string, rows []model.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
	return f.err
}

// fakeNotifier records what it was asked to notify.
type fakeNotifier struct {
	mu     sync.Mutex
	alerts []model.Alert
	err    error
}

func (f *fakeNotifier) Notify(_ context.Context, _ model.AlertsConfig, alerts []model.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = alerts
	return f.err
}
