package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"graphsentry/internal/model"
)

func sampleAlert(severity model.Severity, notify bool, tenant string) model.Alert {
	return model.Alert{
		TenantName:    tenant,
		RuleName:      "rule",
		Severity:      severity,
		ShouldNotify:  notify,
		TimeGenerated: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotifyDisabledSkips(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer server.Close()

	n := New(time.Second, nil)
	cfg := model.AlertsConfig{Enabled: false, WebhookURL: server.URL, MinimumSeverity: model.SeverityLow}
	if err := n.Notify(context.Background(), cfg, []model.Alert{sampleAlert(model.SeverityCritical, true, "acme")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected no request when disabled")
	}
}

func TestNotifyFiltersBySeverityAndShouldNotify(t *testing.T) {
	var got Card
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	n := New(time.Second, nil)
	cfg := model.AlertsConfig{Enabled: true, WebhookURL: server.URL, MinimumSeverity: model.SeverityHigh}
	alerts := []model.Alert{
		sampleAlert(model.SeverityLow, true, "acme"),
		sampleAlert(model.SeverityCritical, true, "acme"),
		sampleAlert(model.SeverityHigh, false, "acme"),
	}
	if err := n.Notify(context.Background(), cfg, alerts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Blocks) != 1 || len(got.Blocks[0].Alerts) != 1 {
		t.Fatalf("expected exactly one surviving alert, got %+v", got)
	}
}

func TestNotifyGroupsByTenant(t *testing.T) {
	var got Card
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	n := New(time.Second, nil)
	cfg := model.AlertsConfig{Enabled: true, WebhookURL: server.URL, MinimumSeverity: model.SeverityLow}
	alerts := []model.Alert{
		sampleAlert(model.SeverityLow, true, "beta"),
		sampleAlert(model.SeverityLow, true, "acme"),
		sampleAlert(model.SeverityLow, true, "acme"),
	}
	if err := n.Notify(context.Background(), cfg, alerts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Blocks) != 2 {
		t.Fatalf("expected two tenant blocks, got %d", len(got.Blocks))
	}
	if got.Blocks[0].TenantName != "acme" || len(got.Blocks[0].Alerts) != 2 {
		t.Fatalf("expected acme block with two alerts, got %+v", got.Blocks[0])
	}
}

func TestNotifyNonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := New(time.Second, nil)
	cfg := model.AlertsConfig{Enabled: true, WebhookURL: server.URL, MinimumSeverity: model.SeverityLow}
	if err := n.Notify(context.Background(), cfg, []model.Alert{sampleAlert(model.SeverityCritical, true, "acme")}); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}
