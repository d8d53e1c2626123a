// Package notifier renders and posts a chat-webhook card summarizing a run's
// admitted alerts, filtered by minimum severity and per-alert shouldNotify.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"graphsentry/internal/model"
)

// Notifier posts a single card per run to a chat webhook.
type Notifier struct {
	client *http.Client
	logger *slog.Logger
}

// New builds a Notifier with the given HTTP timeout.
func New(timeout time.Duration, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{client: &http.Client{Timeout: timeout}, logger: logger}
}

// Notify filters, groups, renders, and posts alerts per cfg, returning the
// post's error, if any; a skip (disabled, no webhook, or nothing left after
// filtering) returns nil.
func (n *Notifier) Notify(ctx context.Context, cfg model.AlertsConfig, alerts []model.Alert) error {
	if !cfg.Enabled || cfg.WebhookURL == "" {
		return nil
	}

	filtered := filter(alerts, cfg.MinimumSeverity)
	if len(filtered) == 0 {
		return nil
	}

	card := buildCard(filtered)
	body, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("notifier: marshal card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notifier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notifier: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// filter keeps alerts at or above minimum severity whose shouldNotify is not
// explicitly false.
func filter(alerts []model.Alert, minimum model.Severity) []model.Alert {
	var kept []model.Alert
	for _, a := range alerts {
		if !a.ShouldNotify {
			continue
		}
		if !a.Severity.AtLeast(minimum) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// Card is a chat-webhook payload with one block per tenant.
type Card struct {
	Text   string      `json:"text"`
	Blocks []TenantBlock `json:"blocks"`
}

// TenantBlock groups the alerts raised for a single tenant.
type TenantBlock struct {
	TenantName string      `json:"tenantName"`
	Alerts     []AlertLine `json:"alerts"`
}

// AlertLine is the rendered form of a single alert within a card block.
type AlertLine struct {
	Severity    string `json:"severity"`
	RuleName    string `json:"ruleName"`
	Description string `json:"description"`
	User        string `json:"user,omitempty"`
	Source      string `json:"source"`
	Timestamp   string `json:"timestamp"`
}

func buildCard(alerts []model.Alert) Card {
	byTenant := make(map[string][]model.Alert)
	var tenantOrder []string
	for _, a := range alerts {
		if _, seen := byTenant[a.TenantName]; !seen {
			tenantOrder = append(tenantOrder, a.TenantName)
		}
		byTenant[a.TenantName] = append(byTenant[a.TenantName], a)
	}
	sort.Strings(tenantOrder)

	blocks := make([]TenantBlock, 0, len(tenantOrder))
	for _, tenant := range tenantOrder {
		lines := make([]AlertLine, 0, len(byTenant[tenant]))
		for _, a := range byTenant[tenant] {
			lines = append(lines, AlertLine{
				Severity:    string(a.Severity),
				RuleName:    a.RuleName,
				Description: a.Description,
				User:        a.ActingUser,
				Source:      string(a.Source),
				Timestamp:   a.TimeGenerated.UTC().Format(time.RFC3339),
			})
		}
		blocks = append(blocks, TenantBlock{TenantName: tenant, Alerts: lines})
	}

	return Card{
		Text:   fmt.Sprintf("%d alert(s) across %d tenant(s)", len(alerts), len(blocks)),
		Blocks: blocks,
	}
}
