package configstore

import (
	"context"

	"graphsentry/internal/model"
)

// GetAlertsConfig returns the single row governing chat-webhook delivery.
func (s *Store) GetAlertsConfig(ctx context.Context) (model.AlertsConfig, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT enabled, webhook_url, minimum_severity FROM alerts_config LIMIT 1`)
	var cfg model.AlertsConfig
	var minSeverity string
	if err := row.Scan(&cfg.Enabled, &cfg.WebhookURL, &minSeverity); err != nil {
		return model.AlertsConfig{}, ErrNotFound
	}
	cfg.MinimumSeverity = model.Severity(minSeverity)
	return cfg, nil
}
