package configstore

import (
	"context"
	"fmt"
	"time"

	"graphsentry/internal/model"
)

// maxTicksMillis bounds any plausible startTimeMillis so that
// maxTicksMillis - startTimeMillis is always non-negative, and larger for
// older runs. Zero-padded to a fixed width, ascending row-key order then
// yields newest-first iteration in the underlying store.
const maxTicksMillis = int64(9999999999999)

// RowKey derives the inverted-timestamp row key for a run starting at
// startTimeMillis (Unix milliseconds).
func RowKey(startTimeMillis int64) string {
	return fmt.Sprintf("%013d", maxTicksMillis-startTimeMillis)
}

// AppendRunSummary persists one run's summary row.
func (s *Store) AppendRunSummary(ctx context.Context, summary model.RunSummary) error {
	rowKey := RowKey(summary.StartTime.UnixMilli())
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO run_summaries
			(row_key, start_time, end_time, duration_ms, clients_checked, events_processed, alerts_generated, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rowKey, summary.StartTime, summary.EndTime, summary.DurationMs,
		summary.ClientsChecked, summary.EventsProcessed, summary.AlertsGenerated,
		string(summary.Status), summary.ErrorMessage)
	return err
}

// PruneRunSummaries deletes run summaries older than retention, returning
// the number of rows removed.
func (s *Store) PruneRunSummaries(ctx context.Context, now time.Time, retention time.Duration) (int, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM run_summaries WHERE start_time < $1`, now.Add(-retention))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ListRunSummaries returns up to limit summaries, newest-first.
func (s *Store) ListRunSummaries(ctx context.Context, limit int) ([]model.RunSummary, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT start_time, end_time, duration_ms, clients_checked, events_processed, alerts_generated, status, error_message
		FROM run_summaries ORDER BY row_key ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.RunSummary
	for rows.Next() {
		var summary model.RunSummary
		var status string
		if err := rows.Scan(&summary.StartTime, &summary.EndTime, &summary.DurationMs,
			&summary.ClientsChecked, &summary.EventsProcessed, &summary.AlertsGenerated,
			&status, &summary.ErrorMessage); err != nil {
			return nil, err
		}
		summary.Status = model.RunStatus(status)
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}
