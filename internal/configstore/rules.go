package configstore

import "context"

// RuleRecord is status bookkeeping for a rule catalog document. Rule
// content itself lives in the catalog (disk or rule_documents), never here.
type RuleRecord struct {
	ID              string
	Status          string
	LastError       string
	LastValidatedAt *string
}

// ListRuleRecords returns status bookkeeping for every known rule id.
func (s *Store) ListRuleRecords(ctx context.Context) ([]RuleRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, status, last_error, last_validated_at FROM rule_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RuleRecord
	for rows.Next() {
		var rec RuleRecord
		if err := rows.Scan(&rec.ID, &rec.Status, &rec.LastError, &rec.LastValidatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertRuleStatus records the outcome of loading/validating a catalog
// document, keyed by its catalog-derived id.
func (s *Store) UpsertRuleStatus(ctx context.Context, id, status, lastError string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO rule_status (id, status, last_error, last_validated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET status=EXCLUDED.status, last_error=EXCLUDED.last_error, last_validated_at=now()`,
		id, status, lastError)
	return err
}
