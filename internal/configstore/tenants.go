package configstore

import (
	"context"
	"time"

	"graphsentry/internal/model"
)

// ListTenants returns every monitored tenant, filtering out the reserved
// all-zero placeholder row used by the operator UI for template records.
func (s *Store) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, last_poll, status, message
		FROM tenants WHERE id <> $1
		ORDER BY name`, model.ZeroTenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		var t model.Tenant
		var status string
		if err := rows.Scan(&t.ID, &t.Name, &t.LastPoll, &status, &t.Message); err != nil {
			return nil, err
		}
		t.Status = model.TenantStatus(status)
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// GetTenant returns a single tenant by id.
func (s *Store) GetTenant(ctx context.Context, id string) (model.Tenant, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, last_poll, status, message FROM tenants WHERE id=$1`, id)
	var t model.Tenant
	var status string
	if err := row.Scan(&t.ID, &t.Name, &t.LastPoll, &status, &t.Message); err != nil {
		return model.Tenant{}, ErrNotFound
	}
	t.Status = model.TenantStatus(status)
	return t, nil
}

// GetTenantSecret returns the tenant's stored encrypted client secret, or
// the empty string if none has been set. It returns ErrNotFound if the
// tenant itself doesn't exist.
func (s *Store) GetTenantSecret(ctx context.Context, id string) (string, error) {
	row := s.Pool.QueryRow(ctx, `SELECT client_secret_encrypted FROM tenants WHERE id=$1`, id)
	var cipherText string
	if err := row.Scan(&cipherText); err != nil {
		return "", ErrNotFound
	}
	return cipherText, nil
}

// SetTenantSecret stores an already-encrypted per-tenant client secret,
// creating the tenant row if it doesn't yet exist.
func (s *Store) SetTenantSecret(ctx context.Context, id, name, cipherText string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO tenants (id, name, client_secret_encrypted)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET client_secret_encrypted=EXCLUDED.client_secret_encrypted, updated_at=now()`,
		id, name, cipherText)
	return err
}

// UpdateTenantStatus records the terminal outcome of a tenant's run. lastPoll
// is nil when the run failed and the watermark must not advance.
func (s *Store) UpdateTenantStatus(ctx context.Context, id string, status model.TenantStatus, message string, lastPoll *time.Time) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE tenants
		SET status=$1, message=$2, last_poll=COALESCE($3, last_poll), updated_at=now()
		WHERE id=$4`, string(status), message, lastPoll, id)
	return err
}
