package rules

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBSource discovers catalog documents authored through the operator UI and
// stored in the config store's rule_documents table.
type DBSource struct {
	Pool *pgxpool.Pool
}

// Documents returns every stored document ordered by id, for a
// deterministic catalog order.
func (d DBSource) Documents(ctx context.Context) ([]Document, error) {
	rows, err := d.Pool.Query(ctx, `SELECT id, content FROM rule_documents ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Raw); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
