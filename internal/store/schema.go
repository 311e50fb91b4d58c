package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements are idempotent and run in order on every startup.
//
// inventory_audit deliberately carries no foreign key to products: audit
// records reference the product weakly and are never deleted, even if the
// referenced product later disappears.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id uuid PRIMARY KEY,
		name text NOT NULL UNIQUE,
		unit text NOT NULL DEFAULT '',
		category text NOT NULL DEFAULT '',
		brand text NOT NULL DEFAULT '',
		stock integer NOT NULL DEFAULT 0,
		status text NOT NULL DEFAULT 'draft',
		image text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_audit (
		id uuid PRIMARY KEY,
		product_id uuid NOT NULL,
		old_quantity integer NOT NULL,
		new_quantity integer NOT NULL,
		changed_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_audit_product
		ON inventory_audit (product_id, changed_at DESC)`,
}

// Migrate creates the catalog tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
