// Package store provides the persistence implementations of the catalog
// Store boundary: Postgres backed by pgx for production and an in-memory
// implementation for tests and the memory driver.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prodcat/catalog/internal/catalog"
)

const productColumns = "id, name, unit, category, brand, stock, status, image, created_at, updated_at"

// Postgres implements catalog.Store on top of a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool. The caller owns the pool's lifecycle.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Ping verifies database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// ListProducts returns every product, ordered by name for stable exports.
func (p *Postgres) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := p.pool.Query(ctx, "SELECT "+productColumns+" FROM products ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		pr, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, *pr)
	}
	return products, rows.Err()
}

// ProductNames returns the canonical-name set used to seed reconciliation.
func (p *Postgres) ProductNames(ctx context.Context) (map[string]struct{}, error) {
	rows, err := p.pool.Query(ctx, "SELECT name FROM products")
	if err != nil {
		return nil, fmt.Errorf("listing product names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning product name: %w", err)
		}
		names[strings.ToLower(name)] = struct{}{}
	}
	return names, rows.Err()
}

// GetProduct returns the product with the given id, or (nil, nil).
func (p *Postgres) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	row := p.pool.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	pr, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return pr, nil
}

// FindProductByName returns a product with the given canonical name and a
// different id, or (nil, nil). Used by the update path's uniqueness check.
func (p *Postgres) FindProductByName(ctx context.Context, name, excludeID string) (*catalog.Product, error) {
	row := p.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE lower(name) = $1 AND id <> $2 LIMIT 1",
		strings.ToLower(name), excludeID,
	)
	pr, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding product by name: %w", err)
	}
	return pr, nil
}

// BulkInsertProducts persists the batch with a single COPY and returns the
// number of rows the database acknowledged.
func (p *Postgres) BulkInsertProducts(ctx context.Context, products []catalog.Product) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, len(products))
	for i, pr := range products {
		rows[i] = []any{pr.ID, pr.Name, pr.Unit, pr.Category, pr.Brand, pr.Stock, pr.Status, pr.Image, now, now}
	}

	copied, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"id", "name", "unit", "category", "brand", "stock", "status", "image", "created_at", "updated_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk inserting products: %w", err)
	}
	return int(copied), nil
}

// UpdateProduct applies the field changes as one UPDATE and returns the
// post-update record, or (nil, nil) when the row no longer exists.
func (p *Postgres) UpdateProduct(ctx context.Context, id string, changes catalog.FieldChanges) (*catalog.Product, error) {
	var sets []string
	var args []any
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if changes.Name != nil {
		set("name", *changes.Name)
	}
	if changes.Unit != nil {
		set("unit", *changes.Unit)
	}
	if changes.Category != nil {
		set("category", *changes.Category)
	}
	if changes.Brand != nil {
		set("brand", *changes.Brand)
	}
	if changes.Stock != nil {
		set("stock", *changes.Stock)
	}
	if changes.Status != nil {
		set("status", *changes.Status)
	}
	if changes.Image != nil {
		set("image", *changes.Image)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE products SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), productColumns,
	)

	pr, err := scanProduct(p.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("updating product: %w", err)
	}
	return pr, nil
}

// AppendAudit inserts one audit record. The table has no foreign key to
// products: audit entries reference the product weakly and outlive it.
func (p *Postgres) AppendAudit(ctx context.Context, rec catalog.AuditRecord) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO inventory_audit (id, product_id, old_quantity, new_quantity, changed_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.ProductID, rec.OldQuantity, rec.NewQuantity, rec.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("appending audit record: %w", err)
	}
	return nil
}

// AuditHistory returns audit records for a product, newest first.
func (p *Postgres) AuditHistory(ctx context.Context, productID string, limit int) ([]catalog.AuditRecord, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, product_id, old_quantity, new_quantity, changed_at
		 FROM inventory_audit WHERE product_id = $1
		 ORDER BY changed_at DESC LIMIT $2`,
		productID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying audit history: %w", err)
	}
	defer rows.Close()

	var records []catalog.AuditRecord
	for rows.Next() {
		var rec catalog.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.ProductID, &rec.OldQuantity, &rec.NewQuantity, &rec.ChangedAt); err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var pr catalog.Product
	err := row.Scan(&pr.ID, &pr.Name, &pr.Unit, &pr.Category, &pr.Brand,
		&pr.Stock, &pr.Status, &pr.Image, &pr.CreatedAt, &pr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}
