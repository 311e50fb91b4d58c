package catalog

import "context"

// FieldChanges is the set of column assignments for one product update.
// Only fields present in the patch are set; the store applies all of them
// as a single atomic update.
type FieldChanges struct {
	Name     *string
	Unit     *string
	Category *string
	Brand    *string
	Stock    *int
	Status   *string
	Image    *string
}

// Store is the persistence boundary for the catalog. It is injected into
// Service rather than reached through a package-level connection, so tests
// can substitute an in-memory implementation.
//
// Lookup methods return (nil, nil) when the record does not exist; only
// store-layer failures produce a non-nil error.
type Store interface {
	// ListProducts returns every product in the catalog.
	ListProducts(ctx context.Context) ([]Product, error)

	// ProductNames returns the set of canonical product names, used as the
	// reconciliation snapshot at batch start.
	ProductNames(ctx context.Context) (map[string]struct{}, error)

	// GetProduct returns the product with the given id, or (nil, nil).
	GetProduct(ctx context.Context, id string) (*Product, error)

	// FindProductByName returns a product with the given canonical name
	// whose id differs from excludeID, or (nil, nil).
	FindProductByName(ctx context.Context, name, excludeID string) (*Product, error)

	// BulkInsertProducts persists the batch in a single call and returns the
	// number of rows the store acknowledged.
	BulkInsertProducts(ctx context.Context, products []Product) (int, error)

	// UpdateProduct applies the field changes atomically and returns the
	// post-update record, or (nil, nil) when the record vanished between the
	// caller's pre-check and the write.
	UpdateProduct(ctx context.Context, id string, changes FieldChanges) (*Product, error)

	// AppendAudit appends one immutable audit record.
	AppendAudit(ctx context.Context, rec AuditRecord) error

	// AuditHistory returns audit records for a product, newest first, at
	// most limit entries.
	AuditHistory(ctx context.Context, productID string, limit int) ([]AuditRecord, error)
}
