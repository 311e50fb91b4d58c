package catalog

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Service coordinates the import, export, update, and history operations
// against an injected Store. Each call is an independent unit of work; the
// service holds no locks of its own.
type Service struct {
	store Store
}

// NewService creates a Service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ImportFile ingests the CSV file at path through the reconciliation
// pipeline. The file is deleted on every exit path, including parse and
// store failures. Cleanup failures are logged at warn level and never
// escalate into a request failure.
func (s *Service) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to delete temp file", "path", path, "error", err)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Persistence("reading uploaded file: %v", err)
	}
	return s.Import(ctx, data)
}

// Import runs the reconciliation pipeline over raw CSV bytes: decode,
// normalize, snapshot existing names, reconcile, bulk-insert. Every input
// row ends up in exactly one of the insert set or the duplicate list.
func (s *Service) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	rawRows, err := DecodeCSV(data)
	if err != nil {
		return nil, err
	}
	if len(rawRows) == 0 {
		return nil, Invalid("file", "The uploaded CSV file is empty.")
	}

	rows := make([]Product, 0, len(rawRows))
	for _, raw := range rawRows {
		rows = append(rows, NormalizeRow(raw))
	}

	existing, err := s.store.ProductNames(ctx)
	if err != nil {
		return nil, Persistence("loading product names: %v", err)
	}

	inserts, duplicates := Reconcile(rows, existing)

	added := 0
	if len(inserts) > 0 {
		for i := range inserts {
			inserts[i].ID = uuid.New().String()
		}
		added, err = s.store.BulkInsertProducts(ctx, inserts)
		if err != nil {
			return nil, Persistence("bulk insert failed: %v", err)
		}
	}

	if duplicates == nil {
		duplicates = []Duplicate{}
	}
	return &ImportResult{
		AddedCount:   added,
		SkippedCount: len(duplicates),
		Duplicates:   duplicates,
	}, nil
}

// Export encodes the full catalog as CSV bytes. An empty catalog is a
// not-found condition, not an empty file.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, Persistence("loading products: %v", err)
	}
	if len(products) == 0 {
		return nil, NotFound("No products found to export.")
	}
	return EncodeCSV(products)
}

// List returns every product in the catalog.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, Persistence("loading products: %v", err)
	}
	if len(products) == 0 {
		return nil, NotFound("No products found.")
	}
	return products, nil
}

// History returns the inventory audit trail for a product, newest first,
// capped at DefaultHistoryLimit entries. A product with no audit records
// yields an empty slice: "no history" is a valid, successful state.
func (s *Service) History(ctx context.Context, productID string) ([]AuditRecord, error) {
	records, err := s.store.AuditHistory(ctx, productID, DefaultHistoryLimit)
	if err != nil {
		return nil, Persistence("loading inventory history: %v", err)
	}
	if records == nil {
		records = []AuditRecord{}
	}
	return records, nil
}
