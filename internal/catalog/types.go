package catalog

import "time"

// DefaultHistoryLimit caps the number of audit entries returned per history
// query.
const DefaultHistoryLimit = 100

// Product is a single catalog record. Name is the canonical key: trimmed and
// lowercased before any comparison or write, and unique across the catalog.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit,omitempty"`
	Category  string    `json:"category,omitempty"`
	Brand     string    `json:"brand,omitempty"`
	Stock     int       `json:"stock"`
	Status    string    `json:"status"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// AuditRecord is an immutable inventory log entry capturing a stock-quantity
// transition. Records are created once per stock-changing update and never
// modified or deleted afterward. ProductID is a non-owning reference.
type AuditRecord struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	OldQuantity int       `json:"oldQuantity"`
	NewQuantity int       `json:"newQuantity"`
	ChangedAt   time.Time `json:"changedAt"`
}

// RawRow is one decoded CSV row, keyed by header cell. Header matching is
// case-sensitive.
type RawRow map[string]string

// Duplicate is a row rejected during reconciliation, carrying the normalized
// product fields plus the rejection reason.
type Duplicate struct {
	Product
	Reason string `json:"reason"`
}

// ImportResult summarizes one import call. AddedCount reflects the store's
// bulk-insert acknowledgment rather than the computed insert-set size, so a
// partial store failure is visible to the caller.
type ImportResult struct {
	AddedCount   int         `json:"addedCount"`
	SkippedCount int         `json:"skippedCount"`
	Duplicates   []Duplicate `json:"duplicates"`
}

// UpdateResult carries the post-update record and whether the stock quantity
// changed (and therefore whether an audit record was appended).
type UpdateResult struct {
	Product      Product
	StockChanged bool
}
