package catalog

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StockValue accepts a stock field encoded as either a JSON number or a
// numeric string, since catalog clients send both forms.
type StockValue struct {
	raw string
}

// UnmarshalJSON captures the raw token; parsing is deferred to Int so that
// a bad value fails with the update's own stock validation error instead of
// a generic decode error.
func (v *StockValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.raw = s
		return nil
	}
	v.raw = string(data)
	return nil
}

// Int parses the captured value as a base-10 integer.
func (v *StockValue) Int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(v.raw))
}

// String returns the raw captured token.
func (v *StockValue) String() string { return v.raw }

// ProductPatch enumerates the seven recognized update fields, each
// independently present or absent. Absent fields leave the stored value
// unchanged.
type ProductPatch struct {
	Name     *string     `json:"name"`
	Unit     *string     `json:"unit"`
	Category *string     `json:"category"`
	Brand    *string     `json:"brand"`
	Stock    *StockValue `json:"stock"`
	Status   *string     `json:"status"`
	Image    *string     `json:"image"`
}

// Empty reports whether the patch carries no recognized fields.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Unit == nil && p.Category == nil &&
		p.Brand == nil && p.Stock == nil && p.Status == nil && p.Image == nil
}

// Update applies a partial-field update to one product.
//
// Field policy: name is normalized and re-checked for uniqueness against all
// other products when it actually changes; stock must parse to a
// non-negative integer; unit, category, and brand are trimmed; status is
// lowercased; image is stored verbatim.
//
// When the parsed stock differs from the stored value, exactly one audit
// record is appended with the old and new quantities, and only after the
// product update itself has been committed, so a change that was never
// persisted is never audited.
func (s *Service) Update(ctx context.Context, id string, patch ProductPatch) (*UpdateResult, error) {
	if patch.Empty() {
		return nil, Invalid("", "At least one editable field is required to update the product.")
	}

	current, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, Persistence("loading product: %v", err)
	}
	if current == nil {
		return nil, NotFound("Product not found.")
	}

	var changes FieldChanges
	oldStock := current.Stock
	newStock := oldStock
	stockChanged := false

	if patch.Name != nil {
		name := strings.ToLower(strings.TrimSpace(*patch.Name))
		if name == "" {
			return nil, Invalid("name", "Product name cannot be empty.")
		}
		if name != strings.ToLower(current.Name) {
			other, err := s.store.FindProductByName(ctx, name, id)
			if err != nil {
				return nil, Persistence("checking name uniqueness: %v", err)
			}
			if other != nil {
				return nil, Conflict("name", "Product name '%s' already exists.", *patch.Name)
			}
		}
		changes.Name = &name
	}

	if patch.Stock != nil {
		n, err := patch.Stock.Int()
		if err != nil || n < 0 {
			return nil, Invalid("stock", "Stock must be a non-negative number.")
		}
		if n != oldStock {
			stockChanged = true
			newStock = n
		}
		changes.Stock = &n
	}

	if patch.Unit != nil {
		v := strings.TrimSpace(*patch.Unit)
		changes.Unit = &v
	}
	if patch.Category != nil {
		v := strings.TrimSpace(*patch.Category)
		changes.Category = &v
	}
	if patch.Brand != nil {
		v := strings.TrimSpace(*patch.Brand)
		changes.Brand = &v
	}
	if patch.Status != nil {
		v := strings.ToLower(*patch.Status)
		changes.Status = &v
	}
	if patch.Image != nil {
		changes.Image = patch.Image
	}

	updated, err := s.store.UpdateProduct(ctx, id, changes)
	if err != nil {
		return nil, Persistence("updating product: %v", err)
	}
	if updated == nil {
		// Existed at the pre-check but gone now: a race, not a caller error.
		return nil, Persistence("Failed to update product in the database.")
	}

	if stockChanged {
		rec := AuditRecord{
			ID:          uuid.New().String(),
			ProductID:   updated.ID,
			OldQuantity: oldStock,
			NewQuantity: newStock,
			ChangedAt:   time.Now().UTC(),
		}
		if err := s.store.AppendAudit(ctx, rec); err != nil {
			return nil, Persistence("recording inventory history: %v", err)
		}
	}

	return &UpdateResult{Product: *updated, StockChanged: stockChanged}, nil
}
