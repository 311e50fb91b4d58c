package store

import (
	"context"
	"testing"
	"time"

	"github.com/prodcat/catalog/internal/catalog"
)

func seed(t *testing.T, m *Memory, products ...catalog.Product) {
	t.Helper()
	n, err := m.BulkInsertProducts(context.Background(), products)
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}
	if n != len(products) {
		t.Fatalf("seeded %d products, want %d", n, len(products))
	}
}

func TestMemoryBulkInsertReportsCount(t *testing.T) {
	m := NewMemory()

	n, err := m.BulkInsertProducts(context.Background(), []catalog.Product{
		{ID: "1", Name: "a"},
		{ID: "2", Name: "b"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}
}

func TestMemoryListPreservesInsertionOrder(t *testing.T) {
	m := NewMemory()
	seed(t, m,
		catalog.Product{ID: "1", Name: "zebra"},
		catalog.Product{ID: "2", Name: "apple"},
		catalog.Product{ID: "3", Name: "mango"},
	)

	products, err := m.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"zebra", "apple", "mango"}
	if len(products) != len(want) {
		t.Fatalf("got %d products, want %d", len(products), len(want))
	}
	for i, name := range want {
		if products[i].Name != name {
			t.Errorf("products[%d] = %q, want %q", i, products[i].Name, name)
		}
	}
}

func TestMemoryProductNamesAreLowercased(t *testing.T) {
	m := NewMemory()
	seed(t, m, catalog.Product{ID: "1", Name: "WiDgEt"})

	names, err := m.ProductNames(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := names["widget"]; !ok {
		t.Errorf("names = %v, want lowercased widget", names)
	}
}

func TestMemoryGetProductAbsentIsNilNil(t *testing.T) {
	m := NewMemory()

	p, err := m.GetProduct(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("got %+v, want nil", p)
	}
}

func TestMemoryFindProductByName(t *testing.T) {
	m := NewMemory()
	seed(t, m,
		catalog.Product{ID: "1", Name: "widget"},
		catalog.Product{ID: "2", Name: "gadget"},
	)

	t.Run("case-insensitive match", func(t *testing.T) {
		p, err := m.FindProductByName(context.Background(), "WIDGET", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p == nil || p.ID != "1" {
			t.Errorf("got %+v, want product 1", p)
		}
	})

	t.Run("excluded id is invisible", func(t *testing.T) {
		p, err := m.FindProductByName(context.Background(), "widget", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p != nil {
			t.Errorf("got %+v, want nil", p)
		}
	})
}

func TestMemoryUpdateProduct(t *testing.T) {
	m := NewMemory()
	seed(t, m, catalog.Product{ID: "1", Name: "widget", Unit: "pcs", Stock: 3})

	name := "gizmo"
	stock := 9
	updated, err := m.UpdateProduct(context.Background(), "1", catalog.FieldChanges{Name: &name, Stock: &stock})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated == nil {
		t.Fatal("got nil, want updated product")
	}
	if updated.Name != "gizmo" || updated.Stock != 9 {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Unit != "pcs" {
		t.Errorf("unit changed without being in the change set: %q", updated.Unit)
	}

	// Nil change fields leave the stored row untouched.
	stored, _ := m.GetProduct(context.Background(), "1")
	if stored.Name != "gizmo" || stored.Unit != "pcs" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestMemoryUpdateProductMissingIsNilNil(t *testing.T) {
	m := NewMemory()

	name := "x"
	updated, err := m.UpdateProduct(context.Background(), "missing", catalog.FieldChanges{Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated != nil {
		t.Errorf("got %+v, want nil", updated)
	}
}

func TestMemoryAuditHistoryNewestFirstWithLimit(t *testing.T) {
	m := NewMemory()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		err := m.AppendAudit(context.Background(), catalog.AuditRecord{
			ID:          string(rune('a' + i)),
			ProductID:   "p1",
			OldQuantity: i,
			NewQuantity: i + 1,
			ChangedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	records, err := m.AuditHistory(context.Background(), "p1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	// Appended oldest first, so the last three come back reversed.
	for i, wantNew := range []int{5, 4, 3} {
		if records[i].NewQuantity != wantNew {
			t.Errorf("records[%d].NewQuantity = %d, want %d", i, records[i].NewQuantity, wantNew)
		}
	}
}

func TestMemoryAuditHistoryUnknownProductIsEmpty(t *testing.T) {
	m := NewMemory()

	records, err := m.AuditHistory(context.Background(), "nobody", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}
