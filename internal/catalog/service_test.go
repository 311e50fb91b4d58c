package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prodcat/catalog/internal/catalog"
	"github.com/prodcat/catalog/internal/store"
)

func newService(t *testing.T) (*catalog.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return catalog.NewService(mem), mem
}

func seedProduct(t *testing.T, mem *store.Memory, p catalog.Product) catalog.Product {
	t.Helper()
	if p.ID == "" {
		p.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", seedCounter)
		seedCounter++
	}
	if _, err := mem.BulkInsertProducts(context.Background(), []catalog.Product{p}); err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	return p
}

var seedCounter int

func patch(t *testing.T, body string) catalog.ProductPatch {
	t.Helper()
	var p catalog.ProductPatch
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("decoding patch %q: %v", body, err)
	}
	return p
}

// ============================================================================
// Import
// ============================================================================

func TestImportCategorizesEveryRow(t *testing.T) {
	svc, _ := newService(t)

	csv := "name,unit,category,brand,stock,status,image\n" +
		"Widget,pcs,tools,Acme,5,active,\n" +
		"widget,pcs,tools,Acme,9,active,\n" +
		"Gadget,pcs,tools,Acme,2,,\n"

	result, err := svc.Import(context.Background(), []byte(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.AddedCount != 2 {
		t.Errorf("addedCount = %d, want 2", result.AddedCount)
	}
	if result.SkippedCount != 1 {
		t.Errorf("skippedCount = %d, want 1", result.SkippedCount)
	}
	if result.AddedCount+result.SkippedCount != 3 {
		t.Errorf("added + skipped = %d, want 3", result.AddedCount+result.SkippedCount)
	}
	if len(result.Duplicates) != 1 {
		t.Fatalf("duplicates = %d, want 1", len(result.Duplicates))
	}
	if result.Duplicates[0].Reason != catalog.DuplicateReason {
		t.Errorf("duplicate reason = %q", result.Duplicates[0].Reason)
	}
}

func TestImportIsCaseInsensitiveAndBatchAware(t *testing.T) {
	svc, _ := newService(t)

	csv := "name,stock\nWidget,1\nWIDGET,2\nwidget,3\n"
	result, err := svc.Import(context.Background(), []byte(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AddedCount != 1 || result.SkippedCount != 2 {
		t.Errorf("added = %d, skipped = %d, want 1 and 2", result.AddedCount, result.SkippedCount)
	}
}

func TestReimportSkipsEverything(t *testing.T) {
	svc, _ := newService(t)
	csv := "name,stock\na,1\nb,2\n"

	if _, err := svc.Import(context.Background(), []byte(csv)); err != nil {
		t.Fatalf("first import: %v", err)
	}

	result, err := svc.Import(context.Background(), []byte(csv))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.AddedCount != 0 || result.SkippedCount != 2 {
		t.Errorf("re-import: added = %d, skipped = %d, want 0 and 2", result.AddedCount, result.SkippedCount)
	}
}

func TestImportEmptyCSVIsCallerError(t *testing.T) {
	svc, _ := newService(t)

	for _, input := range []string{"", "name,unit,category,brand,stock,status,image\n"} {
		_, err := svc.Import(context.Background(), []byte(input))
		if err == nil {
			t.Fatalf("input %q: expected error", input)
		}
		if catalog.KindOf(err) != catalog.KindInvalid {
			t.Errorf("input %q: kind = %v, want invalid", input, catalog.KindOf(err))
		}
	}
}

func TestImportNonNumericStockNeverFails(t *testing.T) {
	svc, mem := newService(t)

	csv := "name,stock\nwidget,unknown\n"
	result, err := svc.Import(context.Background(), []byte(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AddedCount != 1 {
		t.Fatalf("addedCount = %d, want 1", result.AddedCount)
	}

	products, _ := mem.ListProducts(context.Background())
	if products[0].Stock != 0 {
		t.Errorf("stock = %d, want 0", products[0].Stock)
	}
}

type failingBulkStore struct {
	catalog.Store
	err error
}

func (f *failingBulkStore) BulkInsertProducts(ctx context.Context, products []catalog.Product) (int, error) {
	return 0, f.err
}

func TestImportStoreFailureIsPersistenceError(t *testing.T) {
	failing := &failingBulkStore{Store: store.NewMemory(), err: errors.New("connection refused")}
	svc := catalog.NewService(failing)

	_, err := svc.Import(context.Background(), []byte("name,stock\na,1\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if catalog.KindOf(err) != catalog.KindPersistence {
		t.Errorf("kind = %v, want persistence", catalog.KindOf(err))
	}
}

func TestImportFileDeletesTempFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "success", content: "name,stock\na,1\n"},
		{name: "parse failure", content: "name\n\"broken", wantErr: true},
		{name: "empty file", content: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)

			path := filepath.Join(t.TempDir(), "upload.csv")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("writing temp file: %v", err)
			}

			_, err := svc.ImportFile(context.Background(), path)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
				t.Errorf("temp file still exists after import")
			}
		})
	}
}

// ============================================================================
// Export / List
// ============================================================================

func TestExportEmptyCatalogIsNotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Export(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if catalog.KindOf(err) != catalog.KindNotFound {
		t.Errorf("kind = %v, want not found", catalog.KindOf(err))
	}
}

func TestExportProducesHeaderAndRows(t *testing.T) {
	svc, mem := newService(t)
	seedProduct(t, mem, catalog.Product{Name: "widget", Stock: 4, Status: "active"})

	data, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(data), "name,unit,category,brand,stock,status,image\n") {
		t.Errorf("export missing header: %q", data)
	}
	if !strings.Contains(string(data), "widget") {
		t.Errorf("export missing row: %q", data)
	}
}

func TestListEmptyCatalogIsNotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.List(context.Background())
	if catalog.KindOf(err) != catalog.KindNotFound {
		t.Errorf("kind = %v, want not found", catalog.KindOf(err))
	}
}

// ============================================================================
// Update & audit
// ============================================================================

func TestUpdateRequiresAtLeastOneField(t *testing.T) {
	svc, mem := newService(t)
	p := seedProduct(t, mem, catalog.Product{Name: "widget", Stock: 1})

	_, err := svc.Update(context.Background(), p.ID, patch(t, `{}`))
	if catalog.KindOf(err) != catalog.KindInvalid {
		t.Errorf("kind = %v, want invalid", catalog.KindOf(err))
	}

	// Unrecognized fields do not count.
	_, err = svc.Update(context.Background(), p.ID, patch(t, `{"price": 10}`))
	if catalog.KindOf(err) != catalog.KindInvalid {
		t.Errorf("unrecognized field: kind = %v, want invalid", catalog.KindOf(err))
	}
}

func TestUpdateMissingProductIsNotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Update(context.Background(), "no-such-id", patch(t, `{"unit":"pcs"}`))
	if catalog.KindOf(err) != catalog.KindNotFound {
		t.Errorf("kind = %v, want not found", catalog.KindOf(err))
	}
}

func TestUpdateStockChangeAppendsExactlyOneAuditRecord(t *testing.T) {
	svc, mem := newService(t)
	p := seedProduct(t, mem, catalog.Product{Name: "widget", Stock: 5})

	result, err := svc.Update(context.Background(), p.ID, patch(t, `{"stock": 8}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.StockChanged {
		t.Error("StockChanged = false, want true")
	}

	history, err := svc.History(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(history))
	}
	if history[0].OldQuantity != 5 || history[0].NewQuantity != 8 {
		t.Errorf("audit = {old: %d, new: %d}, want {old: 5, new: 8}", history[0].OldQuantity, history[0].NewQuantity)
	}
	if history[0].ChangedAt.IsZero() {
		t.Error("audit timestamp not set")
	}
}

func TestUpdateSameStockAppendsNothing(t *testing.T) {
	svc, mem := newService(t)
	p := seedProduct(t, mem, catalog.Product{Name: "widget", Stock: 5})

	result, err := svc.Update(context.Background(), p.ID, patch(t, `{"stock": 5}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StockChanged {
		t.Error("StockChanged = true, want false")
	}

	history, _ := svc.History(context.Background(), p.ID)
	if len(history) != 0 {
		t.Errorf("history entries = %d, want 0", len(history))
	}
}

func TestUpdateStockValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "negative number", body: `{"stock": -1}`},
		{name: "non-numeric string", body: `{"stock": "lots"}`},
		{name: "decimal", body: `{"stock": 3.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem := newService(t)
			p := seedProduct(t, mem, catalog.Product{Name: "widget", Stock: 5})

			_, err := svc.Update(context.Background(), p.ID, patch(t, tt.body))
			if catalog.KindOf(err) != catalog.KindInvalid {
				t.Fatalf("kind = %v, want invalid", catalog.KindOf(err))
			}
			if catalog.FieldOf(err) != "stock" {
				t.Errorf("field = %q, want stock", catalog.FieldOf(err))
			}
		})
	}
}

func TestUpdateStockAcceptsNumericString(t *testing.T) {
	svc, mem := newService(t)
	p := seedProduct(t, mem, catalog.Product{Name: "widget", Stock: 5})

	result, err := svc.Update(context.Background(), p.ID, patch(t, `{"stock": "12"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Product.Stock != 12 {
		t.Errorf("stock = %d, want 12", result.Product.Stock)
	}
}

func TestUpdateRenameConflict(t *testing.T) {
	svc, mem := newService(t)
	seedProduct(t, mem, catalog.Product{Name: "widget", Stock: 1})
	p := seedProduct(t, mem, catalog.Product{Name: "gadget", Stock: 1})

	_, err := svc.Update(context.Background(), p.ID, patch(t, `{"name": "Widget"}`))
	if catalog.KindOf(err) != catalog.KindConflict {
		t.Fatalf("kind = %v, want conflict", catalog.KindOf(err))
	}
	if !strings.Contains(err.Error(), "Widget") {
		t.Errorf("conflict message should name the value: %q", err.Error())
	}
}

func TestUpdateRenameToOwnNameIsNoOp(t *testing.T) {
	svc, mem := newService(t)
	p := seedProduct(t, mem, catalog.Product{Name: "widget", Stock: 1})

	result, err := svc.Update(context.Background(), p.ID, patch(t, `{"name": "  WIDGET "}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Product.Name != "widget" {
		t.Errorf("name = %q, want widget", result.Product.Name)
	}
}

func TestUpdateEmptyNameRejected(t *testing.T) {
	svc, mem := newService(t)
	p := seedProduct(t, mem, catalog.Product{Name: "widget", Stock: 1})

	_, err := svc.Update(context.Background(), p.ID, patch(t, `{"name": "   "}`))
	if catalog.KindOf(err) != catalog.KindInvalid {
		t.Fatalf("kind = %v, want invalid", catalog.KindOf(err))
	}
	if catalog.FieldOf(err) != "name" {
		t.Errorf("field = %q, want name", catalog.FieldOf(err))
	}
}

func TestUpdateFieldPolicy(t *testing.T) {
	svc, mem := newService(t)
	p := seedProduct(t, mem, catalog.Product{Name: "widget", Unit: "pcs", Stock: 1, Status: "draft"})

	result, err := svc.Update(context.Background(), p.ID,
		patch(t, `{"unit": " box ", "brand": " Acme ", "status": "ACTIVE", "image": "  raw.png  "}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := result.Product
	if got.Unit != "box" {
		t.Errorf("unit = %q, want trimmed %q", got.Unit, "box")
	}
	if got.Brand != "Acme" {
		t.Errorf("brand = %q, want trimmed %q", got.Brand, "Acme")
	}
	if got.Status != "active" {
		t.Errorf("status = %q, want lowercased %q", got.Status, "active")
	}
	if got.Image != "  raw.png  " {
		t.Errorf("image = %q, want verbatim", got.Image)
	}
	if got.Name != "widget" {
		t.Errorf("name changed without being in the patch: %q", got.Name)
	}
}

type racingStore struct {
	catalog.Store
}

func (r *racingStore) UpdateProduct(ctx context.Context, id string, changes catalog.FieldChanges) (*catalog.Product, error) {
	return nil, nil
}

func TestUpdatePostCheckRaceIsPersistenceError(t *testing.T) {
	mem := store.NewMemory()
	seedProduct(t, mem, catalog.Product{ID: "11111111-1111-1111-1111-111111111111", Name: "widget", Stock: 1})
	svc := catalog.NewService(&racingStore{Store: mem})

	_, err := svc.Update(context.Background(), "11111111-1111-1111-1111-111111111111", patch(t, `{"unit":"pcs"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if catalog.KindOf(err) != catalog.KindPersistence {
		t.Errorf("kind = %v, want persistence", catalog.KindOf(err))
	}
}

// ============================================================================
// History
// ============================================================================

func TestHistoryEmptyIsSuccess(t *testing.T) {
	svc, mem := newService(t)
	p := seedProduct(t, mem, catalog.Product{Name: "widget", Stock: 1})

	history, err := svc.History(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if history == nil {
		t.Fatal("history is nil, want empty slice")
	}
	if len(history) != 0 {
		t.Errorf("history entries = %d, want 0", len(history))
	}
}

func TestHistoryNewestFirstCappedAt100(t *testing.T) {
	svc, mem := newService(t)
	p := seedProduct(t, mem, catalog.Product{ID: "22222222-2222-2222-2222-222222222222", Name: "widget", Stock: 0})

	for i := 0; i < 150; i++ {
		body := fmt.Sprintf(`{"stock": %d}`, i+1)
		if _, err := svc.Update(context.Background(), p.ID, patch(t, body)); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	history, err := svc.History(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != catalog.DefaultHistoryLimit {
		t.Fatalf("history entries = %d, want %d", len(history), catalog.DefaultHistoryLimit)
	}

	// Newest first: the latest update took stock from 149 to 150.
	if history[0].NewQuantity != 150 || history[0].OldQuantity != 149 {
		t.Errorf("newest entry = {old: %d, new: %d}, want {old: 149, new: 150}",
			history[0].OldQuantity, history[0].NewQuantity)
	}
	for i := 1; i < len(history); i++ {
		if history[i].NewQuantity > history[i-1].NewQuantity {
			t.Fatalf("history not newest-first at index %d", i)
		}
	}
}
