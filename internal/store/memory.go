package store

import (
	"context"
	"strings"
	"sync"

	"github.com/prodcat/catalog/internal/catalog"
)

// Memory implements catalog.Store with in-process maps. It backs the
// "memory" store driver for local development and is the injected fake for
// core and handler tests. All methods are safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	order  []string                          // insertion order of product ids
	byID   map[string]catalog.Product
	audits map[string][]catalog.AuditRecord // per product, append order (oldest first)
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byID:   make(map[string]catalog.Product),
		audits: make(map[string][]catalog.AuditRecord),
	}
}

// Ping always succeeds; the memory store has no external dependency.
func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]catalog.Product, 0, len(m.order))
	for _, id := range m.order {
		products = append(products, m.byID[id])
	}
	return products, nil
}

func (m *Memory) ProductNames(ctx context.Context) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make(map[string]struct{}, len(m.byID))
	for _, p := range m.byID {
		names[strings.ToLower(p.Name)] = struct{}{}
	}
	return names, nil
}

func (m *Memory) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) FindProductByName(ctx context.Context, name, excludeID string) (*catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = strings.ToLower(name)
	for _, id := range m.order {
		p := m.byID[id]
		if p.ID != excludeID && strings.ToLower(p.Name) == name {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *Memory) BulkInsertProducts(ctx context.Context, products []catalog.Product) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range products {
		m.byID[p.ID] = p
		m.order = append(m.order, p.ID)
	}
	return len(products), nil
}

func (m *Memory) UpdateProduct(ctx context.Context, id string, changes catalog.FieldChanges) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}

	if changes.Name != nil {
		p.Name = *changes.Name
	}
	if changes.Unit != nil {
		p.Unit = *changes.Unit
	}
	if changes.Category != nil {
		p.Category = *changes.Category
	}
	if changes.Brand != nil {
		p.Brand = *changes.Brand
	}
	if changes.Stock != nil {
		p.Stock = *changes.Stock
	}
	if changes.Status != nil {
		p.Status = *changes.Status
	}
	if changes.Image != nil {
		p.Image = *changes.Image
	}

	m.byID[id] = p
	return &p, nil
}

func (m *Memory) AppendAudit(ctx context.Context, rec catalog.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.audits[rec.ProductID] = append(m.audits[rec.ProductID], rec)
	return nil
}

// AuditHistory returns the most recent records first. Append order is the
// tiebreaker for records sharing a timestamp.
func (m *Memory) AuditHistory(ctx context.Context, productID string, limit int) ([]catalog.AuditRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.audits[productID]
	n := len(all)
	if limit > 0 && n > limit {
		n = limit
	}

	records := make([]catalog.AuditRecord, 0, n)
	for i := len(all) - 1; i >= 0 && len(records) < n; i-- {
		records = append(records, all[i])
	}
	return records, nil
}
