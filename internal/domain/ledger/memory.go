package ledger

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

type memoryKey struct {
	location id.ID
	product  id.ID
}

// MemoryRepository is an in-memory Repository for tests and local tooling.
// Row locks are not modelled.
type MemoryRepository struct {
	mu        sync.Mutex
	rows      map[memoryKey]*StockItem
	order     []memoryKey
	locations map[id.ID][2]string
	products  map[id.ID][3]string
}

// NewMemoryRepository creates an empty ledger.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rows:      make(map[memoryKey]*StockItem),
		locations: make(map[id.ID][2]string),
		products:  make(map[id.ID][3]string),
	}
}

// DescribeLocation registers the name and type returned in views.
func (m *MemoryRepository) DescribeLocation(locationID id.ID, name, locationType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[locationID] = [2]string{name, locationType}
}

// DescribeProduct registers the name, category and unit returned in views.
func (m *MemoryRepository) DescribeProduct(productID id.ID, name, categoryName, unit string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[productID] = [3]string{name, categoryName, unit}
}

// Quantity returns the current quantity without locking semantics.
func (m *MemoryRepository) Quantity(locationID, productID id.ID) types.Quantity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[memoryKey{locationID, productID}]; ok {
		return row.Quantity
	}
	return 0
}

func (m *MemoryRepository) row(locationID, productID id.ID) *StockItem {
	key := memoryKey{locationID, productID}
	row, ok := m.rows[key]
	if !ok {
		row = &StockItem{ID: id.New(), LocationID: locationID, ProductID: productID}
		m.rows[key] = row
		m.order = append(m.order, key)
	}
	row.UpdatedAt = time.Now().UTC()
	return row
}

// ApplyDelta implements Repository.
func (m *MemoryRepository) ApplyDelta(_ context.Context, locationID, productID id.ID, delta types.Quantity) (types.Quantity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.row(locationID, productID)
	row.Quantity += delta
	return row.Quantity, nil
}

// SetAbsolute implements Repository.
func (m *MemoryRepository) SetAbsolute(_ context.Context, locationID, productID id.ID, value types.Quantity) (types.Quantity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.row(locationID, productID)
	row.Quantity = value
	return row.Quantity, nil
}

// Lock implements Repository.
func (m *MemoryRepository) Lock(_ context.Context, locationID, productID id.ID) (types.Quantity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[memoryKey{locationID, productID}]; ok {
		return row.Quantity, nil
	}
	return 0, nil
}

// SetLimit implements Repository.
func (m *MemoryRepository) SetLimit(_ context.Context, locationID, productID id.ID, limit *types.Quantity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.row(locationID, productID)
	if limit == nil {
		row.LimitQty = nil
		return nil
	}
	v := *limit
	row.LimitQty = &v
	return nil
}

// ListByLocation implements Repository.
func (m *MemoryRepository) ListByLocation(_ context.Context, locationID id.ID) ([]StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []StockItem
	for _, key := range m.order {
		if key.location == locationID {
			out = append(out, *m.rows[key])
		}
	}
	return out, nil
}

func (m *MemoryRepository) view(row *StockItem) StockView {
	loc := m.locations[row.LocationID]
	prod := m.products[row.ProductID]
	return StockView{
		StockItem:    *row,
		LocationName: loc[0],
		LocationType: loc[1],
		ProductName:  prod[0],
		CategoryName: prod[1],
		Unit:         prod[2],
	}
}

// List implements Repository.
func (m *MemoryRepository) List(_ context.Context, filter Filter) ([]StockView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []StockView
	for _, key := range m.order {
		row := m.rows[key]
		if len(filter.LocationIDs) > 0 && !slices.Contains(filter.LocationIDs, row.LocationID) {
			continue
		}
		if filter.ProductID != nil && *filter.ProductID != row.ProductID {
			continue
		}
		if filter.WithLimit && row.LimitQty == nil {
			continue
		}
		v := m.view(row)
		if filter.Search != "" && !strings.Contains(strings.ToLower(v.ProductName), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// LowStockCandidates implements Repository.
func (m *MemoryRepository) LowStockCandidates(_ context.Context, warehouseID id.ID) ([]StockView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []StockView
	for _, key := range m.order {
		row := m.rows[key]
		v := m.view(row)
		if row.LocationID == warehouseID || (row.LimitQty != nil && v.LocationType == "SITE") {
			out = append(out, v)
		}
	}
	return out, nil
}

// MarkLowNotified implements Repository.
func (m *MemoryRepository) MarkLowNotified(_ context.Context, rowIDs []id.ID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if slices.Contains(rowIDs, row.ID) {
			t := at
			row.LowNotifiedAt = &t
		}
	}
	return nil
}

// ClearLowNotified implements Repository.
func (m *MemoryRepository) ClearLowNotified(_ context.Context, rowIDs []id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if slices.Contains(rowIDs, row.ID) {
			row.LowNotifiedAt = nil
		}
	}
	return nil
}

// Snapshot copies the current rows and returns a func that puts them back.
// Test transaction managers call it to emulate a rollback.
func (m *MemoryRepository) Snapshot() (restore func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make(map[memoryKey]StockItem, len(m.rows))
	for k, row := range m.rows {
		c := *row
		if row.LimitQty != nil {
			limit := *row.LimitQty
			c.LimitQty = &limit
		}
		if row.LowNotifiedAt != nil {
			at := *row.LowNotifiedAt
			c.LowNotifiedAt = &at
		}
		rows[k] = c
	}
	order := slices.Clone(m.order)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.rows = make(map[memoryKey]*StockItem, len(rows))
		for k, row := range rows {
			m.rows[k] = &row
		}
		m.order = order
	}
}

var _ Repository = (*MemoryRepository)(nil)
