// Package stocktake implements inventory counts: a snapshot of a location's
// ledger rows, iterative counting, and an authoritative overwrite on close.
package stocktake

import (
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
	"stockflow/internal/domain/ledger"
)

// Status of an inventory count.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// Count is a physical stocktake of one location. CreatedBy is the counter.
type Count struct {
	entity.BaseDocument

	LocationID id.ID      `db:"location_id" json:"locationId"`
	Status     Status     `db:"status" json:"status"`
	Note       *string    `db:"note" json:"note,omitempty"`
	ClosedAt   *time.Time `db:"closed_at" json:"closedAt,omitempty"`

	// Filled by read queries
	LocationName string `db:"location_name" json:"locationName,omitempty"`
	ItemsCount   int    `db:"items_count" json:"itemsCount"`

	Items []Item `db:"-" json:"items"`
}

// Item is one snapshotted product. ActualQty nil means not counted yet.
type Item struct {
	ID         id.ID           `db:"id" json:"id"`
	CountID    id.ID           `db:"inventory_id" json:"inventoryId"`
	ProductID  id.ID           `db:"product_id" json:"productId"`
	SystemQty  types.Quantity  `db:"system_qty" json:"systemQty"`
	ActualQty  *types.Quantity `db:"actual_qty" json:"actualQty"`
	Difference types.Quantity  `db:"difference" json:"difference"`

	ProductName  string `db:"product_name" json:"productName,omitempty"`
	Unit         string `db:"unit" json:"unit,omitempty"`
	CategoryName string `db:"category_name" json:"categoryName,omitempty"`
}

// ActualLine sets the counted quantity of one product.
type ActualLine struct {
	ProductID id.ID          `json:"productId"`
	ActualQty types.Quantity `json:"actualQty"`
}

// NewCount snapshots the given ledger rows into an IN_PROGRESS count.
func NewCount(locationID id.ID, createdBy string, note *string, rows []ledger.StockItem) *Count {
	c := &Count{
		BaseDocument: entity.NewBaseDocument(createdBy),
		LocationID:   locationID,
		Status:       StatusInProgress,
		Note:         note,
		Items:        make([]Item, 0, len(rows)),
	}
	for _, row := range rows {
		c.Items = append(c.Items, Item{
			ID:        id.New(),
			CountID:   c.ID,
			ProductID: row.ProductID,
			SystemQty: row.Quantity,
		})
	}
	c.ItemsCount = len(c.Items)
	return c
}

func (c *Count) requireInProgress() error {
	if c.Status != StatusInProgress {
		return apperror.NewInvalidStatus("inventory", string(c.Status), string(StatusInProgress))
	}
	return nil
}

// SetActuals records counted quantities; the last write per product wins.
// It returns the touched items. Products outside the snapshot are rejected.
func (c *Count) SetActuals(lines []ActualLine) ([]Item, error) {
	if err := c.requireInProgress(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperror.NewValidation("items are required").WithDetail("field", "items")
	}
	index := make(map[id.ID]int, len(c.Items))
	for i, item := range c.Items {
		index[item.ProductID] = i
	}

	touched := make(map[int]struct{}, len(lines))
	for i, line := range lines {
		pos, ok := index[line.ProductID]
		if !ok {
			return nil, apperror.NewValidation("product is not part of this inventory").
				WithDetail("field", fmt.Sprintf("items[%d].productId", i)).
				WithDetail("product_id", line.ProductID)
		}
		if line.ActualQty.IsNegative() {
			return nil, apperror.NewValidation("actualQty must not be negative").
				WithDetail("field", fmt.Sprintf("items[%d].actualQty", i))
		}
		actual := line.ActualQty
		c.Items[pos].ActualQty = &actual
		touched[pos] = struct{}{}
	}

	out := make([]Item, 0, len(touched))
	for i, item := range c.Items {
		if _, ok := touched[i]; ok {
			out = append(out, item)
		}
	}
	c.Touch()
	return out, nil
}

// Missing counts items without an actual quantity.
func (c *Count) Missing() int {
	n := 0
	for _, item := range c.Items {
		if item.ActualQty == nil {
			n++
		}
	}
	return n
}

// Complete computes every difference and moves the count to COMPLETED.
// Every item must have been counted.
func (c *Count) Complete(at time.Time) error {
	if err := c.requireInProgress(); err != nil {
		return err
	}
	if missing := c.Missing(); missing > 0 {
		return apperror.NewBusinessRule(apperror.CodeItemsNotCounted, "all items must be counted before closing").
			WithDetail("missingCount", missing)
	}
	for i := range c.Items {
		c.Items[i].Difference = *c.Items[i].ActualQty - c.Items[i].SystemQty
	}
	c.Status = StatusCompleted
	c.ClosedAt = &at
	c.Touch()
	return nil
}

// ListFilter narrows inventory lists.
type ListFilter struct {
	domain.ListFilter

	Status      *Status
	LocationIDs []id.ID
}
