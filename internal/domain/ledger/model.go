// Package ledger holds the per-(location, product) stock quantities and the
// transfer engine that is the only writer of them.
package ledger

import (
	"context"
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// StockItem is one ledger row. Quantity is the running total of every
// committed delta; LimitQty is the replenishment ceiling of SITE rows.
type StockItem struct {
	ID         id.ID           `db:"id" json:"id"`
	LocationID id.ID           `db:"location_id" json:"locationId"`
	ProductID  id.ID           `db:"product_id" json:"productId"`
	Quantity   types.Quantity  `db:"quantity" json:"quantity"`
	LimitQty   *types.Quantity `db:"limit_qty" json:"limitQty,omitempty"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updatedAt"`

	// LowNotifiedAt is set while the row has an unresolved LOW_STOCK notification.
	LowNotifiedAt *time.Time `db:"low_notified_at" json:"-"`
}

// StockView is a ledger row joined with its location and product.
type StockView struct {
	StockItem

	LocationName string `db:"location_name" json:"locationName"`
	LocationType string `db:"location_type" json:"locationType"`
	ProductName  string `db:"product_name" json:"productName"`
	CategoryID   id.ID  `db:"category_id" json:"categoryId"`
	CategoryName string `db:"category_name" json:"categoryName"`
	Unit         string `db:"unit" json:"unit"`
}

// Filter narrows ledger lists. An empty LocationIDs means all locations.
type Filter struct {
	LocationIDs []id.ID
	CategoryID  *id.ID
	ProductID   *id.ID
	Search      string
	WithLimit   bool
}

// Repository persists ledger rows. The three mutating primitives must run
// inside the caller's transaction.
type Repository interface {
	// ApplyDelta adds delta to the row, creating it at zero first. Returns the new quantity.
	ApplyDelta(ctx context.Context, locationID, productID id.ID, delta types.Quantity) (types.Quantity, error)

	// SetAbsolute replaces the quantity, creating the row if absent.
	SetAbsolute(ctx context.Context, locationID, productID id.ID, value types.Quantity) (types.Quantity, error)

	// Lock takes a row lock and returns the current quantity, zero when the row is absent.
	Lock(ctx context.Context, locationID, productID id.ID) (types.Quantity, error)

	// SetLimit sets the ceiling, creating the row at zero quantity if absent.
	SetLimit(ctx context.Context, locationID, productID id.ID, limit *types.Quantity) error

	// ListByLocation returns every row of a location.
	ListByLocation(ctx context.Context, locationID id.ID) ([]StockItem, error)

	// List returns joined rows ordered by location then product name.
	List(ctx context.Context, filter Filter) ([]StockView, error)

	// LowStockCandidates returns the warehouse rows plus every SITE row that has a limit.
	LowStockCandidates(ctx context.Context, warehouseID id.ID) ([]StockView, error)

	// MarkLowNotified records that LOW_STOCK was published for the rows.
	MarkLowNotified(ctx context.Context, rowIDs []id.ID, at time.Time) error

	// ClearLowNotified resets the marker of rows that are no longer low.
	ClearLowNotified(ctx context.Context, rowIDs []id.ID) error
}

// InitialLine sets an absolute opening quantity.
type InitialLine struct {
	LocationID id.ID          `json:"locationId"`
	ProductID  id.ID          `json:"productId"`
	Quantity   types.Quantity `json:"quantity"`
}

// LimitLine sets a SITE replenishment ceiling.
type LimitLine struct {
	LocationID id.ID          `json:"locationId"`
	ProductID  id.ID          `json:"productId"`
	LimitQty   types.Quantity `json:"limitQty"`
}

// Skip reasons of administrative batches.
const (
	ReasonMissingFields    = "missing_fields"
	ReasonNegativeQuantity = "negative_quantity"
	ReasonLocationNotFound = "location_not_found"
	ReasonNotASite         = "not_a_site"
)

// LineResult is the outcome of one administrative line.
type LineResult struct {
	LocationID id.ID          `json:"locationId"`
	ProductID  id.ID          `json:"productId"`
	Applied    bool           `json:"applied"`
	Quantity   types.Quantity `json:"quantity"`
	Reason     string         `json:"reason,omitempty"`
}

// AutofillLine suggests the quantity that brings a site back to its limit.
type AutofillLine struct {
	ProductID    id.ID          `json:"productId"`
	ProductName  string         `json:"productName"`
	CategoryName string         `json:"categoryName"`
	Unit         string         `json:"unit"`
	CurrentQty   types.Quantity `json:"currentQty"`
	LimitQty     types.Quantity `json:"limitQty"`
	Quantity     types.Quantity `json:"quantity"`
}

// Autofill computes max(0, limit − quantity) for rows with a limit and keeps
// only positive suggestions, in input order.
func Autofill(rows []StockView) []AutofillLine {
	out := make([]AutofillLine, 0, len(rows))
	for _, r := range rows {
		if r.LimitQty == nil {
			continue
		}
		need := *r.LimitQty - r.Quantity
		if need <= 0 {
			continue
		}
		out = append(out, AutofillLine{
			ProductID:    r.ProductID,
			ProductName:  r.ProductName,
			CategoryName: r.CategoryName,
			Unit:         r.Unit,
			CurrentQty:   r.Quantity,
			LimitQty:     *r.LimitQty,
			Quantity:     need,
		})
	}
	return out
}
