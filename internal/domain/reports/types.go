// Package reports provides read-only reporting over stock, issues, purchases
// and requests.
package reports

import (
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// Period bounds a report by date. Nil ends are open.
type Period struct {
	From *time.Time
	To   *time.Time
}

// --- Stock ---

// StockFilter defines filter for the stock report.
type StockFilter struct {
	LocationIDs []id.ID
	CategoryID  *id.ID
}

// StockRow is one ledger row of the stock report.
type StockRow struct {
	LocationID   id.ID           `db:"location_id" json:"locationId"`
	LocationName string          `db:"location_name" json:"locationName"`
	CategoryName string          `db:"category_name" json:"categoryName"`
	ProductID    id.ID           `db:"product_id" json:"productId"`
	ProductName  string          `db:"product_name" json:"productName"`
	Unit         string          `db:"unit" json:"unit"`
	Quantity     types.Quantity  `db:"quantity" json:"quantity"`
	LimitQty     *types.Quantity `db:"limit_qty" json:"limitQty,omitempty"`
}

// StockReport is ordered by location, category, then product.
type StockReport struct {
	GeneratedAt time.Time  `json:"generatedAt"`
	Items       []StockRow `json:"items"`
	TotalItems  int        `json:"totalItems"`
}

// --- Consumption ---

// ConsumptionFilter defines filter for the consumption report.
type ConsumptionFilter struct {
	Period
	LocationIDs []id.ID
}

// ConsumptionRow is one issue record.
type ConsumptionRow struct {
	IssuedAt     time.Time      `db:"issued_at" json:"issuedAt"`
	RequestID    id.ID          `db:"request_id" json:"requestId"`
	LocationID   id.ID          `db:"location_id" json:"locationId"`
	LocationName string         `db:"location_name" json:"locationName"`
	CategoryName string         `db:"category_name" json:"categoryName"`
	ProductID    id.ID          `db:"product_id" json:"productId"`
	ProductName  string         `db:"product_name" json:"productName"`
	Unit         string         `db:"unit" json:"unit"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	IssuedBy     string         `db:"issued_by" json:"issuedBy"`
}

// ConsumptionTotal sums issued quantity per product.
type ConsumptionTotal struct {
	ProductID   id.ID          `json:"productId"`
	ProductName string         `json:"productName"`
	Unit        string         `json:"unit"`
	Quantity    types.Quantity `json:"quantity"`
}

// ConsumptionReport lists issues oldest first with per-product totals.
type ConsumptionReport struct {
	Period
	Items  []ConsumptionRow   `json:"items"`
	Totals []ConsumptionTotal `json:"totals"`
}

// --- Purchases ---

// PurchaseFilter defines filter for the purchases report.
type PurchaseFilter struct {
	Period
	SupplierID *id.ID
	Status     string
}

// PurchaseRow is one purchase order line.
type PurchaseRow struct {
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	POID         id.ID          `db:"po_id" json:"poId"`
	PONumber     string         `db:"po_number" json:"poNumber"`
	SupplierName string         `db:"supplier_name" json:"supplierName"`
	CategoryName string         `db:"category_name" json:"categoryName"`
	ProductName  string         `db:"product_name" json:"productName"`
	Unit         string         `db:"unit" json:"unit"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice    types.Money    `db:"unit_price" json:"unitPrice"`
	TotalPrice   types.Money    `db:"total_price" json:"totalPrice"`
	ReceivedQty  types.Quantity `db:"received_qty" json:"receivedQty"`
	Status       string         `db:"status" json:"status"`
}

// PurchaseReport lists order lines oldest first.
type PurchaseReport struct {
	Period
	Items       []PurchaseRow `json:"items"`
	OrdersCount int           `json:"ordersCount"`
	TotalAmount types.Money   `json:"totalAmount"`
}

// --- Requests ---

// RequestFilter defines filter for the requests report.
type RequestFilter struct {
	Period
	LocationIDs []id.ID
	Status      string
}

// RequestRow summarises one replenishment request.
type RequestRow struct {
	RequestID     id.ID          `db:"request_id" json:"requestId"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	LocationName  string         `db:"location_name" json:"locationName"`
	CreatedBy     string         `db:"created_by" json:"createdBy"`
	Status        string         `db:"status" json:"status"`
	ItemsCount    int            `db:"items_count" json:"itemsCount"`
	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`
	TotalIssued   types.Quantity `db:"total_issued" json:"totalIssued"`
}

// RequestReport lists requests newest first with a per-status count.
type RequestReport struct {
	Period
	Items    []RequestRow   `json:"items"`
	ByStatus map[string]int `json:"byStatus"`
}
