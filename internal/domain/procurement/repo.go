package procurement

import (
	"context"
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
)

// RequestRepository persists purchase requests.
type RequestRepository interface {
	Create(ctx context.Context, pr *PurchaseRequest) error
	GetByID(ctx context.Context, id id.ID) (*PurchaseRequest, error)

	// GetForUpdate loads the request and row-locks it until commit.
	GetForUpdate(ctx context.Context, id id.ID) (*PurchaseRequest, error)

	// Update persists status and po_id.
	Update(ctx context.Context, pr *PurchaseRequest) error

	List(ctx context.Context, filter RequestFilter) (domain.ListResult[*PurchaseRequest], error)
}

// OrderRepository persists purchase orders and their receipts.
type OrderRepository interface {
	// Create inserts the order and its items.
	Create(ctx context.Context, o *Order) error

	// GetByID loads the order with items and supplier name.
	GetByID(ctx context.Context, id id.ID) (*Order, error)

	// GetForUpdate loads the order with items, row-locking both until commit.
	GetForUpdate(ctx context.Context, id id.ID) (*Order, error)

	// ReplaceItems stores the header fields and replaces the item list.
	ReplaceItems(ctx context.Context, o *Order) error

	// UpdateStatus persists status and lifecycle timestamps.
	UpdateStatus(ctx context.Context, o *Order) error

	// SetReceived stores an item's received counter.
	SetReceived(ctx context.Context, itemID id.ID, received types.Quantity) error

	CreateReceiveRecord(ctx context.Context, rec *ReceiveRecord) error

	// ListReceipts returns an order's receive records, newest first.
	ListReceipts(ctx context.Context, orderID id.ID) ([]ReceiveRecord, error)

	// List returns orders without items, newest first.
	List(ctx context.Context, filter OrderFilter) (domain.ListResult[*Order], error)

	// Overdue returns SENT or PARTIALLY_RECEIVED orders due before the day of
	// now that were not reported yet.
	Overdue(ctx context.Context, now time.Time) ([]*Order, error)

	// MarkOverdueNotified stops an order from being reported again.
	MarkOverdueNotified(ctx context.Context, orderID id.ID, at time.Time) error
}
