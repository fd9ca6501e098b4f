package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
	"stockflow/internal/domain/procurement"
	"stockflow/internal/infrastructure/storage/postgres"
)

const (
	purchaseRequestsTable     = "purchase_requests"
	purchaseRequestItemsTable = "purchase_request_items"
	purchaseOrdersTable       = "purchase_orders"
	purchaseOrderItemsTable   = "purchase_order_items"
	receiveRecordsTable       = "receive_records"
)

var purchaseSorts = sortColumns{
	"created_at": "h.created_at",
	"updated_at": "h.updated_at",
	"status":     "h.status",
}

// PurchaseRequestRepo implements procurement.RequestRepository.
type PurchaseRequestRepo struct {
	*BaseDocumentRepo
}

// NewPurchaseRequestRepo creates a new purchase request repository.
func NewPurchaseRequestRepo(txManager *postgres.TxManager) *PurchaseRequestRepo {
	return &PurchaseRequestRepo{BaseDocumentRepo: NewBaseDocumentRepo(txManager, purchaseRequestsTable, "purchase_request")}
}

var _ procurement.RequestRepository = (*PurchaseRequestRepo)(nil)

// Create inserts the request and its items.
func (r *PurchaseRequestRepo) Create(ctx context.Context, pr *procurement.PurchaseRequest) error {
	_, err := r.exec(ctx, r.Builder().
		Insert(purchaseRequestsTable).
		Columns("id", "version", "status", "note", "po_id", "created_by", "created_at", "updated_at").
		Values(pr.ID, pr.Version, pr.Status, pr.Note, pr.POID, pr.CreatedBy, pr.CreatedAt, pr.UpdatedAt))
	if err != nil {
		return err
	}
	if len(pr.Items) == 0 {
		return nil
	}
	ins := r.Builder().Insert(purchaseRequestItemsTable).Columns("id", "purchase_request_id", "product_id", "quantity")
	for _, it := range pr.Items {
		ins = ins.Values(it.ID, pr.ID, it.ProductID, it.Quantity)
	}
	_, err = r.exec(ctx, ins)
	return err
}

func (r *PurchaseRequestRepo) headerSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select("h.id", "h.version", "h.status", "h.note", "h.po_id", "h.created_by", "h.created_at", "h.updated_at").
		From(purchaseRequestsTable + " h")
}

func (r *PurchaseRequestRepo) load(ctx context.Context, requestID id.ID, forUpdate bool) (*procurement.PurchaseRequest, error) {
	q := r.headerSelect().Where(squirrel.Eq{"h.id": requestID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	pr := &procurement.PurchaseRequest{}
	if err := r.getOne(ctx, pr, q, requestID.String()); err != nil {
		return nil, err
	}

	items := r.Builder().
		Select("i.id", "i.purchase_request_id", "i.product_id", "i.quantity",
			"p.name AS product_name", "p.unit", "c.name AS category_name").
		From(purchaseRequestItemsTable + " i").
		Join("products p ON p.id = i.product_id").
		Join("categories c ON c.id = p.category_id").
		Where(squirrel.Eq{"i.purchase_request_id": requestID}).
		OrderBy("p.name")
	if err := r.selectAll(ctx, &pr.Items, items); err != nil {
		return nil, err
	}
	return pr, nil
}

// GetByID loads the request with items.
func (r *PurchaseRequestRepo) GetByID(ctx context.Context, requestID id.ID) (*procurement.PurchaseRequest, error) {
	return r.load(ctx, requestID, false)
}

// GetForUpdate loads the request and locks its header row.
func (r *PurchaseRequestRepo) GetForUpdate(ctx context.Context, requestID id.ID) (*procurement.PurchaseRequest, error) {
	return r.load(ctx, requestID, true)
}

// Update persists status and po_id.
func (r *PurchaseRequestRepo) Update(ctx context.Context, pr *procurement.PurchaseRequest) error {
	v, err := r.updateHeader(ctx, pr.ID, pr.Version, map[string]any{
		"status":     pr.Status,
		"po_id":      pr.POID,
		"updated_at": pr.UpdatedAt,
	})
	if err != nil {
		return err
	}
	pr.SetVersion(v)
	return nil
}

// List returns request headers.
func (r *PurchaseRequestRepo) List(ctx context.Context, filter procurement.RequestFilter) (domain.ListResult[*procurement.PurchaseRequest], error) {
	q := r.headerSelect()
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"h.status": *filter.Status})
	}
	return page[*procurement.PurchaseRequest](ctx, r.BaseDocumentRepo, q, filter.ListFilter, purchaseSorts)
}

// PurchaseOrderRepo implements procurement.OrderRepository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{BaseDocumentRepo: NewBaseDocumentRepo(txManager, purchaseOrdersTable, "purchase_order")}
}

var _ procurement.OrderRepository = (*PurchaseOrderRepo)(nil)

// Create inserts the order and its items.
func (r *PurchaseOrderRepo) Create(ctx context.Context, o *procurement.Order) error {
	_, err := r.exec(ctx, r.Builder().
		Insert(purchaseOrdersTable).
		Columns("id", "version", "po_number", "supplier_id", "status", "total_amount", "delivery_date",
			"note", "created_by", "created_at", "updated_at").
		Values(o.ID, o.Version, o.PONumber, o.SupplierID, o.Status, o.TotalAmount, o.DeliveryDate,
			o.Note, o.CreatedBy, o.CreatedAt, o.UpdatedAt))
	if err != nil {
		return err
	}
	return r.insertItems(ctx, o)
}

func (r *PurchaseOrderRepo) insertItems(ctx context.Context, o *procurement.Order) error {
	if len(o.Items) == 0 {
		return nil
	}
	ins := r.Builder().Insert(purchaseOrderItemsTable).
		Columns("id", "po_id", "product_id", "quantity", "unit_price", "total_price", "received_qty")
	for _, it := range o.Items {
		ins = ins.Values(it.ID, o.ID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice, it.ReceivedQty)
	}
	_, err := r.exec(ctx, ins)
	return err
}

func (r *PurchaseOrderRepo) headerSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select("h.id", "h.version", "h.po_number", "h.supplier_id", "h.status", "h.total_amount",
			"h.delivery_date", "h.note", "h.sent_at", "h.received_at", "h.closed_at",
			"h.created_by", "h.created_at", "h.updated_at", "s.name AS supplier_name").
		From(purchaseOrdersTable + " h").
		Join("suppliers s ON s.id = h.supplier_id")
}

func (r *PurchaseOrderRepo) load(ctx context.Context, orderID id.ID, forUpdate bool) (*procurement.Order, error) {
	q := r.headerSelect().Where(squirrel.Eq{"h.id": orderID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE OF h")
	}
	o := &procurement.Order{}
	if err := r.getOne(ctx, o, q, orderID.String()); err != nil {
		return nil, err
	}

	items := r.Builder().
		Select("i.id", "i.po_id", "i.product_id", "i.quantity", "i.unit_price", "i.total_price",
			"i.received_qty", "p.name AS product_name", "p.unit", "c.name AS category_name").
		From(purchaseOrderItemsTable + " i").
		Join("products p ON p.id = i.product_id").
		Join("categories c ON c.id = p.category_id").
		Where(squirrel.Eq{"i.po_id": orderID}).
		OrderBy("p.name")
	if forUpdate {
		items = items.Suffix("FOR UPDATE OF i")
	}
	if err := r.selectAll(ctx, &o.Items, items); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByID loads the order with items and supplier name.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*procurement.Order, error) {
	return r.load(ctx, orderID, false)
}

// GetForUpdate loads the order with items and locks both.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*procurement.Order, error) {
	return r.load(ctx, orderID, true)
}

// ReplaceItems stores the editable header fields and replaces the item list.
func (r *PurchaseOrderRepo) ReplaceItems(ctx context.Context, o *procurement.Order) error {
	v, err := r.updateHeader(ctx, o.ID, o.Version, map[string]any{
		"total_amount":  o.TotalAmount,
		"delivery_date": o.DeliveryDate,
		"note":          o.Note,
		"updated_at":    o.UpdatedAt,
	})
	if err != nil {
		return err
	}
	o.SetVersion(v)

	if _, err := r.exec(ctx, r.Builder().Delete(purchaseOrderItemsTable).Where(squirrel.Eq{"po_id": o.ID})); err != nil {
		return err
	}
	return r.insertItems(ctx, o)
}

// UpdateStatus persists status and lifecycle timestamps.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, o *procurement.Order) error {
	v, err := r.updateHeader(ctx, o.ID, o.Version, map[string]any{
		"status":      o.Status,
		"sent_at":     o.SentAt,
		"received_at": o.ReceivedAt,
		"closed_at":   o.ClosedAt,
		"updated_at":  o.UpdatedAt,
	})
	if err != nil {
		return err
	}
	o.SetVersion(v)
	return nil
}

// SetReceived stores an item's received counter.
func (r *PurchaseOrderRepo) SetReceived(ctx context.Context, itemID id.ID, received types.Quantity) error {
	n, err := r.exec(ctx, r.Builder().
		Update(purchaseOrderItemsTable).
		Set("received_qty", received).
		Where(squirrel.Eq{"id": itemID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("purchase order item %s not found", itemID)
	}
	return nil
}

// CreateReceiveRecord appends a receive record; lines are stored as JSON.
func (r *PurchaseOrderRepo) CreateReceiveRecord(ctx context.Context, rec *procurement.ReceiveRecord) error {
	lines := rec.Lines
	if lines == nil {
		lines = []procurement.ReceiveLine{}
	}
	_, err := r.exec(ctx, r.Builder().
		Insert(receiveRecordsTable).
		Columns("id", "po_id", "received_by", "note", "photo_url", "lines", "received_at").
		Values(rec.ID, rec.OrderID, rec.ReceivedBy, rec.Note, rec.PhotoURL, lines, rec.ReceivedAt))
	return err
}

// ListReceipts returns an order's receive records, newest first.
func (r *PurchaseOrderRepo) ListReceipts(ctx context.Context, orderID id.ID) ([]procurement.ReceiveRecord, error) {
	q := r.Builder().
		Select("id", "po_id", "received_by", "note", "photo_url", "lines", "received_at").
		From(receiveRecordsTable).
		Where(squirrel.Eq{"po_id": orderID}).
		OrderBy("received_at DESC")

	var records []procurement.ReceiveRecord
	if err := r.selectAll(ctx, &records, q); err != nil {
		return nil, err
	}
	return records, nil
}

// List returns order headers.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter procurement.OrderFilter) (domain.ListResult[*procurement.Order], error) {
	return page[*procurement.Order](ctx, r.BaseDocumentRepo, orderListQuery(r.headerSelect(), filter), filter.ListFilter, purchaseSorts)
}

func orderListQuery(q squirrel.SelectBuilder, filter procurement.OrderFilter) squirrel.SelectBuilder {
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"h.status": *filter.Status})
	}
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"h.supplier_id": *filter.SupplierID})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.Or{
			squirrel.ILike{"h.po_number": "%" + filter.Search + "%"},
			squirrel.ILike{"s.name": "%" + filter.Search + "%"},
		})
	}
	return q
}

// Overdue returns open orders whose delivery date is before the day of now
// and that were not reported yet.
func (r *PurchaseOrderRepo) Overdue(ctx context.Context, now time.Time) ([]*procurement.Order, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	q := r.headerSelect().
		Where(squirrel.Eq{"h.status": []procurement.OrderStatus{
			procurement.OrderSent, procurement.OrderPartiallyReceived,
		}}).
		Where(squirrel.Lt{"h.delivery_date": day}).
		Where(squirrel.Eq{"h.overdue_notified_at": nil}).
		OrderBy("h.delivery_date")

	var orders []*procurement.Order
	if err := r.selectAll(ctx, &orders, q); err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkOverdueNotified stops an order from being reported again.
func (r *PurchaseOrderRepo) MarkOverdueNotified(ctx context.Context, orderID id.ID, at time.Time) error {
	_, err := r.exec(ctx, r.Builder().
		Update(purchaseOrdersTable).
		Set("overdue_notified_at", at).
		Where(squirrel.Eq{"id": orderID}))
	return err
}
