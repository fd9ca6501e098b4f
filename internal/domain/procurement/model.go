// Package procurement implements purchase requests and purchase orders:
// internal asks for goods, the orders placed with suppliers, and receiving
// against those orders into the warehouse.
package procurement

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
)

// RequestStatus of a purchase request.
type RequestStatus string

const (
	RequestPending    RequestStatus = "PENDING"
	RequestInProgress RequestStatus = "IN_PROGRESS"
	RequestDone       RequestStatus = "DONE"
)

// IsValid reports whether s is a known status.
func (s RequestStatus) IsValid() bool {
	return s == RequestPending || s == RequestInProgress || s == RequestDone
}

// PurchaseRequest is an internal ask for procurement.
type PurchaseRequest struct {
	entity.BaseDocument

	Status RequestStatus `db:"status" json:"status"`
	Note   *string       `db:"note" json:"note,omitempty"`

	// POID links the order the request was converted into
	POID *id.ID `db:"po_id" json:"poId,omitempty"`

	Items []RequestItem `db:"-" json:"items"`
}

// RequestItem is one requested product.
type RequestItem struct {
	ID                id.ID          `db:"id" json:"id"`
	PurchaseRequestID id.ID          `db:"purchase_request_id" json:"purchaseRequestId"`
	ProductID         id.ID          `db:"product_id" json:"productId"`
	Quantity          types.Quantity `db:"quantity" json:"quantity"`

	ProductName  string `db:"product_name" json:"productName,omitempty"`
	Unit         string `db:"unit" json:"unit,omitempty"`
	CategoryName string `db:"category_name" json:"categoryName,omitempty"`
}

// RequestLine is a (product, quantity) pair of a purchase request payload.
type RequestLine struct {
	ProductID id.ID          `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
}

// NewPurchaseRequest creates a PENDING purchase request.
func NewPurchaseRequest(createdBy string, note *string, lines []RequestLine) *PurchaseRequest {
	pr := &PurchaseRequest{
		BaseDocument: entity.NewBaseDocument(createdBy),
		Status:       RequestPending,
		Note:         note,
		Items:        make([]RequestItem, 0, len(lines)),
	}
	for _, l := range lines {
		pr.Items = append(pr.Items, RequestItem{
			ID:                id.New(),
			PurchaseRequestID: pr.ID,
			ProductID:         l.ProductID,
			Quantity:          l.Quantity,
		})
	}
	return pr
}

// Validate implements entity.Validatable interface.
func (pr *PurchaseRequest) Validate(_ context.Context) error {
	if len(pr.Items) == 0 {
		return apperror.NewValidation("items are required").WithDetail("field", "items")
	}
	for i, item := range pr.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("productId is required").
				WithDetail("field", fmt.Sprintf("items[%d].productId", i))
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", fmt.Sprintf("items[%d].quantity", i))
		}
	}
	return nil
}

// Decide moves a PENDING request to IN_PROGRESS or DONE.
func (pr *PurchaseRequest) Decide(target RequestStatus) error {
	if target != RequestInProgress && target != RequestDone {
		return apperror.NewValidation("status must be IN_PROGRESS or DONE").
			WithDetail("field", "status").
			WithDetail("value", string(target))
	}
	if pr.Status != RequestPending {
		return apperror.NewInvalidStatus("purchase request", string(pr.Status), string(RequestPending))
	}
	pr.Status = target
	pr.Touch()
	return nil
}

// LinkOrder records the order the request was converted into.
func (pr *PurchaseRequest) LinkOrder(orderID id.ID) error {
	if pr.Status != RequestPending {
		return apperror.NewInvalidStatus("purchase request", string(pr.Status), string(RequestPending))
	}
	pr.Status = RequestInProgress
	pr.POID = &orderID
	pr.Touch()
	return nil
}

// OrderStatus of a purchase order.
type OrderStatus string

const (
	OrderDraft             OrderStatus = "DRAFT"
	OrderSent              OrderStatus = "SENT"
	OrderPartiallyReceived OrderStatus = "PARTIALLY_RECEIVED"
	OrderReceived          OrderStatus = "RECEIVED"
	OrderClosed            OrderStatus = "CLOSED"
)

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderDraft, OrderSent, OrderPartiallyReceived, OrderReceived, OrderClosed:
		return true
	}
	return false
}

// Order is a purchase order placed with a supplier.
type Order struct {
	entity.BaseDocument

	PONumber     string      `db:"po_number" json:"poNumber"`
	SupplierID   id.ID       `db:"supplier_id" json:"supplierId"`
	Status       OrderStatus `db:"status" json:"status"`
	TotalAmount  types.Money `db:"total_amount" json:"totalAmount"`
	DeliveryDate *time.Time  `db:"delivery_date" json:"deliveryDate,omitempty"`
	Note         *string     `db:"note" json:"note,omitempty"`
	SentAt       *time.Time  `db:"sent_at" json:"sentAt,omitempty"`
	ReceivedAt   *time.Time  `db:"received_at" json:"receivedAt,omitempty"`
	ClosedAt     *time.Time  `db:"closed_at" json:"closedAt,omitempty"`

	// SupplierName is filled by read queries
	SupplierName string `db:"supplier_name" json:"supplierName,omitempty"`

	Items []OrderItem `db:"-" json:"items"`
}

// OrderItem is one ordered product. ReceivedQty only grows, up to Quantity.
type OrderItem struct {
	ID          id.ID          `db:"id" json:"id"`
	OrderID     id.ID          `db:"po_id" json:"poId"`
	ProductID   id.ID          `db:"product_id" json:"productId"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice   types.Money    `db:"unit_price" json:"unitPrice"`
	TotalPrice  types.Money    `db:"total_price" json:"totalPrice"`
	ReceivedQty types.Quantity `db:"received_qty" json:"receivedQty"`

	ProductName  string `db:"product_name" json:"productName,omitempty"`
	Unit         string `db:"unit" json:"unit,omitempty"`
	CategoryName string `db:"category_name" json:"categoryName,omitempty"`
}

// Remaining is the quantity still to receive.
func (i OrderItem) Remaining() types.Quantity {
	return i.Quantity - i.ReceivedQty
}

// OrderLine is one line of a create or update payload.
type OrderLine struct {
	ProductID id.ID          `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// OrderInput carries the fields of a new or edited draft order.
type OrderInput struct {
	SupplierID        id.ID
	Lines             []OrderLine
	Note              *string
	DeliveryDate      *time.Time
	PurchaseRequestID *id.ID
}

// NewOrder creates a DRAFT order with the given number and lines.
func NewOrder(poNumber, createdBy string, draft OrderInput) *Order {
	o := &Order{
		BaseDocument: entity.NewBaseDocument(createdBy),
		PONumber:     poNumber,
		SupplierID:   draft.SupplierID,
		Status:       OrderDraft,
		Note:         draft.Note,
		DeliveryDate: draft.DeliveryDate,
	}
	o.SetLines(draft.Lines)
	return o
}

// SetLines replaces the items and recomputes every total. Received
// quantities start at zero.
func (o *Order) SetLines(lines []OrderLine) {
	o.Items = make([]OrderItem, 0, len(lines))
	total := types.Zero()
	for _, l := range lines {
		lineTotal := l.Quantity.Mul(l.UnitPrice)
		o.Items = append(o.Items, OrderItem{
			ID:         id.New(),
			OrderID:    o.ID,
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			TotalPrice: lineTotal,
		})
		total = total.Add(lineTotal)
	}
	o.TotalAmount = total
}

// Validate implements entity.Validatable interface.
func (o *Order) Validate(_ context.Context) error {
	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("supplierId is required").WithDetail("field", "supplierId")
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("items are required").WithDetail("field", "items")
	}
	seen := make(map[id.ID]struct{}, len(o.Items))
	for i, item := range o.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("productId is required").
				WithDetail("field", fmt.Sprintf("items[%d].productId", i))
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", fmt.Sprintf("items[%d].quantity", i))
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation("unitPrice must not be negative").
				WithDetail("field", fmt.Sprintf("items[%d].unitPrice", i))
		}
		if _, dup := seen[item.ProductID]; dup {
			return apperror.NewValidation("duplicate product in items").
				WithDetail("field", fmt.Sprintf("items[%d].productId", i))
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}

func (o *Order) item(productID id.ID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i]
		}
	}
	return nil
}

func (o *Order) requireStatus(allowed ...OrderStatus) error {
	for _, s := range allowed {
		if o.Status == s {
			return nil
		}
	}
	expected := make([]string, 0, len(allowed))
	for _, s := range allowed {
		expected = append(expected, string(s))
	}
	return apperror.NewInvalidStatus("purchase order", string(o.Status), expected...)
}

// CanEdit fails unless the order is a draft.
func (o *Order) CanEdit() error {
	return o.requireStatus(OrderDraft)
}

// CanReceive fails unless goods may be received against the order.
func (o *Order) CanReceive() error {
	return o.requireStatus(OrderSent, OrderPartiallyReceived, OrderReceived)
}

// MarkSent moves a draft to SENT.
func (o *Order) MarkSent(at time.Time) error {
	if err := o.CanEdit(); err != nil {
		return err
	}
	o.Status = OrderSent
	o.SentAt = &at
	o.Touch()
	return nil
}

// Close moves any open order to CLOSED.
func (o *Order) Close(at time.Time) error {
	if o.Status == OrderClosed {
		return apperror.NewInvalidStatus("purchase order", string(o.Status),
			string(OrderDraft), string(OrderSent), string(OrderPartiallyReceived), string(OrderReceived))
	}
	o.Status = OrderClosed
	o.ClosedAt = &at
	o.Touch()
	return nil
}

// RecomputeOrderStatus derives the status from received quantities: RECEIVED
// when every item is fully received, PARTIALLY_RECEIVED when anything was
// received, otherwise current. It is a pure function of its inputs.
func RecomputeOrderStatus(current OrderStatus, items []OrderItem) OrderStatus {
	if len(items) == 0 {
		return current
	}
	all, some := true, false
	for _, item := range items {
		if item.ReceivedQty < item.Quantity {
			all = false
		}
		if item.ReceivedQty.IsPositive() {
			some = true
		}
	}
	switch {
	case all:
		return OrderReceived
	case some:
		return OrderPartiallyReceived
	default:
		return current
	}
}

// DaysOverdue counts whole days between the delivery date and now.
func (o *Order) DaysOverdue(now time.Time) int {
	if o.DeliveryDate == nil {
		return 0
	}
	due := truncateDay(*o.DeliveryDate)
	today := truncateDay(now)
	if !today.After(due) {
		return 0
	}
	return int(today.Sub(due).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ReceiveLine is one line of a receive payload.
type ReceiveLine struct {
	ProductID   id.ID          `json:"productId"`
	ReceivedQty types.Quantity `json:"receivedQty"`
}

// ReceiveRecord is the append-only trail of one receiving action.
type ReceiveRecord struct {
	ID         id.ID         `db:"id" json:"id"`
	OrderID    id.ID         `db:"po_id" json:"poId"`
	ReceivedBy string        `db:"received_by" json:"receivedBy"`
	Note       *string       `db:"note" json:"note,omitempty"`
	PhotoURL   *string       `db:"photo_url" json:"photoUrl,omitempty"`
	Lines      []ReceiveLine `db:"lines" json:"lines"`
	ReceivedAt time.Time     `db:"received_at" json:"receivedAt"`
}

// Skip reasons of a receive line.
const (
	ReasonNonPositive      = "non_positive_quantity"
	ReasonNotOnOrder       = "not_on_order"
	ReasonExceedsRemaining = "exceeds_remaining"
)

// ReceiveLineResult is the outcome of one receive line.
type ReceiveLineResult struct {
	ProductID   id.ID          `json:"productId"`
	ReceivedQty types.Quantity `json:"receivedQty"`
	Received    bool           `json:"received"`
	Reason      string         `json:"reason,omitempty"`
}

// ReceiveResult reports a receiving action.
type ReceiveResult struct {
	Order  *Order              `json:"order"`
	Record *ReceiveRecord      `json:"record,omitempty"`
	Lines  []ReceiveLineResult `json:"lines"`
}

// Method is an outbound delivery channel for orders.
type Method string

const (
	MethodEmail    Method = "email"
	MethodTelegram Method = "telegram"
)

// IsValid reports whether m is a supported channel.
func (m Method) IsValid() bool {
	return m == MethodEmail || m == MethodTelegram
}

// RequestFilter narrows purchase request lists.
type RequestFilter struct {
	domain.ListFilter

	Status *RequestStatus
}

// OrderFilter narrows purchase order lists.
type OrderFilter struct {
	domain.ListFilter

	Status     *OrderStatus
	SupplierID *id.ID
}

// OrderPatch carries the editable fields of a draft order. Nil fields are
// left unchanged; non-nil Lines replace every item.
type OrderPatch struct {
	Lines        []OrderLine
	Note         *string
	DeliveryDate *time.Time
}

// Apply writes the patch onto o.
func (p OrderPatch) Apply(o *Order) {
	if p.Lines != nil {
		o.SetLines(p.Lines)
	}
	if p.Note != nil {
		o.Note = p.Note
	}
	if p.DeliveryDate != nil {
		o.DeliveryDate = p.DeliveryDate
	}
	o.Touch()
}
