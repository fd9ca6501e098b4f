// Package notify defines workflow notification events, their text rendering
// and fan-out to the configured chat and email recipients.
package notify

import (
	"context"
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// EventType identifies a notification event.
type EventType string

const (
	EventRequestCreated   EventType = "REQUEST_CREATED"
	EventRequestApproved  EventType = "REQUEST_APPROVED"
	EventRequestFulfilled EventType = "REQUEST_FULFILLED"
	EventPOCreated        EventType = "PO_CREATED"
	EventPOReceived       EventType = "PO_RECEIVED"
	EventLowStock         EventType = "LOW_STOCK"
	EventPOOverdue        EventType = "PO_OVERDUE"
)

// Aggregate types stored alongside events.
const (
	AggregateRequest       = "request"
	AggregatePurchaseOrder = "purchase_order"
	AggregateStockItem     = "stock_item"
)

// Event is a structured notification raised by a workflow.
type Event struct {
	Type          EventType
	AggregateType string
	AggregateID   id.ID
	Payload       any
}

// Publisher enqueues events. Implementations write into the caller's
// transaction so an event exists only if the workflow change committed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// RequestCreated is the payload of EventRequestCreated.
type RequestCreated struct {
	RequestID    id.ID  `json:"requestId"`
	LocationName string `json:"locationName"`
	ItemsCount   int    `json:"itemsCount"`
	CreatedBy    string `json:"createdBy"`
}

// RequestApproved is the payload of EventRequestApproved.
type RequestApproved struct {
	RequestID    id.ID  `json:"requestId"`
	LocationName string `json:"locationName"`
	ProcessedBy  string `json:"processedBy"`
}

// RequestFulfilled is the payload of EventRequestFulfilled.
type RequestFulfilled struct {
	RequestID    id.ID  `json:"requestId"`
	LocationName string `json:"locationName"`
	ItemsIssued  int    `json:"itemsIssued"`
}

// POCreated is the payload of EventPOCreated.
type POCreated struct {
	POID         id.ID       `json:"poId"`
	PONumber     string      `json:"poNumber"`
	SupplierName string      `json:"supplierName"`
	TotalAmount  types.Money `json:"totalAmount"`
	DeliveryDate *time.Time  `json:"deliveryDate,omitempty"`
}

// POReceived is the payload of EventPOReceived.
type POReceived struct {
	POID          id.ID  `json:"poId"`
	PONumber      string `json:"poNumber"`
	ItemsReceived int    `json:"itemsReceived"`
	ReceivedBy    string `json:"receivedBy"`
}

// LowStock is the payload of EventLowStock.
type LowStock struct {
	LocationName string          `json:"locationName"`
	ProductName  string          `json:"productName"`
	CategoryName string          `json:"categoryName"`
	Unit         string          `json:"unit"`
	Quantity     types.Quantity  `json:"quantity"`
	LimitQty     *types.Quantity `json:"limitQty,omitempty"`
}

// POOverdue is the payload of EventPOOverdue.
type POOverdue struct {
	POID         id.ID     `json:"poId"`
	PONumber     string    `json:"poNumber"`
	SupplierName string    `json:"supplierName"`
	DeliveryDate time.Time `json:"deliveryDate"`
	DaysOverdue  int       `json:"daysOverdue"`
}
