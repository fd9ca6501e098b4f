// Package replenishment implements site replenishment requests: a site asks,
// the warehouse approves and issues stock against the request over one or
// more issuance rounds.
package replenishment

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

// Status of a replenishment request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusPartial   Status = "PARTIAL"
	StatusFulfilled Status = "FULFILLED"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPartial, StatusFulfilled:
		return true
	}
	return false
}

// IsTerminal reports whether no further item mutation is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusFulfilled
}

// Request is a site's ask for goods from the warehouse.
type Request struct {
	entity.BaseDocument

	LocationID id.ID   `db:"location_id" json:"locationId"`
	Status     Status  `db:"status" json:"status"`
	Note       *string `db:"note" json:"note,omitempty"`

	// LocationName is filled by read queries
	LocationName string `db:"location_name" json:"locationName,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is one requested product. Issued only grows, up to Quantity.
type Item struct {
	ID        id.ID          `db:"id" json:"id"`
	RequestID id.ID          `db:"request_id" json:"requestId"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	Issued    types.Quantity `db:"issued" json:"issued"`

	ProductName string `db:"product_name" json:"productName,omitempty"`
	Unit        string `db:"unit" json:"unit,omitempty"`
}

// Remaining is the quantity still to issue.
func (i Item) Remaining() types.Quantity {
	return i.Quantity - i.Issued
}

// Line is a (product, quantity) pair of a create or issue payload.
type Line struct {
	ProductID id.ID          `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
}

// NewRequest creates a PENDING request with zero issued on every item.
func NewRequest(locationID id.ID, createdBy string, note *string, lines []Line) *Request {
	r := &Request{
		BaseDocument: entity.NewBaseDocument(createdBy),
		LocationID:   locationID,
		Status:       StatusPending,
		Note:         note,
		Items:        make([]Item, 0, len(lines)),
	}
	for _, l := range lines {
		r.Items = append(r.Items, Item{
			ID:        id.New(),
			RequestID: r.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
		})
	}
	return r
}

// Validate implements entity.Validatable interface.
func (r *Request) Validate(_ context.Context) error {
	if id.IsNil(r.LocationID) {
		return apperror.NewValidation("locationId is required").WithDetail("field", "locationId")
	}
	if len(r.Items) == 0 {
		return apperror.NewValidation("items are required").WithDetail("field", "items")
	}
	seen := make(map[id.ID]struct{}, len(r.Items))
	for i, item := range r.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("item %d: productId is required", i+1)).
				WithDetail("field", "items")
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("item %d: quantity must be positive", i+1)).
				WithDetail("field", "items").
				WithDetail("productId", item.ProductID)
		}
		if _, dup := seen[item.ProductID]; dup {
			return apperror.NewValidation(fmt.Sprintf("item %d: duplicate product", i+1)).
				WithDetail("field", "items").
				WithDetail("productId", item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}

// item returns a pointer to the item for productID.
func (r *Request) item(productID id.ID) *Item {
	for i := range r.Items {
		if r.Items[i].ProductID == productID {
			return &r.Items[i]
		}
	}
	return nil
}

// Decide applies an approve or reject decision. Only PENDING requests accept one.
func (r *Request) Decide(target Status) error {
	if target != StatusApproved && target != StatusRejected {
		return apperror.NewValidation("status must be APPROVED or REJECTED").
			WithDetail("field", "status").
			WithDetail("value", string(target))
	}
	if r.Status != StatusPending {
		return apperror.NewInvalidStatus("request", string(r.Status), string(StatusPending))
	}
	r.Status = target
	r.Touch()
	return nil
}

// CanIssue fails unless stock may be issued against the request.
func (r *Request) CanIssue() error {
	if r.Status != StatusApproved && r.Status != StatusPartial {
		return apperror.NewInvalidStatus("request", string(r.Status),
			string(StatusApproved), string(StatusPartial))
	}
	return nil
}

// RecomputeStatus derives the status from item fulfilment: FULFILLED when
// every item is fully issued, PARTIAL when anything was issued, otherwise
// current. It is a pure function of its inputs.
func RecomputeStatus(current Status, items []Item) Status {
	if len(items) == 0 {
		return current
	}
	all, some := true, false
	for _, item := range items {
		if item.Issued < item.Quantity {
			all = false
		}
		if item.Issued.IsPositive() {
			some = true
		}
	}
	switch {
	case all:
		return StatusFulfilled
	case some:
		return StatusPartial
	default:
		return current
	}
}

// IssueRecord is the append-only trail of one product issued in one action.
type IssueRecord struct {
	ID        id.ID          `db:"id" json:"id"`
	RequestID id.ID          `db:"request_id" json:"requestId"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	IssuedBy  string         `db:"issued_by" json:"issuedBy"`
	Note      *string        `db:"note" json:"note,omitempty"`
	IssuedAt  time.Time      `db:"issued_at" json:"issuedAt"`

	ProductName string `db:"product_name" json:"productName,omitempty"`
}

// Skip reasons of an issue line.
const (
	ReasonNonPositive       = "non_positive_quantity"
	ReasonNotOnRequest      = "not_on_request"
	ReasonExceedsRemaining  = "exceeds_remaining"
	ReasonInsufficientStock = "insufficient_stock"
)

// LineResult is the outcome of one issue line.
type LineResult struct {
	ProductID id.ID          `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	Issued    bool           `json:"issued"`
	Reason    string         `json:"reason,omitempty"`

	// Available is the warehouse quantity seen when the line was skipped for stock
	Available *types.Quantity `json:"available,omitempty"`
}

// IssueResult reports an issuance round.
type IssueResult struct {
	Request *Request      `json:"request"`
	Lines   []LineResult  `json:"lines"`
	Records []IssueRecord `json:"records"`
}

// ListFilter narrows request lists.
type ListFilter struct {
	domain.ListFilter

	Status      *Status
	LocationIDs []id.ID
}
