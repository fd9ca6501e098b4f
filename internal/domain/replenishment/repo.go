package replenishment

import (
	"context"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
)

// Repository persists requests, their items and issue records.
type Repository interface {
	// Create inserts the request and its items.
	Create(ctx context.Context, r *Request) error

	// GetByID loads the request with items.
	GetByID(ctx context.Context, id id.ID) (*Request, error)

	// GetForUpdate loads the request with items, row-locking both until commit.
	GetForUpdate(ctx context.Context, id id.ID) (*Request, error)

	// UpdateStatus persists status and updated_at with an optimistic version check.
	UpdateStatus(ctx context.Context, r *Request) error

	// SetIssued stores an item's issued counter.
	SetIssued(ctx context.Context, itemID id.ID, issued types.Quantity) error

	// CreateIssueRecords appends issue records.
	CreateIssueRecords(ctx context.Context, records []IssueRecord) error

	// ListIssues returns a request's issue records, newest first.
	ListIssues(ctx context.Context, requestID id.ID) ([]IssueRecord, error)

	// List returns requests without items, newest first.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Request], error)
}
