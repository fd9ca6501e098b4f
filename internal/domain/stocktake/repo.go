package stocktake

import (
	"context"

	"stockflow/internal/core/id"
	"stockflow/internal/domain"
)

// Repository persists inventory counts.
type Repository interface {
	// Create inserts the count and bulk-inserts its snapshot items.
	Create(ctx context.Context, c *Count) error

	// GetByID loads the count with items ordered by product name.
	GetByID(ctx context.Context, id id.ID) (*Count, error)

	// GetForUpdate loads the count with items and row-locks it until commit.
	GetForUpdate(ctx context.Context, id id.ID) (*Count, error)

	// SaveActuals stores the actual quantity of each given item.
	SaveActuals(ctx context.Context, items []Item) error

	// Complete stores differences, status and closed_at.
	Complete(ctx context.Context, c *Count) error

	// List returns counts without items, newest first.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Count], error)
}
