package product

import (
	"context"

	"stockflow/internal/core/id"
)

// ListFilter narrows product lists.
type ListFilter struct {
	Search     string
	CategoryID *id.ID
	IsActive   *bool
}

// Repository defines the interface for Product persistence.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id id.ID) (*Product, error)

	// List returns products with category names, ordered by name.
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
}
