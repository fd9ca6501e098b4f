package supplier

import (
	"context"

	"stockflow/internal/core/id"
)

// ListFilter narrows supplier lists.
type ListFilter struct {
	IsActive *bool
}

// Repository defines the interface for Supplier persistence.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, id id.ID) (*Supplier, error)
	List(ctx context.Context, filter ListFilter) ([]*Supplier, error)

	// Prices

	ListPrices(ctx context.Context, supplierID id.ID) ([]Price, error)
	UpsertPrice(ctx context.Context, p *Price) error
}
