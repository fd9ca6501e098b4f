package location

import (
	"context"

	"stockflow/internal/core/id"
)

// ListFilter narrows location lists.
type ListFilter struct {
	Type     *Type
	IsActive *bool
	IDs      []id.ID
}

// Repository defines the interface for Location persistence.
type Repository interface {
	Create(ctx context.Context, loc *Location) error
	Update(ctx context.Context, loc *Location) error
	GetByID(ctx context.Context, id id.ID) (*Location, error)
	List(ctx context.Context, filter ListFilter) ([]*Location, error)

	// Supervisor bindings

	Assign(ctx context.Context, a Assignment) error
	Unassign(ctx context.Context, username string, locationID id.ID) error
	Assignments(ctx context.Context, locationID id.ID) ([]Assignment, error)
	IsAssigned(ctx context.Context, username string, locationID id.ID) (bool, error)
	LocationsOf(ctx context.Context, username string) ([]id.ID, error)
}
