package category

import (
	"context"

	"stockflow/internal/core/id"
)

// Repository defines the interface for Category persistence.
type Repository interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id id.ID) error
	GetByID(ctx context.Context, id id.ID) (*Category, error)

	// FindByName matches exactly; returns NOT_FOUND when absent.
	FindByName(ctx context.Context, name string) (*Category, error)

	// List returns all categories with product counts, ordered by name.
	List(ctx context.Context) ([]*Category, error)
}
