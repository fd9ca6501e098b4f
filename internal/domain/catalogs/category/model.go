// Package category provides the product Category catalog.
package category

import (
	"context"
	"strings"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
)

// Category groups products.
type Category struct {
	entity.BaseEntity

	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// ProductCount is filled by list queries
	ProductCount int `db:"product_count" json:"productCount"`
}

// NewCategory creates a category with a trimmed name.
func NewCategory(name string) *Category {
	return &Category{
		BaseEntity: entity.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		CreatedAt:  time.Now().UTC(),
	}
}

// Validate implements entity.Validatable interface.
func (c *Category) Validate(_ context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return nil
}
