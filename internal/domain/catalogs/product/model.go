// Package product provides the Product catalog and its spreadsheet import.
package product

import (
	"context"
	"strings"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
)

// Product is a stocked item. Its unit should not change once stock exists.
type Product struct {
	entity.BaseCatalog

	CategoryID id.ID  `db:"category_id" json:"categoryId"`
	Unit       string `db:"unit" json:"unit"`

	// CategoryName is filled by list queries
	CategoryName string `db:"category_name" json:"categoryName,omitempty"`
}

// NewProduct creates an active product.
func NewProduct(name string, categoryID id.ID, unit string) *Product {
	return &Product{
		BaseCatalog: entity.NewBaseCatalog(strings.TrimSpace(name)),
		CategoryID:  categoryID,
		Unit:        strings.TrimSpace(unit),
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(_ context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if id.IsNil(p.CategoryID) {
		return apperror.NewValidation("categoryId is required").WithDetail("field", "categoryId")
	}
	if strings.TrimSpace(p.Unit) == "" {
		return apperror.NewValidation("unit is required").WithDetail("field", "unit")
	}
	return nil
}

// Patch carries the optional fields of an update.
type Patch struct {
	Name       *string
	CategoryID *id.ID
	Unit       *string
	IsActive   *bool
}

// Apply copies set fields onto p.
func (pt Patch) Apply(p *Product) {
	if pt.Name != nil && strings.TrimSpace(*pt.Name) != "" {
		p.Name = strings.TrimSpace(*pt.Name)
	}
	if pt.CategoryID != nil && !id.IsNil(*pt.CategoryID) {
		p.CategoryID = *pt.CategoryID
	}
	if pt.Unit != nil && strings.TrimSpace(*pt.Unit) != "" {
		p.Unit = strings.TrimSpace(*pt.Unit)
	}
	if pt.IsActive != nil {
		p.IsActive = *pt.IsActive
	}
}

// ImportRow is one data row of an import sheet. Row is the 1-based sheet row.
type ImportRow struct {
	Row      int
	Name     string
	Category string
	Unit     string
}

// ImportError reports a rejected row.
type ImportError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult summarises an import.
type ImportResult struct {
	Imported int           `json:"imported"`
	Errors   []ImportError `json:"errors"`
}
