package product

import (
	"context"
	"fmt"
	"strings"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
	"stockflow/internal/core/tx"
	"stockflow/internal/domain/catalogs/category"
	"stockflow/pkg/logger"
)

// Categories is the subset of the category service products depend on.
type Categories interface {
	FindOrCreate(ctx context.Context, name string) (*category.Category, error)
}

// CategoryReader checks category references.
type CategoryReader interface {
	GetByID(ctx context.Context, id id.ID) (*category.Category, error)
}

// Service provides business logic for the Product catalog.
type Service struct {
	repo       Repository
	categories CategoryReader
	finder     Categories
	txManager  tx.Manager
}

// NewService creates a new Product service.
func NewService(repo Repository, categories CategoryReader, finder Categories, txManager tx.Manager) *Service {
	return &Service{repo: repo, categories: categories, finder: finder, txManager: txManager}
}

// List returns products matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	return s.repo.List(ctx, filter)
}

// GetByID returns one product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// Create adds a product. ADMIN only.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := security.GetScope(ctx).RequireRole(security.RoleAdmin); err != nil {
		return err
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if _, err := s.categories.GetByID(ctx, p.CategoryID); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	logger.Info(ctx, "product created", "product_id", p.ID, "name", p.Name)
	return nil
}

// Update applies a patch. ADMIN only.
func (s *Service) Update(ctx context.Context, productID id.ID, patch Patch) (*Product, error) {
	if err := security.GetScope(ctx).RequireRole(security.RoleAdmin); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if patch.CategoryID != nil && *patch.CategoryID != p.CategoryID {
		if _, err := s.categories.GetByID(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
	}
	patch.Apply(p)
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// Toggle flips the active flag. ADMIN only.
func (s *Service) Toggle(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	active := !p.IsActive
	return s.Update(ctx, productID, Patch{IsActive: &active})
}

// Import creates products from sheet rows, finding or creating categories by
// name. Each row is independent: a failed row is reported and skipped.
func (s *Service) Import(ctx context.Context, rows []ImportRow) (*ImportResult, error) {
	if err := security.GetScope(ctx).RequireRole(security.RoleAdmin); err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []ImportError{}}
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		categoryName := strings.TrimSpace(row.Category)
		unit := strings.TrimSpace(row.Unit)
		if name == "" || categoryName == "" || unit == "" {
			result.Errors = append(result.Errors, ImportError{Row: row.Row, Error: "missing required fields"})
			continue
		}

		err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			c, err := s.finder.FindOrCreate(ctx, categoryName)
			if err != nil {
				return err
			}
			return s.repo.Create(ctx, NewProduct(name, c.ID, unit))
		})
		if err != nil {
			if !apperror.IsAppError(err) {
				logger.Warn(ctx, "product import row failed", "row", row.Row, "error", err)
			}
			result.Errors = append(result.Errors, ImportError{Row: row.Row, Error: err.Error()})
			continue
		}
		result.Imported++
	}

	logger.Info(ctx, "products imported", "count", result.Imported, "errors", len(result.Errors))
	return result, nil
}
