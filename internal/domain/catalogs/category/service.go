package category

import (
	"context"
	"fmt"
	"strings"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
	"stockflow/pkg/logger"
)

// Service provides business logic for the Category catalog.
type Service struct {
	repo Repository
}

// NewService creates a new Category service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every category.
func (s *Service) List(ctx context.Context) ([]*Category, error) {
	return s.repo.List(ctx)
}

// Create adds a category with a unique name. ADMIN only.
func (s *Service) Create(ctx context.Context, name string) (*Category, error) {
	if err := security.GetScope(ctx).RequireRole(security.RoleAdmin); err != nil {
		return nil, err
	}
	c := NewCategory(name)
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, c.Name, id.Nil()); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	logger.Info(ctx, "category created", "category_id", c.ID, "name", c.Name)
	return c, nil
}

// Rename changes a category name. ADMIN only.
func (s *Service) Rename(ctx context.Context, categoryID id.ID, name string) (*Category, error) {
	if err := security.GetScope(ctx).RequireRole(security.RoleAdmin); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(name)
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, c.Name, c.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// Delete removes an empty category. ADMIN only.
func (s *Service) Delete(ctx context.Context, categoryID id.ID) error {
	if err := security.GetScope(ctx).RequireRole(security.RoleAdmin); err != nil {
		return err
	}
	c, err := s.repo.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if c.ProductCount > 0 {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"cannot delete category with existing products").
			WithDetail("productCount", c.ProductCount)
	}
	return s.repo.Delete(ctx, categoryID)
}

// FindOrCreate returns the category with name, creating it when absent.
// Used by product import; callers have already checked permissions.
func (s *Service) FindOrCreate(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	c, err := s.repo.FindByName(ctx, name)
	if err == nil {
		return c, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}
	c = NewCategory(name)
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *Service) ensureUnique(ctx context.Context, name string, excludeID id.ID) error {
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != excludeID {
		return apperror.NewDuplicate("category", "name", name)
	}
	return nil
}
