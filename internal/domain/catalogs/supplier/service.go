package supplier

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/pkg/logger"
)

// ProductReader checks product references.
type ProductReader interface {
	GetByID(ctx context.Context, id id.ID) (*product.Product, error)
}

// Service provides business logic for the Supplier catalog.
type Service struct {
	repo     Repository
	products ProductReader
}

// NewService creates a new Supplier service.
func NewService(repo Repository, products ProductReader) *Service {
	return &Service{repo: repo, products: products}
}

func requireNotSupervisor(ctx context.Context) error {
	scope := security.GetScope(ctx)
	if !scope.Authenticated() {
		return apperror.NewUnauthorized("authentication required")
	}
	if scope.Role.IsSupervisor() {
		return apperror.NewForbidden("insufficient permissions")
	}
	return nil
}

// List returns suppliers. Supervisors are refused.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Supplier, error) {
	if err := requireNotSupervisor(ctx); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter)
}

// GetByID returns one supplier.
func (s *Service) GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetByID(ctx, supplierID)
}

// Create adds a supplier. Procurement roles only.
func (s *Service) Create(ctx context.Context, sup *Supplier) error {
	if err := security.GetScope(ctx).RequireProcurement(); err != nil {
		return err
	}
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, sup); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}
	logger.Info(ctx, "supplier created", "supplier_id", sup.ID, "name", sup.Name)
	return nil
}

// Update applies a patch. Procurement roles only; IsActive needs ADMIN.
func (s *Service) Update(ctx context.Context, supplierID id.ID, patch Patch) (*Supplier, error) {
	scope := security.GetScope(ctx)
	if err := scope.RequireProcurement(); err != nil {
		return nil, err
	}
	if patch.IsActive != nil {
		if err := scope.RequireRole(security.RoleAdmin); err != nil {
			return nil, err
		}
	}
	sup, err := s.repo.GetByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	patch.Apply(sup)
	if err := sup.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, sup); err != nil {
		return nil, fmt.Errorf("update supplier: %w", err)
	}
	return sup, nil
}

// Toggle flips the active flag. ADMIN only.
func (s *Service) Toggle(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	if err := security.GetScope(ctx).RequireRole(security.RoleAdmin); err != nil {
		return nil, err
	}
	sup, err := s.repo.GetByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	sup.IsActive = !sup.IsActive
	if err := s.repo.Update(ctx, sup); err != nil {
		return nil, fmt.Errorf("toggle supplier: %w", err)
	}
	return sup, nil
}

// Prices lists a supplier's price list. Supervisors are refused.
func (s *Service) Prices(ctx context.Context, supplierID id.ID) ([]Price, error) {
	if err := requireNotSupervisor(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListPrices(ctx, supplierID)
}

// SetPrice upserts a product price. Procurement roles only.
func (s *Service) SetPrice(ctx context.Context, supplierID, productID id.ID, price types.Money) (*Price, error) {
	if err := security.GetScope(ctx).RequireProcurement(); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, apperror.NewValidation("price must not be negative").WithDetail("field", "price")
	}
	if _, err := s.repo.GetByID(ctx, supplierID); err != nil {
		return nil, err
	}
	prod, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	p := &Price{
		SupplierID:  supplierID,
		ProductID:   productID,
		Price:       price,
		UpdatedAt:   time.Now().UTC(),
		ProductName: prod.Name,
		Unit:        prod.Unit,
	}
	if err := s.repo.UpsertPrice(ctx, p); err != nil {
		return nil, fmt.Errorf("set supplier price: %w", err)
	}
	logger.Info(ctx, "supplier price set", "supplier_id", supplierID, "product_id", productID, "price", price.String())
	return p, nil
}
