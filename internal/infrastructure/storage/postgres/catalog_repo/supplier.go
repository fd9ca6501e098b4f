package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalogs/supplier"
	"stockflow/internal/infrastructure/storage/postgres"
)

var supplierColumns = []string{"id", "version", "name", "contact", "phone", "email", "telegram_id", "is_active", "created_at"}

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*BaseCatalogRepo[*supplier.Supplier]
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txManager *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*supplier.Supplier](txManager, "suppliers", "supplier", supplierColumns),
	}
}

var _ supplier.Repository = (*SupplierRepo)(nil)

// GetByID retrieves a supplier by ID.
func (r *SupplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	s := &supplier.Supplier{}
	q := r.Builder().Select(supplierColumns...).From("suppliers").Where(squirrel.Eq{"id": supplierID})
	if err := r.get(ctx, s, q, supplierID.String()); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns suppliers ordered by name.
func (r *SupplierRepo) List(ctx context.Context, filter supplier.ListFilter) ([]*supplier.Supplier, error) {
	q := r.Builder().Select(supplierColumns...).From("suppliers")
	if filter.IsActive != nil {
		q = q.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}

	var items []*supplier.Supplier
	if err := r.selectAll(ctx, &items, q.OrderBy("name")); err != nil {
		return nil, err
	}
	return items, nil
}

// ListPrices returns the supplier's price list ordered by product name.
func (r *SupplierRepo) ListPrices(ctx context.Context, supplierID id.ID) ([]supplier.Price, error) {
	q := r.Builder().
		Select("sp.supplier_id", "sp.product_id", "sp.price", "sp.updated_at",
			"p.name AS product_name", "p.unit", "c.name AS category_name").
		From("supplier_prices sp").
		Join("products p ON p.id = sp.product_id").
		Join("categories c ON c.id = p.category_id").
		Where(squirrel.Eq{"sp.supplier_id": supplierID}).
		OrderBy("p.name")

	var items []supplier.Price
	if err := r.selectAll(ctx, &items, q); err != nil {
		return nil, err
	}
	return items, nil
}

// UpsertPrice stores the price of one product.
func (r *SupplierRepo) UpsertPrice(ctx context.Context, p *supplier.Price) error {
	_, err := r.querier(ctx).Exec(ctx, `
		INSERT INTO supplier_prices (supplier_id, product_id, price, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (supplier_id, product_id) DO UPDATE
		SET price = EXCLUDED.price, updated_at = EXCLUDED.updated_at`,
		p.SupplierID, p.ProductID, p.Price, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert supplier price: %w", err)
	}
	return nil
}
