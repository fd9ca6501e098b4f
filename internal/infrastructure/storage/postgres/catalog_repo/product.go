package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/infrastructure/storage/postgres"
)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*product.Product](txManager, "products", "product",
			[]string{"id", "version", "name", "category_id", "unit", "is_active", "created_at"}),
	}
}

var _ product.Repository = (*ProductRepo)(nil)

func (r *ProductRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select("p.id", "p.version", "p.name", "p.category_id", "p.unit", "p.is_active", "p.created_at",
			"c.name AS category_name").
		From("products p").
		Join("categories c ON c.id = p.category_id")
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p := &product.Product{}
	if err := r.get(ctx, p, r.baseSelect().Where(squirrel.Eq{"p.id": productID}), productID.String()); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns products ordered by name.
func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	var items []*product.Product
	if err := r.selectAll(ctx, &items, productListQuery(r.baseSelect(), filter)); err != nil {
		return nil, err
	}
	return items, nil
}

func productListQuery(q squirrel.SelectBuilder, filter product.ListFilter) squirrel.SelectBuilder {
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"p.name": "%" + filter.Search + "%"})
	}
	if filter.CategoryID != nil {
		q = q.Where(squirrel.Eq{"p.category_id": *filter.CategoryID})
	}
	if filter.IsActive != nil {
		q = q.Where(squirrel.Eq{"p.is_active": *filter.IsActive})
	}
	return q.OrderBy("p.name")
}
