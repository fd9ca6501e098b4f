package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalogs/category"
	"stockflow/internal/infrastructure/storage/postgres"
)

// CategoryRepo implements category.Repository.
type CategoryRepo struct {
	*BaseCatalogRepo[*category.Category]
}

// NewCategoryRepo creates a new category repository.
func NewCategoryRepo(txManager *postgres.TxManager) *CategoryRepo {
	return &CategoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*category.Category](txManager, "categories", "category",
			[]string{"id", "version", "name", "created_at"}),
	}
}

var _ category.Repository = (*CategoryRepo)(nil)

func (r *CategoryRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select("c.id", "c.version", "c.name", "c.created_at",
			"(SELECT COUNT(*) FROM products p WHERE p.category_id = c.id) AS product_count").
		From("categories c")
}

// GetByID retrieves a category with its product count.
func (r *CategoryRepo) GetByID(ctx context.Context, categoryID id.ID) (*category.Category, error) {
	c := &category.Category{}
	if err := r.get(ctx, c, r.baseSelect().Where(squirrel.Eq{"c.id": categoryID}), categoryID.String()); err != nil {
		return nil, err
	}
	return c, nil
}

// FindByName matches the name exactly.
func (r *CategoryRepo) FindByName(ctx context.Context, name string) (*category.Category, error) {
	c := &category.Category{}
	if err := r.get(ctx, c, r.baseSelect().Where(squirrel.Eq{"c.name": name}), name); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]*category.Category, error) {
	var items []*category.Category
	if err := r.selectAll(ctx, &items, r.baseSelect().OrderBy("c.name")); err != nil {
		return nil, err
	}
	return items, nil
}
