package product

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
	"stockflow/internal/core/tx"
	"stockflow/internal/domain/catalogs/category"
)

type categoryRepo struct{ rows map[id.ID]*category.Category }

func (r *categoryRepo) Create(_ context.Context, c *category.Category) error {
	r.rows[c.ID] = c
	return nil
}

func (r *categoryRepo) Update(_ context.Context, c *category.Category) error {
	r.rows[c.ID] = c
	return nil
}

func (r *categoryRepo) Delete(_ context.Context, categoryID id.ID) error {
	delete(r.rows, categoryID)
	return nil
}

func (r *categoryRepo) GetByID(_ context.Context, categoryID id.ID) (*category.Category, error) {
	if c, ok := r.rows[categoryID]; ok {
		return c, nil
	}
	return nil, apperror.NewNotFound("category", categoryID)
}

func (r *categoryRepo) FindByName(_ context.Context, name string) (*category.Category, error) {
	for _, c := range r.rows {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, apperror.NewNotFound("category", name)
}

func (r *categoryRepo) List(context.Context) ([]*category.Category, error) {
	out := make([]*category.Category, 0, len(r.rows))
	for _, c := range r.rows {
		out = append(out, c)
	}
	return out, nil
}

type productRepo struct{ rows []*Product }

func (r *productRepo) Create(_ context.Context, p *Product) error {
	for _, existing := range r.rows {
		if strings.EqualFold(existing.Name, p.Name) {
			return apperror.NewDuplicate("product", "name", p.Name)
		}
	}
	r.rows = append(r.rows, p)
	return nil
}

func (r *productRepo) Update(context.Context, *Product) error { return nil }

func (r *productRepo) GetByID(_ context.Context, productID id.ID) (*Product, error) {
	for _, p := range r.rows {
		if p.ID == productID {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", productID)
}

func (r *productRepo) List(context.Context, ListFilter) ([]*Product, error) { return r.rows, nil }

func newTestService() (*Service, *productRepo, *categoryRepo) {
	categories := &categoryRepo{rows: make(map[id.ID]*category.Category)}
	catSvc := category.NewService(categories)
	products := &productRepo{}
	return NewService(products, categories, catSvc, tx.Passthrough{}), products, categories
}

func admin() context.Context {
	return security.WithScope(context.Background(), &security.AccessScope{Username: "root", Role: security.RoleAdmin})
}

func TestImport_RowsAreIndependent(t *testing.T) {
	svc, products, categories := newTestService()

	res, err := svc.Import(admin(), []ImportRow{
		{Row: 2, Name: "Cement M500", Category: "Building", Unit: "bag"},
		{Row: 3, Name: "Sand", Category: "Building", Unit: "t"},
		{Row: 4, Name: "", Category: "Building", Unit: "pcs"},
		{Row: 5, Name: "cement m500", Category: "Building", Unit: "bag"},
		{Row: 6, Name: "Gloves", Category: " Safety ", Unit: "pair"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Imported)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 4, res.Errors[0].Row)
	assert.Equal(t, "missing required fields", res.Errors[0].Error)
	assert.Equal(t, 5, res.Errors[1].Row)

	assert.Len(t, products.rows, 3)
	assert.Len(t, categories.rows, 2, "categories are found or created once by name")
	_, err = categories.FindByName(context.Background(), "Safety")
	assert.NoError(t, err)
}

func TestImport_AdminOnly(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := security.WithScope(context.Background(), &security.AccessScope{Username: "w", Role: security.RoleWarehouseManager})
	_, err := svc.Import(ctx, []ImportRow{{Row: 2, Name: "x", Category: "y", Unit: "z"}})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestCreate_UnknownCategory(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.Create(admin(), NewProduct("Nails", id.New(), "kg"))
	assert.True(t, apperror.IsNotFound(err))
}

func TestToggle_FlipsActive(t *testing.T) {
	svc, products, categories := newTestService()
	c := category.NewCategory("Tools")
	require.NoError(t, categories.Create(context.Background(), c))
	p := NewProduct("Hammer", c.ID, "pcs")
	require.NoError(t, svc.Create(admin(), p))

	toggled, err := svc.Toggle(admin(), p.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
	assert.Len(t, products.rows, 1)
}
