package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
	"stockflow/internal/core/tx"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/access"
	"stockflow/internal/domain/catalogs/location"
	"stockflow/internal/domain/notify"
)

type fakeLocations map[id.ID]*location.Location

func (f fakeLocations) GetByID(_ context.Context, locationID id.ID) (*location.Location, error) {
	if l, ok := f[locationID]; ok {
		return l, nil
	}
	return nil, apperror.NewNotFound("location", locationID)
}

type noBindings struct{}

func (noBindings) IsAssigned(context.Context, string, id.ID) (bool, error) { return false, nil }
func (noBindings) LocationsOf(context.Context, string) ([]id.ID, error)   { return nil, nil }

type capturePublisher struct{ events []notify.Event }

func (c *capturePublisher) Publish(_ context.Context, e notify.Event) error {
	c.events = append(c.events, e)
	return nil
}

type fixture struct {
	repo      *MemoryRepository
	svc       *Service
	publisher *capturePublisher
	warehouse *location.Location
	site      *location.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	warehouse := location.NewLocation("Central", location.TypeWarehouse, nil)
	site := location.NewLocation("Site 1", location.TypeSite, nil)
	repo := NewMemoryRepository()
	repo.DescribeLocation(warehouse.ID, warehouse.Name, string(warehouse.Type))
	repo.DescribeLocation(site.ID, site.Name, string(site.Type))

	pub := &capturePublisher{}
	svc := NewService(ServiceConfig{
		Repo:        repo,
		Locations:   fakeLocations{warehouse.ID: warehouse, site.ID: site},
		Guard:       access.NewGuard(noBindings{}),
		TxManager:   tx.Passthrough{},
		Publisher:   pub,
		WarehouseID: warehouse.ID,
	})
	return &fixture{repo: repo, svc: svc, publisher: pub, warehouse: warehouse, site: site}
}

func asRole(role security.Role) context.Context {
	return security.WithScope(context.Background(), &security.AccessScope{Username: "tester", Role: role})
}

func qty(n int64) types.Quantity { return types.NewQuantity(n) }

func TestLowStockRule_Default(t *testing.T) {
	rule := MustLowStockRule("")
	limit := qty(10)

	tests := []struct {
		name string
		item StockItem
		want bool
	}{
		{"empty row", StockItem{Quantity: 0}, true},
		{"negative row", StockItem{Quantity: qty(-1)}, true},
		{"stocked without limit", StockItem{Quantity: qty(3)}, false},
		{"under limit", StockItem{Quantity: qty(4), LimitQty: &limit}, true},
		{"at limit", StockItem{Quantity: qty(10), LimitQty: &limit}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rule.Matches(tt.item)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLowStockRule_Custom(t *testing.T) {
	rule, err := NewLowStockRule("quantity < 5.0")
	require.NoError(t, err)

	low, err := rule.Matches(StockItem{Quantity: qty(4)})
	require.NoError(t, err)
	assert.True(t, low)

	_, err = NewLowStockRule("quantity + 1.0")
	assert.Error(t, err, "non-bool rule must be rejected")

	_, err = NewLowStockRule("unknown > 1.0")
	assert.Error(t, err)
}

func TestAutofill(t *testing.T) {
	limit10, limit5 := qty(10), qty(5)
	rows := []StockView{
		{StockItem: StockItem{ProductID: id.New(), Quantity: qty(4), LimitQty: &limit10}},
		{StockItem: StockItem{ProductID: id.New(), Quantity: qty(7), LimitQty: &limit5}},
		{StockItem: StockItem{ProductID: id.New(), Quantity: qty(1)}},
	}

	got := Autofill(rows)
	require.Len(t, got, 1)
	assert.Equal(t, rows[0].ProductID, got[0].ProductID)
	assert.Equal(t, qty(6), got[0].Quantity)
}

func TestEngine_MoveConservesTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := id.New()
	engine := f.svc.Engine()

	_, err := engine.ApplyDelta(ctx, f.warehouse.ID, product, qty(200))
	require.NoError(t, err)
	require.NoError(t, engine.Move(ctx, f.warehouse.ID, f.site.ID, product, qty(60)))

	assert.Equal(t, qty(140), f.repo.Quantity(f.warehouse.ID, product))
	assert.Equal(t, qty(60), f.repo.Quantity(f.site.ID, product))
	assert.Equal(t, qty(200), f.repo.Quantity(f.warehouse.ID, product)+f.repo.Quantity(f.site.ID, product))
}

func TestEngine_LockAbsentRowIsZero(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Engine().Lock(context.Background(), f.site.ID, id.New())
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(0), q)
}

func TestService_SetInitialStock(t *testing.T) {
	f := newFixture(t)
	product := id.New()

	results, err := f.svc.SetInitialStock(asRole(security.RoleAdmin), []InitialLine{
		{LocationID: f.warehouse.ID, ProductID: product, Quantity: qty(50)},
		{LocationID: f.warehouse.ID, ProductID: product, Quantity: qty(-1)},
		{LocationID: id.New(), ProductID: product, Quantity: qty(1)},
		{ProductID: product, Quantity: qty(1)},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.True(t, results[0].Applied)
	assert.Equal(t, ReasonNegativeQuantity, results[1].Reason)
	assert.Equal(t, ReasonLocationNotFound, results[2].Reason)
	assert.Equal(t, ReasonMissingFields, results[3].Reason)
	assert.Equal(t, qty(50), f.repo.Quantity(f.warehouse.ID, product))
}

func TestService_SetInitialStock_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetInitialStock(asRole(security.RoleWarehouseManager), []InitialLine{{}})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestService_SetLimits_SitesOnly(t *testing.T) {
	f := newFixture(t)
	product := id.New()

	results, err := f.svc.SetLimits(asRole(security.RoleAdmin), []LimitLine{
		{LocationID: f.site.ID, ProductID: product, LimitQty: qty(20)},
		{LocationID: f.warehouse.ID, ProductID: product, LimitQty: qty(20)},
	})
	require.NoError(t, err)
	assert.True(t, results[0].Applied)
	assert.Equal(t, ReasonNotASite, results[1].Reason)

	lines, err := f.svc.Autofill(asRole(security.RoleWarehouseManager), f.site.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, qty(20), lines[0].Quantity)
}

func TestService_LowAndScan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	empty, stocked, limited := id.New(), id.New(), id.New()
	f.repo.DescribeProduct(empty, "Cement", "Bulk", "bag")

	_, _ = f.repo.SetAbsolute(ctx, f.warehouse.ID, empty, 0)
	_, _ = f.repo.SetAbsolute(ctx, f.warehouse.ID, stocked, qty(9))
	limit := qty(10)
	require.NoError(t, f.repo.SetLimit(ctx, f.site.ID, limited, &limit))

	low, err := f.svc.Low(asRole(security.RoleOperationsManager))
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, empty, low[0].ProductID)
	assert.Equal(t, limited, low[1].ProductID)

	n, err := f.svc.ScanLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, notify.EventLowStock, f.publisher.events[0].Type)
	assert.Equal(t, "Cement", f.publisher.events[0].Payload.(notify.LowStock).ProductName)
}

func TestService_ScanLowStock_AnnouncesOncePerDrop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := id.New()
	f.repo.DescribeProduct(product, "Rebar", "Steel", "pcs")
	_, err := f.repo.SetAbsolute(ctx, f.warehouse.ID, product, 0)
	require.NoError(t, err)

	n, err := f.svc.ScanLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.svc.ScanLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "still low, already announced")
	assert.Len(t, f.publisher.events, 1)

	_, err = f.repo.ApplyDelta(ctx, f.warehouse.ID, product, qty(30))
	require.NoError(t, err)
	n, err = f.svc.ScanLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	rows, err := f.repo.ListByLocation(ctx, f.warehouse.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].LowNotifiedAt, "marker cleared after recovery")

	_, err = f.repo.ApplyDelta(ctx, f.warehouse.ID, product, -qty(30))
	require.NoError(t, err)
	n, err = f.svc.ScanLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "a new drop is announced again")
	assert.Len(t, f.publisher.events, 2)

	low, err := f.svc.Low(asRole(security.RoleWarehouseManager))
	require.NoError(t, err)
	assert.Len(t, low, 1, "the report lists announced rows too")
}

func TestService_List_SupervisorWithoutBindingsSeesNothing(t *testing.T) {
	f := newFixture(t)
	_, _ = f.repo.SetAbsolute(context.Background(), f.site.ID, id.New(), qty(1))

	rows, err := f.svc.List(asRole(security.RoleSupervisor), nil, Filter{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = f.svc.List(asRole(security.RoleSupervisor), &f.site.ID, Filter{})
	assert.True(t, apperror.HasCode(err, apperror.CodeLocationNotAssigned))
}
