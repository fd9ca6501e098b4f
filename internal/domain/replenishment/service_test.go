package replenishment

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
	"stockflow/internal/core/tx"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
	"stockflow/internal/domain/access"
	"stockflow/internal/domain/catalogs/location"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/domain/notify"
)

// --- fakes ---

type memoryRepo struct {
	requests map[id.ID]*Request
	issues   []IssueRecord

	setIssuedCalls  int
	failSetIssuedOn int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{requests: make(map[id.ID]*Request)}
}

func clone(r *Request) *Request {
	c := *r
	c.Items = append([]Item(nil), r.Items...)
	return &c
}

func (m *memoryRepo) Create(_ context.Context, r *Request) error {
	m.requests[r.ID] = clone(r)
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, requestID id.ID) (*Request, error) {
	r, ok := m.requests[requestID]
	if !ok {
		return nil, apperror.NewNotFound("request", requestID)
	}
	return clone(r), nil
}

func (m *memoryRepo) GetForUpdate(ctx context.Context, requestID id.ID) (*Request, error) {
	return m.GetByID(ctx, requestID)
}

func (m *memoryRepo) UpdateStatus(_ context.Context, r *Request) error {
	m.requests[r.ID].Status = r.Status
	return nil
}

func (m *memoryRepo) SetIssued(_ context.Context, itemID id.ID, issued types.Quantity) error {
	m.setIssuedCalls++
	if m.failSetIssuedOn > 0 && m.setIssuedCalls == m.failSetIssuedOn {
		return errors.New("replenishment: deadlock detected")
	}
	for _, r := range m.requests {
		for i := range r.Items {
			if r.Items[i].ID == itemID {
				r.Items[i].Issued = issued
				return nil
			}
		}
	}
	return apperror.NewNotFound("request item", itemID)
}

func (m *memoryRepo) CreateIssueRecords(_ context.Context, records []IssueRecord) error {
	m.issues = append(m.issues, records...)
	return nil
}

func (m *memoryRepo) ListIssues(_ context.Context, requestID id.ID) ([]IssueRecord, error) {
	var out []IssueRecord
	for _, rec := range m.issues {
		if rec.RequestID == requestID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) (domain.ListResult[*Request], error) {
	var out []*Request
	for _, r := range m.requests {
		out = append(out, clone(r))
	}
	return domain.NewListResult(out, int64(len(out)), filter.ListFilter), nil
}

func (m *memoryRepo) Snapshot() func() {
	requests := make(map[id.ID]*Request, len(m.requests))
	for k, r := range m.requests {
		requests[k] = clone(r)
	}
	issues := append([]IssueRecord(nil), m.issues...)
	return func() {
		m.requests = requests
		m.issues = issues
	}
}

type locations map[id.ID]*location.Location

func (l locations) GetByID(_ context.Context, locationID id.ID) (*location.Location, error) {
	if loc, ok := l[locationID]; ok {
		return loc, nil
	}
	return nil, apperror.NewNotFound("location", locationID)
}

type bindings map[string][]id.ID

func (b bindings) IsAssigned(_ context.Context, username string, locationID id.ID) (bool, error) {
	for _, l := range b[username] {
		if l == locationID {
			return true, nil
		}
	}
	return false, nil
}

func (b bindings) LocationsOf(_ context.Context, username string) ([]id.ID, error) {
	return b[username], nil
}

type capturePublisher struct{ events []notify.Event }

func (c *capturePublisher) Publish(_ context.Context, e notify.Event) error {
	c.events = append(c.events, e)
	return nil
}

func (c *capturePublisher) Snapshot() func() {
	n := len(c.events)
	return func() { c.events = c.events[:n] }
}

// rollbackTx restores every participant when the callback fails.
type rollbackTx struct {
	participants []interface{ Snapshot() func() }
}

func (r rollbackTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	restores := make([]func(), 0, len(r.participants))
	for _, p := range r.participants {
		restores = append(restores, p.Snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// failingLedger fails the failOn-th ApplyDelta call.
type failingLedger struct {
	*ledger.MemoryRepository
	calls  int
	failOn int
}

func (f *failingLedger) ApplyDelta(ctx context.Context, locationID, productID id.ID, delta types.Quantity) (types.Quantity, error) {
	f.calls++
	if f.calls == f.failOn {
		return 0, errors.New("ledger: connection reset")
	}
	return f.MemoryRepository.ApplyDelta(ctx, locationID, productID, delta)
}

func (c *capturePublisher) types() []notify.EventType {
	out := make([]notify.EventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

// --- fixture ---

type fixture struct {
	svc       *Service
	repo      *memoryRepo
	stock     *ledger.MemoryRepository
	publisher *capturePublisher
	warehouse *location.Location
	site      *location.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	warehouse := location.NewLocation("Central", location.TypeWarehouse, nil)
	site := location.NewLocation("Site 1", location.TypeSite, nil)
	stock := ledger.NewMemoryRepository()
	repo := newMemoryRepo()
	pub := &capturePublisher{}

	f := &fixture{repo: repo, stock: stock, publisher: pub, warehouse: warehouse, site: site}
	f.svc = f.service(tx.Passthrough{}, stock)
	return f
}

func (f *fixture) service(txm tx.Manager, stock ledger.Repository) *Service {
	return NewService(ServiceConfig{
		Repo:        f.repo,
		Engine:      ledger.NewEngine(stock),
		Locations:   locations{f.warehouse.ID: f.warehouse, f.site.ID: f.site},
		Guard:       access.NewGuard(bindings{"sam": {f.site.ID, f.warehouse.ID}}),
		TxManager:   txm,
		Publisher:   f.publisher,
		WarehouseID: f.warehouse.ID,
	})
}

func supervisor() context.Context {
	return security.WithScope(context.Background(), &security.AccessScope{Username: "sam", Role: security.RoleSupervisor})
}

func storekeeper() context.Context {
	return security.WithScope(context.Background(), &security.AccessScope{Username: "wendy", Role: security.RoleWarehouseManager})
}

func qty(n int64) types.Quantity { return types.NewQuantity(n) }

func (f *fixture) approvedRequest(t *testing.T, lines ...Line) *Request {
	t.Helper()
	req, err := f.svc.Create(supervisor(), f.site.ID, lines, nil)
	require.NoError(t, err)
	req, err = f.svc.SetStatus(storekeeper(), req.ID, StatusApproved)
	require.NoError(t, err)
	return req
}

// --- tests ---

func TestIssue_FullReplenishmentCycle(t *testing.T) {
	f := newFixture(t)
	productA := id.New()
	_, err := f.stock.SetAbsolute(context.Background(), f.warehouse.ID, productA, qty(200))
	require.NoError(t, err)

	req, err := f.svc.Create(supervisor(), f.site.ID, []Line{{ProductID: productA, Quantity: qty(100)}}, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, types.Quantity(0), req.Items[0].Issued)

	req, err = f.svc.SetStatus(storekeeper(), req.ID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, req.Status)

	res, err := f.svc.Issue(storekeeper(), req.ID, []Line{{ProductID: productA, Quantity: qty(60)}}, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, res.Request.Status)
	assert.Equal(t, qty(60), res.Request.Items[0].Issued)
	assert.Equal(t, qty(140), f.stock.Quantity(f.warehouse.ID, productA))
	assert.Equal(t, qty(60), f.stock.Quantity(f.site.ID, productA))
	require.Len(t, res.Records, 1)
	assert.Equal(t, "wendy", res.Records[0].IssuedBy)

	res, err = f.svc.Issue(storekeeper(), req.ID, []Line{{ProductID: productA, Quantity: qty(40)}}, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusFulfilled, res.Request.Status)
	assert.Equal(t, qty(100), res.Request.Items[0].Issued)
	assert.Equal(t, qty(100), f.stock.Quantity(f.warehouse.ID, productA))
	assert.Equal(t, qty(100), f.stock.Quantity(f.site.ID, productA))

	assert.Equal(t, []notify.EventType{
		notify.EventRequestCreated,
		notify.EventRequestApproved,
		notify.EventRequestFulfilled,
	}, f.publisher.types())

	history, err := f.svc.ListIssues(storekeeper(), req.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = f.svc.Issue(storekeeper(), req.ID, []Line{{ProductID: productA, Quantity: qty(1)}}, nil)
	assert.True(t, apperror.IsInvalidStatus(err), "fulfilled requests are frozen")
}

func TestIssue_InsufficientStockSkipsLine(t *testing.T) {
	f := newFixture(t)
	productB := id.New()
	_, _ = f.stock.SetAbsolute(context.Background(), f.warehouse.ID, productB, qty(5))
	req := f.approvedRequest(t, Line{ProductID: productB, Quantity: qty(10)})

	res, err := f.svc.Issue(storekeeper(), req.ID, []Line{{ProductID: productB, Quantity: qty(10)}}, nil)
	require.NoError(t, err)

	require.Len(t, res.Lines, 1)
	assert.False(t, res.Lines[0].Issued)
	assert.Equal(t, ReasonInsufficientStock, res.Lines[0].Reason)
	require.NotNil(t, res.Lines[0].Available)
	assert.Equal(t, qty(5), *res.Lines[0].Available)

	assert.Equal(t, qty(5), f.stock.Quantity(f.warehouse.ID, productB))
	assert.Equal(t, types.Quantity(0), f.stock.Quantity(f.site.ID, productB))
	assert.Equal(t, types.Quantity(0), res.Request.Items[0].Issued)
	assert.Equal(t, StatusApproved, res.Request.Status)
	assert.Empty(t, res.Records)
}

func TestIssue_SkipReasons(t *testing.T) {
	f := newFixture(t)
	a, b := id.New(), id.New()
	_, _ = f.stock.SetAbsolute(context.Background(), f.warehouse.ID, a, qty(100))
	_, _ = f.stock.SetAbsolute(context.Background(), f.warehouse.ID, b, qty(100))
	req := f.approvedRequest(t, Line{ProductID: a, Quantity: qty(10)}, Line{ProductID: b, Quantity: qty(5)})

	res, err := f.svc.Issue(storekeeper(), req.ID, []Line{
		{ProductID: a, Quantity: 0},
		{ProductID: id.New(), Quantity: qty(1)},
		{ProductID: b, Quantity: qty(6)},
		{ProductID: a, Quantity: qty(4)},
		{ProductID: a, Quantity: qty(7)},
	}, nil)
	require.NoError(t, err)

	reasons := make([]string, 0, len(res.Lines))
	for _, l := range res.Lines {
		reasons = append(reasons, l.Reason)
	}
	assert.Equal(t, []string{ReasonNonPositive, ReasonNotOnRequest, ReasonExceedsRemaining, "", ReasonExceedsRemaining}, reasons)
	assert.Equal(t, StatusPartial, res.Request.Status)
	assert.Equal(t, qty(96), f.stock.Quantity(f.warehouse.ID, a))
}

func TestIssue_RequiresApprovedRequest(t *testing.T) {
	f := newFixture(t)
	req, err := f.svc.Create(supervisor(), f.site.ID, []Line{{ProductID: id.New(), Quantity: qty(1)}}, nil)
	require.NoError(t, err)

	_, err = f.svc.Issue(storekeeper(), req.ID, []Line{{ProductID: req.Items[0].ProductID, Quantity: qty(1)}}, nil)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStatus, appErr.Code)
	assert.Equal(t, "PENDING", appErr.Details["current"])
}

func TestIssue_RequiresWarehouseRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Issue(supervisor(), id.New(), []Line{{ProductID: id.New(), Quantity: qty(1)}}, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestSetStatus_OnlyFromPending(t *testing.T) {
	f := newFixture(t)
	req := f.approvedRequest(t, Line{ProductID: id.New(), Quantity: qty(1)})

	_, err := f.svc.SetStatus(storekeeper(), req.ID, StatusRejected)
	assert.True(t, apperror.IsInvalidStatus(err))

	_, err = f.svc.SetStatus(storekeeper(), req.ID, StatusFulfilled)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	product := id.New()

	_, err := f.svc.Create(supervisor(), f.site.ID, nil, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.Create(supervisor(), f.site.ID, []Line{{ProductID: product, Quantity: 0}}, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.Create(supervisor(), f.site.ID, []Line{
		{ProductID: product, Quantity: qty(1)},
		{ProductID: product, Quantity: qty(2)},
	}, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.Create(supervisor(), id.New(), []Line{{ProductID: product, Quantity: qty(1)}}, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeLocationNotAssigned))

	_, err = f.svc.Create(supervisor(), f.warehouse.ID, []Line{{ProductID: product, Quantity: qty(1)}}, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "warehouse cannot request from itself")
}

func TestGet_SupervisorVisibility(t *testing.T) {
	f := newFixture(t)
	req, err := f.svc.Create(supervisor(), f.site.ID, []Line{{ProductID: id.New(), Quantity: qty(1)}}, nil)
	require.NoError(t, err)

	other := security.WithScope(context.Background(), &security.AccessScope{Username: "olga", Role: security.RoleSupervisor})
	_, err = f.svc.Get(other, req.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeLocationNotAssigned))

	got, err := f.svc.Get(storekeeper(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)
}

func TestRecomputeStatus(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		items   []Item
		want    Status
	}{
		{"nothing issued keeps approved", StatusApproved, []Item{{Quantity: qty(5)}}, StatusApproved},
		{"some issued is partial", StatusApproved, []Item{{Quantity: qty(5), Issued: qty(1)}, {Quantity: qty(2)}}, StatusPartial},
		{"all issued is fulfilled", StatusPartial, []Item{{Quantity: qty(5), Issued: qty(5)}, {Quantity: qty(2), Issued: qty(2)}}, StatusFulfilled},
		{"no items keeps current", StatusApproved, nil, StatusApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecomputeStatus(tt.current, tt.items)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, RecomputeStatus(got, tt.items), "recompute must be idempotent")
		})
	}
}

func TestIssue_RandomRoundsKeepInvariants(t *testing.T) {
	f := newFixture(t)
	products := []id.ID{id.New(), id.New(), id.New()}
	lines := make([]Line, 0, len(products))
	for _, p := range products {
		_, _ = f.stock.SetAbsolute(context.Background(), f.warehouse.ID, p, qty(30))
		lines = append(lines, Line{ProductID: p, Quantity: qty(20)})
	}
	req := f.approvedRequest(t, lines...)
	rng := rand.New(rand.NewSource(7))

	prev := make(map[id.ID]types.Quantity)
	for round := 0; round < 40; round++ {
		p := products[rng.Intn(len(products))]
		res, err := f.svc.Issue(storekeeper(), req.ID, []Line{{ProductID: p, Quantity: qty(int64(rng.Intn(8) - 1))}}, nil)
		if apperror.IsInvalidStatus(err) {
			break
		}
		require.NoError(t, err)

		for _, item := range res.Request.Items {
			assert.GreaterOrEqual(t, item.Issued, prev[item.ProductID], "issued never decreases")
			assert.LessOrEqual(t, item.Issued, item.Quantity, "issued never exceeds quantity")
			prev[item.ProductID] = item.Issued

			total := f.stock.Quantity(f.warehouse.ID, item.ProductID) + f.stock.Quantity(f.site.ID, item.ProductID)
			assert.Equal(t, qty(30), total, "moves conserve stock")
			assert.Equal(t, item.Issued, f.stock.Quantity(f.site.ID, item.ProductID))
		}
		assert.Equal(t, RecomputeStatus(StatusApproved, res.Request.Items), res.Request.Status)
	}
}

func TestIssue_FailureRollsBackWholeCall(t *testing.T) {
	cases := []struct {
		name  string
		setup func(f *fixture) ledger.Repository
	}{
		{
			name: "issued counter write fails on second line",
			setup: func(f *fixture) ledger.Repository {
				f.repo.failSetIssuedOn = f.repo.setIssuedCalls + 2
				return f.stock
			},
		},
		{
			name: "stock move fails on second line",
			setup: func(f *fixture) ledger.Repository {
				return &failingLedger{MemoryRepository: f.stock, failOn: 3}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			a, b := id.New(), id.New()
			ctx := context.Background()
			_, err := f.stock.SetAbsolute(ctx, f.warehouse.ID, a, qty(50))
			require.NoError(t, err)
			_, err = f.stock.SetAbsolute(ctx, f.warehouse.ID, b, qty(50))
			require.NoError(t, err)
			req := f.approvedRequest(t, Line{ProductID: a, Quantity: qty(10)}, Line{ProductID: b, Quantity: qty(10)})
			events := len(f.publisher.events)

			stock := tc.setup(f)
			f.svc = f.service(rollbackTx{participants: []interface{ Snapshot() func() }{f.repo, f.stock, f.publisher}}, stock)

			_, err = f.svc.Issue(storekeeper(), req.ID, []Line{
				{ProductID: a, Quantity: qty(10)},
				{ProductID: b, Quantity: qty(10)},
			}, nil)
			require.Error(t, err)

			assert.Equal(t, qty(50), f.stock.Quantity(f.warehouse.ID, a))
			assert.Equal(t, qty(50), f.stock.Quantity(f.warehouse.ID, b))
			assert.Equal(t, types.Quantity(0), f.stock.Quantity(f.site.ID, a))
			assert.Equal(t, types.Quantity(0), f.stock.Quantity(f.site.ID, b))

			after := f.repo.requests[req.ID]
			assert.Equal(t, StatusApproved, after.Status)
			for _, item := range after.Items {
				assert.Equal(t, types.Quantity(0), item.Issued)
			}
			history, err := f.svc.ListIssues(storekeeper(), req.ID)
			require.NoError(t, err)
			assert.Empty(t, history)
			assert.Len(t, f.publisher.events, events)
		})
	}
}
