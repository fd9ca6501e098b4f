package procurement

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/numerator"
	"stockflow/internal/core/security"
	"stockflow/internal/core/tx"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
	"stockflow/internal/domain/catalogs/supplier"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/domain/notify"
)

// --- fakes ---

type requestRepo struct{ rows map[id.ID]*PurchaseRequest }

func copyRequest(pr *PurchaseRequest) *PurchaseRequest {
	c := *pr
	c.Items = append([]RequestItem(nil), pr.Items...)
	return &c
}

func (r *requestRepo) Create(_ context.Context, pr *PurchaseRequest) error {
	r.rows[pr.ID] = copyRequest(pr)
	return nil
}

func (r *requestRepo) GetByID(_ context.Context, prID id.ID) (*PurchaseRequest, error) {
	pr, ok := r.rows[prID]
	if !ok {
		return nil, apperror.NewNotFound("purchase request", prID)
	}
	return copyRequest(pr), nil
}

func (r *requestRepo) GetForUpdate(ctx context.Context, prID id.ID) (*PurchaseRequest, error) {
	return r.GetByID(ctx, prID)
}

func (r *requestRepo) Update(_ context.Context, pr *PurchaseRequest) error {
	r.rows[pr.ID] = copyRequest(pr)
	return nil
}

func (r *requestRepo) List(_ context.Context, f RequestFilter) (domain.ListResult[*PurchaseRequest], error) {
	var out []*PurchaseRequest
	for _, pr := range r.rows {
		if f.Status == nil || pr.Status == *f.Status {
			out = append(out, copyRequest(pr))
		}
	}
	return domain.NewListResult(out, int64(len(out)), f.ListFilter), nil
}

type orderRepo struct {
	rows     map[id.ID]*Order
	receipts []ReceiveRecord
	notified map[id.ID]bool
}

func copyOrder(o *Order) *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}

func (r *orderRepo) Create(_ context.Context, o *Order) error {
	for _, existing := range r.rows {
		if existing.PONumber == o.PONumber {
			return apperror.NewDuplicate("purchase order", "po_number", o.PONumber)
		}
	}
	r.rows[o.ID] = copyOrder(o)
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, orderID id.ID) (*Order, error) {
	o, ok := r.rows[orderID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", orderID)
	}
	return copyOrder(o), nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *orderRepo) ReplaceItems(_ context.Context, o *Order) error {
	r.rows[o.ID] = copyOrder(o)
	return nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, o *Order) error {
	stored := r.rows[o.ID]
	stored.Status = o.Status
	stored.SentAt, stored.ReceivedAt, stored.ClosedAt = o.SentAt, o.ReceivedAt, o.ClosedAt
	return nil
}

func (r *orderRepo) SetReceived(_ context.Context, itemID id.ID, received types.Quantity) error {
	for _, o := range r.rows {
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o.Items[i].ReceivedQty = received
				return nil
			}
		}
	}
	return apperror.NewNotFound("order item", itemID)
}

func (r *orderRepo) CreateReceiveRecord(_ context.Context, rec *ReceiveRecord) error {
	r.receipts = append(r.receipts, *rec)
	return nil
}

func (r *orderRepo) ListReceipts(_ context.Context, orderID id.ID) ([]ReceiveRecord, error) {
	var out []ReceiveRecord
	for _, rec := range r.receipts {
		if rec.OrderID == orderID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *orderRepo) List(_ context.Context, f OrderFilter) (domain.ListResult[*Order], error) {
	var out []*Order
	for _, o := range r.rows {
		out = append(out, copyOrder(o))
	}
	return domain.NewListResult(out, int64(len(out)), f.ListFilter), nil
}

func (r *orderRepo) Overdue(_ context.Context, now time.Time) ([]*Order, error) {
	var out []*Order
	for _, o := range r.rows {
		open := o.Status == OrderSent || o.Status == OrderPartiallyReceived
		if open && !r.notified[o.ID] && o.DaysOverdue(now) > 0 {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (r *orderRepo) MarkOverdueNotified(_ context.Context, orderID id.ID, _ time.Time) error {
	r.notified[orderID] = true
	return nil
}

// Snapshot returns a func restoring the orders and receipts as they are now.
func (r *orderRepo) Snapshot() func() {
	rows := make(map[id.ID]*Order, len(r.rows))
	for k, o := range r.rows {
		rows[k] = copyOrder(o)
	}
	receipts := append([]ReceiveRecord(nil), r.receipts...)
	return func() {
		r.rows = rows
		r.receipts = receipts
	}
}

type suppliers map[id.ID]*supplier.Supplier

func (s suppliers) GetByID(_ context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	if sup, ok := s[supplierID]; ok {
		return sup, nil
	}
	return nil, apperror.NewNotFound("supplier", supplierID)
}

type stubRenderer struct{}

func (stubRenderer) RenderOrder(_ context.Context, o *Order, _ *supplier.Supplier) ([]byte, error) {
	return []byte("%PDF " + o.PONumber), nil
}

type recordingSender struct {
	err  error
	sent []string
}

func (r *recordingSender) SendOrder(_ context.Context, address string, o *Order, pdf []byte) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, fmt.Sprintf("%s:%s:%d", address, o.PONumber, len(pdf)))
	return nil
}

type memoryPhotos struct{ keys []string }

func (m *memoryPhotos) PutPhoto(_ context.Context, orderID id.ID, photo Photo) (string, error) {
	key := "receipts/" + orderID.String() + "/" + photo.Filename
	m.keys = append(m.keys, key)
	return "http://files/" + key, nil
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

// rollbackTx serialises transactions and restores every participant when
// the callback fails.
type rollbackTx struct {
	mu           sync.Mutex
	participants []interface{ Snapshot() func() }
}

func (r *rollbackTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

// --- fixture ---

type fixture struct {
	svc       *Service
	requests  *requestRepo
	orders    *orderRepo
	stock     *ledger.MemoryRepository
	mail      *recordingSender
	chat      *recordingSender
	photos    *memoryPhotos
	publisher *capturePublisher
	supplier  *supplier.Supplier
	warehouse id.ID
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	email := "orders@acme.test"
	sup := supplier.NewSupplier("Acme", "Jane")
	sup.Email = &email

	f := &fixture{
		requests:  &requestRepo{rows: make(map[id.ID]*PurchaseRequest)},
		orders:    &orderRepo{rows: make(map[id.ID]*Order), notified: make(map[id.ID]bool)},
		stock:     ledger.NewMemoryRepository(),
		mail:      &recordingSender{},
		chat:      &recordingSender{},
		photos:    &memoryPhotos{},
		publisher: &capturePublisher{},
		supplier:  sup,
		warehouse: id.New(),
		now:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.svc = f.service(tx.Passthrough{}, f.stock)
	return f
}

// service builds the service over the fixture's fakes with the given
// transaction manager and ledger repository.
func (f *fixture) service(txm tx.Manager, stock ledger.Repository) *Service {
	return NewService(ServiceConfig{
		Requests:    f.requests,
		Orders:      f.orders,
		Suppliers:   suppliers{f.supplier.ID: f.supplier},
		Engine:      ledger.NewEngine(stock),
		Numbers:     numerator.NewMemoryGenerator(),
		TxManager:   txm,
		Publisher:   f.publisher,
		Renderer:    stubRenderer{},
		Senders:     map[Method]Sender{MethodEmail: f.mail, MethodTelegram: f.chat},
		Photos:      f.photos,
		WarehouseID: f.warehouse,
		Now:         func() time.Time { return f.now },
	})
}

func as(role security.Role) context.Context {
	return security.WithScope(context.Background(), &security.AccessScope{Username: "user-" + string(role), Role: role})
}

func qty(n int64) types.Quantity { return types.NewQuantity(n) }

func (f *fixture) sentOrder(t *testing.T, lines ...OrderLine) *Order {
	t.Helper()
	o, err := f.svc.CreateOrder(as(security.RoleProcurement), OrderInput{SupplierID: f.supplier.ID, Lines: lines})
	require.NoError(t, err)
	o, err = f.svc.Send(as(security.RoleProcurement), o.ID, MethodEmail)
	require.NoError(t, err)
	return o
}

// --- purchase requests ---

func TestPurchaseRequest_Lifecycle(t *testing.T) {
	f := newFixture(t)
	product := id.New()

	_, err := f.svc.CreateRequest(as(security.RoleProcurement), []RequestLine{{ProductID: product, Quantity: qty(3)}}, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden), "procurement cannot raise purchase requests")

	pr, err := f.svc.CreateRequest(as(security.RoleWarehouseManager), []RequestLine{{ProductID: product, Quantity: qty(3)}}, nil)
	require.NoError(t, err)
	assert.Equal(t, RequestPending, pr.Status)
	assert.Nil(t, pr.POID)

	_, err = f.svc.SetRequestStatus(as(security.RoleWarehouseManager), pr.ID, RequestDone)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	pr, err = f.svc.SetRequestStatus(as(security.RoleProcurement), pr.ID, RequestDone)
	require.NoError(t, err)
	assert.Equal(t, RequestDone, pr.Status)

	_, err = f.svc.SetRequestStatus(as(security.RoleProcurement), pr.ID, RequestInProgress)
	assert.True(t, apperror.IsInvalidStatus(err), "only PENDING requests change status")

	_, err = f.svc.GetRequest(as(security.RoleSupervisor), pr.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestPurchaseRequest_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := as(security.RoleWarehouseManager)

	_, err := f.svc.CreateRequest(ctx, nil, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.CreateRequest(ctx, []RequestLine{{ProductID: id.New(), Quantity: qty(-1)}}, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	pr, err := f.svc.CreateRequest(ctx, []RequestLine{{ProductID: id.New(), Quantity: qty(1)}}, nil)
	require.NoError(t, err)
	_, err = f.svc.SetRequestStatus(as(security.RoleProcurement), pr.ID, RequestPending)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

// --- purchase orders ---

func TestCreateOrder_NumbersAndTotals(t *testing.T) {
	f := newFixture(t)
	ctx := as(security.RoleProcurement)
	a, b := id.New(), id.New()

	first, err := f.svc.CreateOrder(ctx, OrderInput{SupplierID: f.supplier.ID, Lines: []OrderLine{
		{ProductID: a, Quantity: qty(10), UnitPrice: types.MustMoney("2.50")},
		{ProductID: b, Quantity: qty(4), UnitPrice: types.MustMoney("12.25")},
	}})
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-0001", first.PONumber)
	assert.Equal(t, OrderDraft, first.Status)
	assert.Equal(t, "74.00", first.TotalAmount.StringFixed(2))
	assert.Equal(t, "25.00", first.Items[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "49.00", first.Items[1].TotalPrice.StringFixed(2))
	for _, item := range first.Items {
		assert.Equal(t, types.Quantity(0), item.ReceivedQty)
	}

	second, err := f.svc.CreateOrder(ctx, OrderInput{SupplierID: f.supplier.ID, Lines: []OrderLine{
		{ProductID: a, Quantity: qty(1), UnitPrice: types.MustMoney("1")},
	}})
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-0002", second.PONumber)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, notify.EventPOCreated, f.publisher.events[0].Type)
	payload := f.publisher.events[0].Payload.(notify.POCreated)
	assert.Equal(t, "Acme", payload.SupplierName)
	assert.Equal(t, "PO-2026-0001", payload.PONumber)
}

func TestCreateOrder_LinksPurchaseRequest(t *testing.T) {
	f := newFixture(t)
	product := id.New()
	pr, err := f.svc.CreateRequest(as(security.RoleWarehouseManager), []RequestLine{{ProductID: product, Quantity: qty(3)}}, nil)
	require.NoError(t, err)

	o, err := f.svc.CreateOrder(as(security.RoleProcurement), OrderInput{
		SupplierID:        f.supplier.ID,
		Lines:             []OrderLine{{ProductID: product, Quantity: qty(3), UnitPrice: types.MustMoney("4")}},
		PurchaseRequestID: &pr.ID,
	})
	require.NoError(t, err)

	linked, err := f.svc.GetRequest(as(security.RoleProcurement), pr.ID)
	require.NoError(t, err)
	assert.Equal(t, RequestInProgress, linked.Status)
	require.NotNil(t, linked.POID)
	assert.Equal(t, o.ID, *linked.POID)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := as(security.RoleProcurement)
	product := id.New()

	_, err := f.svc.CreateOrder(ctx, OrderInput{SupplierID: f.supplier.ID})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.CreateOrder(ctx, OrderInput{SupplierID: f.supplier.ID, Lines: []OrderLine{
		{ProductID: product, Quantity: qty(1), UnitPrice: types.MustMoney("-1")},
	}})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.CreateOrder(ctx, OrderInput{SupplierID: id.New(), Lines: []OrderLine{
		{ProductID: product, Quantity: qty(1), UnitPrice: types.MustMoney("1")},
	}})
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.CreateOrder(as(security.RoleWarehouseManager), OrderInput{SupplierID: f.supplier.ID})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestUpdateDraft_ReplacesItems(t *testing.T) {
	f := newFixture(t)
	ctx := as(security.RoleProcurement)
	o, err := f.svc.CreateOrder(ctx, OrderInput{SupplierID: f.supplier.ID, Lines: []OrderLine{
		{ProductID: id.New(), Quantity: qty(1), UnitPrice: types.MustMoney("1")},
	}})
	require.NoError(t, err)

	replacement := id.New()
	note := "call before delivery"
	updated, err := f.svc.UpdateDraft(ctx, o.ID, OrderPatch{
		Lines: []OrderLine{{ProductID: replacement, Quantity: qty(2), UnitPrice: types.MustMoney("3.10")}},
		Note:  &note,
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, replacement, updated.Items[0].ProductID)
	assert.Equal(t, "6.20", updated.TotalAmount.StringFixed(2))
	assert.Equal(t, &note, updated.Note)
	assert.Equal(t, o.PONumber, updated.PONumber)

	_, err = f.svc.Send(ctx, o.ID, MethodEmail)
	require.NoError(t, err)
	_, err = f.svc.UpdateDraft(ctx, o.ID, OrderPatch{Note: &note})
	assert.True(t, apperror.IsInvalidStatus(err))
}

func TestSend(t *testing.T) {
	f := newFixture(t)
	ctx := as(security.RoleProcurement)
	o, err := f.svc.CreateOrder(ctx, OrderInput{SupplierID: f.supplier.ID, Lines: []OrderLine{
		{ProductID: id.New(), Quantity: qty(1), UnitPrice: types.MustMoney("1")},
	}})
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, o.ID, Method("fax"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.Send(ctx, o.ID, MethodTelegram)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "supplier has no chat id")

	f.mail.err = errors.New("smtp: connection refused")
	_, err = f.svc.Send(ctx, o.ID, MethodEmail)
	assert.True(t, apperror.HasCode(err, apperror.CodeDeliveryFailed))
	still, _ := f.svc.GetOrder(ctx, o.ID)
	assert.Equal(t, OrderDraft, still.Status)

	f.mail.err = nil
	sent, err := f.svc.Send(ctx, o.ID, MethodEmail)
	require.NoError(t, err)
	assert.Equal(t, OrderSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	assert.Equal(t, []string{"orders@acme.test:PO-2026-0001:17"}, f.mail.sent)

	_, err = f.svc.Send(ctx, o.ID, MethodEmail)
	assert.True(t, apperror.IsInvalidStatus(err), "only drafts are sent")
}

func TestReceive_PartialThenFull(t *testing.T) {
	f := newFixture(t)
	a, b := id.New(), id.New()
	o := f.sentOrder(t,
		OrderLine{ProductID: a, Quantity: qty(10), UnitPrice: types.MustMoney("1")},
		OrderLine{ProductID: b, Quantity: qty(5), UnitPrice: types.MustMoney("1")},
	)
	ctx := as(security.RoleWarehouseManager)

	res, err := f.svc.Receive(ctx, o.ID, []ReceiveLine{{ProductID: a, ReceivedQty: qty(10)}}, nil,
		&Photo{Filename: "dock.jpg", ContentType: "image/jpeg", Size: 3, Body: bytes.NewReader([]byte("jpg"))})
	require.NoError(t, err)
	assert.Equal(t, OrderPartiallyReceived, res.Order.Status)
	assert.Nil(t, res.Order.ReceivedAt)
	assert.Equal(t, qty(10), res.Order.Items[0].ReceivedQty)
	assert.Equal(t, types.Quantity(0), res.Order.Items[1].ReceivedQty)
	assert.Equal(t, qty(10), f.stock.Quantity(f.warehouse, a))
	require.NotNil(t, res.Record.PhotoURL)
	assert.Contains(t, *res.Record.PhotoURL, "dock.jpg")

	res, err = f.svc.Receive(ctx, o.ID, []ReceiveLine{{ProductID: b, ReceivedQty: qty(5)}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, OrderReceived, res.Order.Status)
	require.NotNil(t, res.Order.ReceivedAt)
	assert.Equal(t, qty(5), f.stock.Quantity(f.warehouse, b))

	receipts, err := f.svc.ListReceipts(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, receipts, 2)

	var received int
	for _, e := range f.publisher.events {
		if e.Type == notify.EventPOReceived {
			received++
		}
	}
	assert.Equal(t, 2, received)
}

func TestReceive_SkipReasons(t *testing.T) {
	f := newFixture(t)
	a := id.New()
	o := f.sentOrder(t, OrderLine{ProductID: a, Quantity: qty(10), UnitPrice: types.MustMoney("1")})

	res, err := f.svc.Receive(as(security.RoleWarehouseManager), o.ID, []ReceiveLine{
		{ProductID: a, ReceivedQty: 0},
		{ProductID: id.New(), ReceivedQty: qty(1)},
		{ProductID: a, ReceivedQty: qty(11)},
		{ProductID: a, ReceivedQty: qty(4)},
	}, nil, nil)
	require.NoError(t, err)

	reasons := make([]string, 0, len(res.Lines))
	for _, l := range res.Lines {
		reasons = append(reasons, l.Reason)
	}
	assert.Equal(t, []string{ReasonNonPositive, ReasonNotOnOrder, ReasonExceedsRemaining, ""}, reasons)
	assert.Equal(t, qty(4), f.stock.Quantity(f.warehouse, a))
	assert.Len(t, res.Record.Lines, 1)
}

func TestReceive_StatusGate(t *testing.T) {
	f := newFixture(t)
	ctx := as(security.RoleProcurement)
	a := id.New()
	o, err := f.svc.CreateOrder(ctx, OrderInput{SupplierID: f.supplier.ID, Lines: []OrderLine{
		{ProductID: a, Quantity: qty(1), UnitPrice: types.MustMoney("1")},
	}})
	require.NoError(t, err)

	_, err = f.svc.Receive(as(security.RoleWarehouseManager), o.ID, []ReceiveLine{{ProductID: a, ReceivedQty: qty(1)}}, nil, nil)
	assert.True(t, apperror.IsInvalidStatus(err), "drafts cannot be received")

	closed, err := f.svc.Close(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	_, err = f.svc.Close(ctx, o.ID)
	assert.True(t, apperror.IsInvalidStatus(err))

	_, err = f.svc.Receive(as(security.RoleWarehouseManager), o.ID, []ReceiveLine{{ProductID: a, ReceivedQty: qty(1)}}, nil, nil)
	assert.True(t, apperror.IsInvalidStatus(err))
	assert.Empty(t, f.photos.keys)
}

func TestReceive_RequiresWarehouseRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Receive(as(security.RoleSupervisor), id.New(), []ReceiveLine{{ProductID: id.New(), ReceivedQty: qty(1)}}, nil, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestScanOverdue_ReportsOnce(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	o, err := f.svc.CreateOrder(as(security.RoleProcurement), OrderInput{
		SupplierID:   f.supplier.ID,
		Lines:        []OrderLine{{ProductID: id.New(), Quantity: qty(1), UnitPrice: types.MustMoney("1")}},
		DeliveryDate: &due,
	})
	require.NoError(t, err)

	n, err := f.svc.ScanOverdue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "drafts are not overdue")

	_, err = f.svc.Send(as(security.RoleProcurement), o.ID, MethodEmail)
	require.NoError(t, err)

	n, err = f.svc.ScanOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	last := f.publisher.events[len(f.publisher.events)-1]
	assert.Equal(t, notify.EventPOOverdue, last.Type)
	assert.Equal(t, 5, last.Payload.(notify.POOverdue).DaysOverdue)

	n, err = f.svc.ScanOverdue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecomputeOrderStatus(t *testing.T) {
	tests := []struct {
		name    string
		current OrderStatus
		items   []OrderItem
		want    OrderStatus
	}{
		{"nothing received keeps sent", OrderSent, []OrderItem{{Quantity: qty(2)}}, OrderSent},
		{"some received", OrderSent, []OrderItem{{Quantity: qty(10), ReceivedQty: qty(10)}, {Quantity: qty(5)}}, OrderPartiallyReceived},
		{"all received", OrderPartiallyReceived, []OrderItem{{Quantity: qty(10), ReceivedQty: qty(10)}, {Quantity: qty(5), ReceivedQty: qty(5)}}, OrderReceived},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecomputeOrderStatus(tt.current, tt.items)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, RecomputeOrderStatus(got, tt.items))
		})
	}
}

func TestOrder_DaysOverdue(t *testing.T) {
	due := time.Date(2026, 3, 5, 18, 0, 0, 0, time.UTC)
	o := &Order{DeliveryDate: &due}

	assert.Equal(t, 0, o.DaysOverdue(time.Date(2026, 3, 5, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, o.DaysOverdue(time.Date(2026, 3, 6, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, (&Order{}).DaysOverdue(due))
}

func TestReceive_FailureRollsBackEarlierLines(t *testing.T) {
	f := newFixture(t)
	a, b := id.New(), id.New()
	o := f.sentOrder(t,
		OrderLine{ProductID: a, Quantity: qty(10), UnitPrice: types.MustMoney("1")},
		OrderLine{ProductID: b, Quantity: qty(5), UnitPrice: types.MustMoney("1")},
	)
	events := len(f.publisher.events)

	faulty := &failingLedger{MemoryRepository: f.stock, failOn: 2}
	f.svc = f.service(&rollbackTx{participants: []interface{ Snapshot() func() }{f.orders, f.stock, f.publisher}}, faulty)

	_, err := f.svc.Receive(as(security.RoleWarehouseManager), o.ID, []ReceiveLine{
		{ProductID: a, ReceivedQty: qty(10)},
		{ProductID: b, ReceivedQty: qty(5)},
	}, nil, nil)
	require.Error(t, err)

	after, err := f.svc.GetOrder(as(security.RoleProcurement), o.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderSent, after.Status)
	for _, item := range after.Items {
		assert.Equal(t, types.Quantity(0), item.ReceivedQty, "received counter of %s", item.ProductID)
	}
	assert.Equal(t, types.Quantity(0), f.stock.Quantity(f.warehouse, a))
	assert.Equal(t, types.Quantity(0), f.stock.Quantity(f.warehouse, b))
	assert.Empty(t, f.orders.receipts)
	assert.Len(t, f.publisher.events, events)
}

func TestReceive_AllSkippedWritesNoReceipt(t *testing.T) {
	f := newFixture(t)
	a := id.New()
	o := f.sentOrder(t, OrderLine{ProductID: a, Quantity: qty(3), UnitPrice: types.MustMoney("1")})
	events := len(f.publisher.events)

	res, err := f.svc.Receive(as(security.RoleWarehouseManager), o.ID, []ReceiveLine{
		{ProductID: a, ReceivedQty: qty(4)},
		{ProductID: id.New(), ReceivedQty: qty(1)},
	}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Record)
	assert.Len(t, res.Lines, 2)
	assert.Equal(t, OrderSent, res.Order.Status)

	receipts, err := f.svc.ListReceipts(as(security.RoleWarehouseManager), o.ID)
	require.NoError(t, err)
	assert.Empty(t, receipts)
	assert.Len(t, f.publisher.events, events)
}

func TestSend_ConcurrentSendsDeliverOnce(t *testing.T) {
	f := newFixture(t)
	f.svc = f.service(&rollbackTx{participants: []interface{ Snapshot() func() }{f.orders, f.publisher}}, f.stock)
	ctx := as(security.RoleProcurement)
	o, err := f.svc.CreateOrder(ctx, OrderInput{SupplierID: f.supplier.ID, Lines: []OrderLine{
		{ProductID: id.New(), Quantity: qty(1), UnitPrice: types.MustMoney("1")},
	}})
	require.NoError(t, err)

	const senders = 4
	errs := make([]error, senders)
	var wg sync.WaitGroup
	for i := range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Send(ctx, o.ID, MethodEmail)
		}()
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.IsInvalidStatus(err):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, senders-1, conflicts)
	assert.Len(t, f.mail.sent, 1)
}
