package procurement

import (
	"context"
	"fmt"
	"io"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/numerator"
	"stockflow/internal/core/security"
	"stockflow/internal/core/tx"
	"stockflow/internal/domain"
	"stockflow/internal/domain/audit"
	"stockflow/internal/domain/catalogs/supplier"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/domain/notify"
	"stockflow/pkg/logger"
)

// Suppliers resolves supplier references.
type Suppliers interface {
	GetByID(ctx context.Context, id id.ID) (*supplier.Supplier, error)
}

// Renderer renders the printable order document.
type Renderer interface {
	RenderOrder(ctx context.Context, o *Order, s *supplier.Supplier) ([]byte, error)
}

// Sender delivers a rendered order to a supplier address on one channel.
type Sender interface {
	SendOrder(ctx context.Context, address string, o *Order, pdf []byte) error
}

// Photo is a receiving evidence upload.
type Photo struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// PhotoStore keeps receiving evidence and returns its public URL.
type PhotoStore interface {
	PutPhoto(ctx context.Context, orderID id.ID, photo Photo) (string, error)
}

// ServiceConfig wires a procurement Service.
type ServiceConfig struct {
	Requests    RequestRepository
	Orders      OrderRepository
	Suppliers   Suppliers
	Engine      *ledger.Engine
	Numbers     numerator.Generator
	TxManager   tx.Manager
	Publisher   notify.Publisher
	Audit       audit.Recorder
	Renderer    Renderer
	Senders     map[Method]Sender
	Photos      PhotoStore
	WarehouseID id.ID

	// Now defaults to time.Now
	Now func() time.Time
}

// Service runs the purchase request and purchase order workflows.
type Service struct {
	requests    RequestRepository
	orders      OrderRepository
	suppliers   Suppliers
	engine      *ledger.Engine
	numbers     numerator.Generator
	numberCfg   numerator.Config
	txManager   tx.Manager
	publisher   notify.Publisher
	audit       audit.Recorder
	renderer    Renderer
	senders     map[Method]Sender
	photos      PhotoStore
	warehouseID id.ID
	now         func() time.Time
}

// NewService creates a procurement service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		requests:    cfg.Requests,
		orders:      cfg.Orders,
		suppliers:   cfg.Suppliers,
		engine:      cfg.Engine,
		numbers:     cfg.Numbers,
		numberCfg:   numerator.PurchaseOrderConfig(),
		txManager:   cfg.TxManager,
		publisher:   cfg.Publisher,
		audit:       cfg.Audit,
		renderer:    cfg.Renderer,
		senders:     cfg.Senders,
		photos:      cfg.Photos,
		warehouseID: cfg.WarehouseID,
		now:         cfg.Now,
	}
	if s.publisher == nil {
		s.publisher = notify.NopPublisher{}
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.senders == nil {
		s.senders = map[Method]Sender{}
	}
	return s
}

// requireStaff refuses anonymous callers and site supervisors.
func requireStaff(ctx context.Context) (*security.AccessScope, error) {
	scope := security.GetScope(ctx)
	if !scope.Authenticated() {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	if scope.Role.IsSupervisor() {
		return nil, apperror.NewForbidden("insufficient permissions").WithDetail("role", scope.Role)
	}
	return scope, nil
}

// CreateRequest opens a PENDING purchase request. Warehouse roles only.
func (s *Service) CreateRequest(ctx context.Context, lines []RequestLine, note *string) (*PurchaseRequest, error) {
	scope := security.GetScope(ctx)
	if err := scope.RequireWarehouse(); err != nil {
		return nil, err
	}
	pr := NewPurchaseRequest(scope.Username, note, lines)
	if err := pr.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.requests.Create(ctx, pr); err != nil {
			return fmt.Errorf("create purchase request: %w", err)
		}
		return s.record(ctx, "purchase_request", pr.ID, audit.ActionCreated, map[string]any{"items": len(pr.Items)})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase request created", "purchase_request_id", pr.ID, "items", len(pr.Items))
	return pr, nil
}

// GetRequest returns a purchase request with items.
func (s *Service) GetRequest(ctx context.Context, requestID id.ID) (*PurchaseRequest, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	return s.requests.GetByID(ctx, requestID)
}

// ListRequests returns purchase requests, newest first.
func (s *Service) ListRequests(ctx context.Context, filter RequestFilter) (domain.ListResult[*PurchaseRequest], error) {
	if _, err := requireStaff(ctx); err != nil {
		return domain.ListResult[*PurchaseRequest]{}, err
	}
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.requests.List(ctx, filter)
}

// SetRequestStatus moves a PENDING purchase request to IN_PROGRESS or DONE.
// Procurement roles only.
func (s *Service) SetRequestStatus(ctx context.Context, requestID id.ID, target RequestStatus) (*PurchaseRequest, error) {
	scope := security.GetScope(ctx)
	if err := scope.RequireProcurement(); err != nil {
		return nil, err
	}

	var pr *PurchaseRequest
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		pr, err = s.requests.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		from := pr.Status
		if err := pr.Decide(target); err != nil {
			return err
		}
		if err := s.requests.Update(ctx, pr); err != nil {
			return fmt.Errorf("update purchase request: %w", err)
		}
		return s.record(ctx, "purchase_request", pr.ID, audit.ActionStatusChanged, map[string]any{"from": from, "to": target})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase request status changed", "purchase_request_id", requestID, "status", target)
	return pr, nil
}

func (s *Service) record(ctx context.Context, entityType string, entityID id.ID, action audit.Action, changes map[string]any) error {
	if err := s.audit.Record(ctx, audit.Record{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
	}); err != nil {
		return fmt.Errorf("audit %s: %w", entityType, err)
	}
	return nil
}
