package replenishment

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
	"stockflow/internal/core/tx"
	"stockflow/internal/domain"
	"stockflow/internal/domain/access"
	"stockflow/internal/domain/audit"
	"stockflow/internal/domain/catalogs/location"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/domain/notify"
	"stockflow/pkg/logger"
)

// Locations resolves location references.
type Locations interface {
	GetByID(ctx context.Context, id id.ID) (*location.Location, error)
}

// ServiceConfig wires a replenishment Service.
type ServiceConfig struct {
	Repo        Repository
	Engine      *ledger.Engine
	Locations   Locations
	Guard       *access.Guard
	TxManager   tx.Manager
	Publisher   notify.Publisher
	Audit       audit.Recorder
	WarehouseID id.ID
}

// Service runs the replenishment workflow.
type Service struct {
	repo        Repository
	engine      *ledger.Engine
	locations   Locations
	guard       *access.Guard
	txManager   tx.Manager
	publisher   notify.Publisher
	audit       audit.Recorder
	warehouseID id.ID
}

// NewService creates a replenishment service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:        cfg.Repo,
		engine:      cfg.Engine,
		locations:   cfg.Locations,
		guard:       cfg.Guard,
		txManager:   cfg.TxManager,
		publisher:   cfg.Publisher,
		audit:       cfg.Audit,
		warehouseID: cfg.WarehouseID,
	}
	if s.publisher == nil {
		s.publisher = notify.NopPublisher{}
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	return s
}

// Create opens a PENDING request for a SITE the actor is bound to.
func (s *Service) Create(ctx context.Context, locationID id.ID, lines []Line, note *string) (*Request, error) {
	scope := security.GetScope(ctx)
	if !scope.Authenticated() {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	req := NewRequest(locationID, scope.Username, note, lines)
	if err := req.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.guard.RequireBound(ctx, scope, locationID); err != nil {
		return nil, err
	}
	loc, err := s.locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if !loc.IsSite() {
		return nil, apperror.NewValidation("requests can only target SITE locations").
			WithDetail("field", "locationId")
	}
	req.LocationName = loc.Name

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if err := s.record(ctx, req.ID, audit.ActionCreated, map[string]any{"items": len(req.Items)}); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, notify.Event{
			Type:          notify.EventRequestCreated,
			AggregateType: notify.AggregateRequest,
			AggregateID:   req.ID,
			Payload: notify.RequestCreated{
				RequestID:    req.ID,
				LocationName: loc.Name,
				ItemsCount:   len(req.Items),
				CreatedBy:    scope.Username,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "request created", "request_id", req.ID, "location_id", locationID, "items", len(req.Items))
	return req, nil
}

// Get returns a request with items. Supervisors only see bound locations.
func (s *Service) Get(ctx context.Context, requestID id.ID) (*Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	vis, err := s.guard.Visible(ctx, security.GetScope(ctx))
	if err != nil {
		return nil, err
	}
	if !vis.Allows(req.LocationID) {
		return nil, apperror.NewLocationNotAssigned(security.GetScope(ctx).Username, req.LocationID)
	}
	return req, nil
}

// List returns requests. Supervisors only see bound locations.
func (s *Service) List(ctx context.Context, locationID *id.ID, filter ListFilter) (domain.ListResult[*Request], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	vis, err := s.guard.Narrow(ctx, security.GetScope(ctx), locationID)
	if err != nil {
		return domain.ListResult[*Request]{}, err
	}
	if vis.Empty() {
		return domain.NewListResult[*Request](nil, 0, filter.ListFilter), nil
	}
	if !vis.All {
		filter.LocationIDs = vis.IDs
	}
	return s.repo.List(ctx, filter)
}

// SetStatus approves or rejects a PENDING request. Warehouse roles only.
func (s *Service) SetStatus(ctx context.Context, requestID id.ID, target Status) (*Request, error) {
	scope := security.GetScope(ctx)
	if err := scope.RequireWarehouse(); err != nil {
		return nil, err
	}

	var req *Request
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.repo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		from := req.Status
		if err := req.Decide(target); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, req); err != nil {
			return fmt.Errorf("update request status: %w", err)
		}
		if err := s.record(ctx, req.ID, audit.ActionStatusChanged, map[string]any{"from": from, "to": target}); err != nil {
			return err
		}
		if target != StatusApproved {
			return nil
		}
		return s.publisher.Publish(ctx, notify.Event{
			Type:          notify.EventRequestApproved,
			AggregateType: notify.AggregateRequest,
			AggregateID:   req.ID,
			Payload: notify.RequestApproved{
				RequestID:    req.ID,
				LocationName: req.LocationName,
				ProcessedBy:  scope.Username,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "request status changed", "request_id", requestID, "status", target)
	return req, nil
}

// Issue moves stock from the warehouse to the request's site, line by line
// in input order. Lines that cannot be issued are skipped with a reason; the
// rest commit together with the counters, the issue records and the
// recomputed status. Warehouse roles only.
func (s *Service) Issue(ctx context.Context, requestID id.ID, lines []Line, note *string) (*IssueResult, error) {
	scope := security.GetScope(ctx)
	if err := scope.RequireWarehouse(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperror.NewValidation("items are required").WithDetail("field", "items")
	}

	result := &IssueResult{}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := req.CanIssue(); err != nil {
			return err
		}

		now := time.Now().UTC()
		results := make([]LineResult, 0, len(lines))
		records := make([]IssueRecord, 0, len(lines))
		for _, line := range lines {
			res := LineResult{ProductID: line.ProductID, Quantity: line.Quantity}
			item := req.item(line.ProductID)
			switch {
			case !line.Quantity.IsPositive():
				res.Reason = ReasonNonPositive
			case item == nil:
				res.Reason = ReasonNotOnRequest
			case line.Quantity > item.Remaining():
				res.Reason = ReasonExceedsRemaining
			}
			if res.Reason != "" {
				results = append(results, res)
				continue
			}

			available, err := s.engine.Lock(ctx, s.warehouseID, line.ProductID)
			if err != nil {
				return err
			}
			if available < line.Quantity {
				res.Reason = ReasonInsufficientStock
				res.Available = &available
				results = append(results, res)
				continue
			}

			if err := s.engine.Move(ctx, s.warehouseID, req.LocationID, line.ProductID, line.Quantity); err != nil {
				return err
			}
			item.Issued += line.Quantity
			if err := s.repo.SetIssued(ctx, item.ID, item.Issued); err != nil {
				return fmt.Errorf("update issued: %w", err)
			}
			records = append(records, IssueRecord{
				ID:          id.New(),
				RequestID:   req.ID,
				ProductID:   line.ProductID,
				Quantity:    line.Quantity,
				IssuedBy:    scope.Username,
				Note:        note,
				IssuedAt:    now,
				ProductName: item.ProductName,
			})
			res.Issued = true
			results = append(results, res)
		}

		if len(records) > 0 {
			if err := s.repo.CreateIssueRecords(ctx, records); err != nil {
				return fmt.Errorf("create issue records: %w", err)
			}
		}

		from := req.Status
		if next := RecomputeStatus(req.Status, req.Items); next != from {
			req.Status = next
			req.Touch()
			if err := s.repo.UpdateStatus(ctx, req); err != nil {
				return fmt.Errorf("update request status: %w", err)
			}
		}

		if len(records) > 0 {
			if err := s.record(ctx, req.ID, audit.ActionIssued, map[string]any{
				"lines": results, "from": from, "to": req.Status,
			}); err != nil {
				return err
			}
		}
		if from != StatusFulfilled && req.Status == StatusFulfilled {
			if err := s.publisher.Publish(ctx, notify.Event{
				Type:          notify.EventRequestFulfilled,
				AggregateType: notify.AggregateRequest,
				AggregateID:   req.ID,
				Payload: notify.RequestFulfilled{
					RequestID:    req.ID,
					LocationName: req.LocationName,
					ItemsIssued:  len(req.Items),
				},
			}); err != nil {
				return err
			}
		}

		result.Request = req
		result.Lines = results
		result.Records = records
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "items issued",
		"request_id", requestID,
		"issued", len(result.Records),
		"skipped", len(result.Lines)-len(result.Records),
		"status", result.Request.Status)
	return result, nil
}

// ListIssues returns the issue history of a request.
func (s *Service) ListIssues(ctx context.Context, requestID id.ID) ([]IssueRecord, error) {
	if _, err := s.Get(ctx, requestID); err != nil {
		return nil, err
	}
	return s.repo.ListIssues(ctx, requestID)
}

func (s *Service) record(ctx context.Context, requestID id.ID, action audit.Action, changes map[string]any) error {
	if err := s.audit.Record(ctx, audit.Record{
		EntityType: "request",
		EntityID:   requestID,
		Action:     action,
		Changes:    changes,
	}); err != nil {
		return fmt.Errorf("audit request: %w", err)
	}
	return nil
}
