package stocktake

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
	"stockflow/pkg/logger"
)

// Locations resolves location references.
type Locations interface {
	GetByID(ctx context.Context, id id.ID) (*location.Location, error)
}

// Snapshots reads the ledger rows of a location.
type Snapshots interface {
	ListByLocation(ctx context.Context, locationID id.ID) ([]ledger.StockItem, error)
}

// ServiceConfig wires a stocktake Service.
type ServiceConfig struct {
	Repo      Repository
	Snapshots Snapshots
	Engine    *ledger.Engine
	Locations Locations
	Guard     *access.Guard
	TxManager tx.Manager
	Audit     audit.Recorder

	// Now defaults to time.Now
	Now func() time.Time
}

// Service runs inventory counts.
type Service struct {
	repo      Repository
	snapshots Snapshots
	engine    *ledger.Engine
	locations Locations
	guard     *access.Guard
	txManager tx.Manager
	audit     audit.Recorder
	now       func() time.Time
}

// NewService creates a stocktake service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:      cfg.Repo,
		snapshots: cfg.Snapshots,
		engine:    cfg.Engine,
		locations: cfg.Locations,
		guard:     cfg.Guard,
		txManager: cfg.TxManager,
		audit:     cfg.Audit,
		now:       cfg.Now,
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Start snapshots every ledger row of the location into a new count.
// Supervisors must be bound to the location; warehouse roles always pass.
func (s *Service) Start(ctx context.Context, locationID id.ID, note *string) (*Count, error) {
	scope := security.GetScope(ctx)
	if id.IsNil(locationID) {
		return nil, apperror.NewValidation("locationId is required").WithDetail("field", "locationId")
	}
	if err := s.guard.RequireBoundOrWarehouse(ctx, scope, locationID); err != nil {
		return nil, err
	}
	loc, err := s.locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}

	var c *Count
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rows, err := s.snapshots.ListByLocation(ctx, locationID)
		if err != nil {
			return fmt.Errorf("snapshot ledger: %w", err)
		}
		c = NewCount(locationID, scope.Username, note, rows)
		c.LocationName = loc.Name
		if err := s.repo.Create(ctx, c); err != nil {
			return fmt.Errorf("create inventory: %w", err)
		}
		return s.record(ctx, c.ID, audit.ActionCreated, map[string]any{"items": len(c.Items), "location_id": locationID})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory started", "inventory_id", c.ID, "location_id", locationID, "items", len(c.Items))
	return c, nil
}

// Get returns a count with items. Supervisors only see bound locations.
func (s *Service) Get(ctx context.Context, countID id.ID) (*Count, error) {
	c, err := s.repo.GetByID(ctx, countID)
	if err != nil {
		return nil, err
	}
	scope := security.GetScope(ctx)
	vis, err := s.guard.Visible(ctx, scope)
	if err != nil {
		return nil, err
	}
	if !vis.Allows(c.LocationID) {
		return nil, apperror.NewLocationNotAssigned(scope.Username, c.LocationID)
	}
	return c, nil
}

// List returns counts. Supervisors only see bound locations.
func (s *Service) List(ctx context.Context, locationID *id.ID, filter ListFilter) (domain.ListResult[*Count], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	vis, err := s.guard.Narrow(ctx, security.GetScope(ctx), locationID)
	if err != nil {
		return domain.ListResult[*Count]{}, err
	}
	if vis.Empty() {
		return domain.NewListResult[*Count](nil, 0, filter.ListFilter), nil
	}
	if !vis.All {
		filter.LocationIDs = vis.IDs
	}
	return s.repo.List(ctx, filter)
}

// UpdateActuals records counted quantities while the count is IN_PROGRESS.
func (s *Service) UpdateActuals(ctx context.Context, countID id.ID, lines []ActualLine) (*Count, error) {
	scope := security.GetScope(ctx)
	if !scope.Authenticated() {
		return nil, apperror.NewUnauthorized("authentication required")
	}

	var c *Count
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetForUpdate(ctx, countID)
		if err != nil {
			return err
		}
		if err := s.guard.RequireBoundOrWarehouse(ctx, scope, c.LocationID); err != nil {
			return err
		}
		touched, err := c.SetActuals(lines)
		if err != nil {
			return err
		}
		if err := s.repo.SaveActuals(ctx, touched); err != nil {
			return fmt.Errorf("save actuals: %w", err)
		}
		return s.record(ctx, c.ID, audit.ActionCounted, map[string]any{"items": len(touched)})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory items updated", "inventory_id", countID, "items", len(lines), "missing", c.Missing())
	return c, nil
}

// Close overwrites the ledger with every counted quantity and completes the
// count. Warehouse roles only.
func (s *Service) Close(ctx context.Context, countID id.ID) (*Count, error) {
	if err := security.GetScope(ctx).RequireWarehouse(); err != nil {
		return nil, err
	}

	var c *Count
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetForUpdate(ctx, countID)
		if err != nil {
			return err
		}
		if err := c.Complete(s.now().UTC()); err != nil {
			return err
		}

		for _, item := range c.Items {
			current, err := s.engine.Lock(ctx, c.LocationID, item.ProductID)
			if err != nil {
				return err
			}
			if current != item.SystemQty {
				logger.Warn(ctx, "ledger moved during inventory, counted value overwrites it",
					"inventory_id", c.ID,
					"location_id", c.LocationID,
					"product_id", item.ProductID,
					"system_qty", item.SystemQty.String(),
					"current_qty", current.String(),
					"actual_qty", item.ActualQty.String())
			}
			if _, err := s.engine.SetAbsolute(ctx, c.LocationID, item.ProductID, *item.ActualQty); err != nil {
				return err
			}
		}

		if err := s.repo.Complete(ctx, c); err != nil {
			return fmt.Errorf("complete inventory: %w", err)
		}
		return s.record(ctx, c.ID, audit.ActionClosed, map[string]any{"items": len(c.Items)})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory closed", "inventory_id", countID, "items", len(c.Items))
	return c, nil
}

func (s *Service) record(ctx context.Context, countID id.ID, action audit.Action, changes map[string]any) error {
	if err := s.audit.Record(ctx, audit.Record{
		EntityType: "inventory",
		EntityID:   countID,
		Action:     action,
		Changes:    changes,
	}); err != nil {
		return fmt.Errorf("audit inventory: %w", err)
	}
	return nil
}
