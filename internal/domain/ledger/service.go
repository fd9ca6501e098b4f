package ledger

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
	"stockflow/internal/core/tx"
	"stockflow/internal/domain/access"
	"stockflow/internal/domain/audit"
	"stockflow/internal/domain/catalogs/location"
	"stockflow/internal/domain/notify"
	"stockflow/pkg/logger"
)

// Locations resolves location references.
type Locations interface {
	GetByID(ctx context.Context, id id.ID) (*location.Location, error)
}

// ServiceConfig wires a ledger Service.
type ServiceConfig struct {
	Repo        Repository
	Engine      *Engine
	Locations   Locations
	Guard       *access.Guard
	TxManager   tx.Manager
	Publisher   notify.Publisher
	Audit       audit.Recorder
	Rule        *LowStockRule
	WarehouseID id.ID
}

// Service exposes ledger reads and the administrative stock operations.
type Service struct {
	repo        Repository
	engine      *Engine
	locations   Locations
	guard       *access.Guard
	txManager   tx.Manager
	publisher   notify.Publisher
	audit       audit.Recorder
	rule        *LowStockRule
	warehouseID id.ID
}

// NewService creates a ledger service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:        cfg.Repo,
		engine:      cfg.Engine,
		locations:   cfg.Locations,
		guard:       cfg.Guard,
		txManager:   cfg.TxManager,
		publisher:   cfg.Publisher,
		audit:       cfg.Audit,
		rule:        cfg.Rule,
		warehouseID: cfg.WarehouseID,
	}
	if s.engine == nil {
		s.engine = NewEngine(cfg.Repo)
	}
	if s.publisher == nil {
		s.publisher = notify.NopPublisher{}
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.rule == nil {
		s.rule = MustLowStockRule(DefaultLowStockRule)
	}
	return s
}

// Engine returns the transfer engine shared with the workflows.
func (s *Service) Engine() *Engine { return s.engine }

// WarehouseID returns the configured hub location.
func (s *Service) WarehouseID() id.ID { return s.warehouseID }

// List returns ledger rows. Supervisors only see their bound locations, and
// asking for another location fails with LOCATION_NOT_ASSIGNED.
func (s *Service) List(ctx context.Context, locationID *id.ID, filter Filter) ([]StockView, error) {
	vis, err := s.guard.Narrow(ctx, security.GetScope(ctx), locationID)
	if err != nil {
		return nil, err
	}
	if vis.Empty() {
		return []StockView{}, nil
	}
	if !vis.All {
		filter.LocationIDs = vis.IDs
	}
	return s.repo.List(ctx, filter)
}

// Low returns rows matching the low-stock rule. Warehouse roles only.
func (s *Service) Low(ctx context.Context) ([]StockView, error) {
	if err := security.GetScope(ctx).RequireWarehouse(); err != nil {
		return nil, err
	}
	return s.lowStock(ctx)
}

func (s *Service) lowStock(ctx context.Context) ([]StockView, error) {
	low, _, err := s.classify(ctx)
	return low, err
}

// classify splits the candidates into rows matching the rule and rows that
// no longer match but still carry a notification marker.
func (s *Service) classify(ctx context.Context) (low, recovered []StockView, err error) {
	candidates, err := s.repo.LowStockCandidates(ctx, s.warehouseID)
	if err != nil {
		return nil, nil, fmt.Errorf("list low stock candidates: %w", err)
	}
	low = make([]StockView, 0, len(candidates))
	for _, row := range candidates {
		matches, err := s.rule.Matches(row.StockItem)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case matches:
			low = append(low, row)
		case row.LowNotifiedAt != nil:
			recovered = append(recovered, row)
		}
	}
	return low, recovered, nil
}

// ScanLowStock publishes a LOW_STOCK notification for rows that became low
// since the last scan. A row is announced once; its marker is cleared when
// the rule stops matching, so a later drop is announced again. The worker
// calls it periodically without an actor. Returns the number of events.
func (s *Service) ScanLowStock(ctx context.Context) (int, error) {
	var published int
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		published = 0
		low, recovered, err := s.classify(ctx)
		if err != nil {
			return err
		}

		cleared := make([]id.ID, 0, len(recovered))
		for _, row := range recovered {
			cleared = append(cleared, row.ID)
		}
		if err := s.repo.ClearLowNotified(ctx, cleared); err != nil {
			return err
		}

		marked := make([]id.ID, 0, len(low))
		for _, row := range low {
			if row.LowNotifiedAt != nil {
				continue
			}
			event := notify.Event{
				Type:          notify.EventLowStock,
				AggregateType: notify.AggregateStockItem,
				AggregateID:   row.ID,
				Payload: notify.LowStock{
					LocationName: row.LocationName,
					ProductName:  row.ProductName,
					CategoryName: row.CategoryName,
					Unit:         row.Unit,
					Quantity:     row.Quantity,
					LimitQty:     row.LimitQty,
				},
			}
			if err := s.publisher.Publish(ctx, event); err != nil {
				return fmt.Errorf("publish low stock: %w", err)
			}
			marked = append(marked, row.ID)
		}
		published = len(marked)
		return s.repo.MarkLowNotified(ctx, marked, time.Now().UTC())
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}

// SetInitialStock overwrites opening quantities. ADMIN only. Invalid lines
// are reported and skipped; storage failures abort the whole batch.
func (s *Service) SetInitialStock(ctx context.Context, lines []InitialLine) ([]LineResult, error) {
	if err := security.GetScope(ctx).RequireRole(security.RoleAdmin); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperror.NewValidation("items array is required").WithDetail("field", "items")
	}

	results := make([]LineResult, 0, len(lines))
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		results = results[:0]
		for _, line := range lines {
			res := LineResult{LocationID: line.LocationID, ProductID: line.ProductID, Quantity: line.Quantity}
			switch {
			case id.IsNil(line.LocationID) || id.IsNil(line.ProductID):
				res.Reason = ReasonMissingFields
			case line.Quantity.IsNegative():
				res.Reason = ReasonNegativeQuantity
			}
			if res.Reason == "" {
				if _, err := s.locations.GetByID(ctx, line.LocationID); err != nil {
					if !apperror.IsNotFound(err) {
						return err
					}
					res.Reason = ReasonLocationNotFound
				}
			}
			if res.Reason != "" {
				results = append(results, res)
				continue
			}

			qty, err := s.engine.SetAbsolute(ctx, line.LocationID, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			res.Applied = true
			res.Quantity = qty
			results = append(results, res)
		}
		return s.audit.Record(ctx, audit.Record{
			EntityType: "stock",
			EntityID:   s.warehouseID,
			Action:     audit.ActionStockSet,
			Changes:    map[string]any{"lines": results},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "initial stock set", "lines", len(lines), "applied", countApplied(results))
	return results, nil
}

// SetLimits sets replenishment ceilings on SITE rows. ADMIN only.
func (s *Service) SetLimits(ctx context.Context, lines []LimitLine) ([]LineResult, error) {
	if err := security.GetScope(ctx).RequireRole(security.RoleAdmin); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperror.NewValidation("items array is required").WithDetail("field", "items")
	}

	results := make([]LineResult, 0, len(lines))
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		results = results[:0]
		for _, line := range lines {
			res := LineResult{LocationID: line.LocationID, ProductID: line.ProductID, Quantity: line.LimitQty}
			switch {
			case id.IsNil(line.LocationID) || id.IsNil(line.ProductID):
				res.Reason = ReasonMissingFields
			case line.LimitQty.IsNegative():
				res.Reason = ReasonNegativeQuantity
			}
			if res.Reason == "" {
				loc, err := s.locations.GetByID(ctx, line.LocationID)
				switch {
				case apperror.IsNotFound(err):
					res.Reason = ReasonLocationNotFound
				case err != nil:
					return err
				case !loc.IsSite():
					res.Reason = ReasonNotASite
				}
			}
			if res.Reason != "" {
				results = append(results, res)
				continue
			}

			limit := line.LimitQty
			if err := s.repo.SetLimit(ctx, line.LocationID, line.ProductID, &limit); err != nil {
				return fmt.Errorf("set limit: %w", err)
			}
			res.Applied = true
			results = append(results, res)
		}
		return s.audit.Record(ctx, audit.Record{
			EntityType: "stock",
			EntityID:   s.warehouseID,
			Action:     audit.ActionLimitSet,
			Changes:    map[string]any{"lines": results},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "limits set", "lines", len(lines), "applied", countApplied(results))
	return results, nil
}

// Autofill suggests per-product quantities that bring a site to its limits.
func (s *Service) Autofill(ctx context.Context, siteID id.ID) ([]AutofillLine, error) {
	if err := s.guard.RequireBoundOrWarehouse(ctx, security.GetScope(ctx), siteID); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, Filter{LocationIDs: []id.ID{siteID}, WithLimit: true})
	if err != nil {
		return nil, err
	}
	return Autofill(rows), nil
}

func countApplied(results []LineResult) int {
	n := 0
	for _, r := range results {
		if r.Applied {
			n++
		}
	}
	return n
}
