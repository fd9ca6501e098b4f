package reports

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/access"
)

// Service provides report generation operations.
type Service struct {
	repo  Repository
	guard *access.Guard
}

// NewService creates a new reports service.
func NewService(repo Repository, guard *access.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

func (p Period) validate() error {
	if p.From != nil && p.To != nil && p.From.After(*p.To) {
		return apperror.NewValidation("startDate must not be after endDate").WithDetail("field", "startDate")
	}
	return nil
}

// narrow applies supervisor visibility. ok is false when nothing is visible.
func (s *Service) narrow(ctx context.Context, requested *id.ID) (ids []id.ID, ok bool, err error) {
	vis, err := s.guard.Narrow(ctx, security.GetScope(ctx), requested)
	if err != nil {
		return nil, false, err
	}
	if vis.Empty() {
		return nil, false, nil
	}
	if vis.All {
		return nil, true, nil
	}
	return vis.IDs, true, nil
}

// Stock reports current ledger rows. Supervisors see bound locations only.
func (s *Service) Stock(ctx context.Context, locationID, categoryID *id.ID) (*StockReport, error) {
	report := &StockReport{GeneratedAt: time.Now().UTC(), Items: []StockRow{}}
	ids, ok, err := s.narrow(ctx, locationID)
	if err != nil || !ok {
		return report, err
	}
	rows, err := s.repo.StockRows(ctx, StockFilter{LocationIDs: ids, CategoryID: categoryID})
	if err != nil {
		return nil, fmt.Errorf("get stock report: %w", err)
	}
	if rows != nil {
		report.Items = rows
	}
	report.TotalItems = len(report.Items)
	return report, nil
}

// Consumption reports issue records in the period with per-product totals.
func (s *Service) Consumption(ctx context.Context, period Period, locationID *id.ID) (*ConsumptionReport, error) {
	if err := period.validate(); err != nil {
		return nil, err
	}
	report := &ConsumptionReport{Period: period, Items: []ConsumptionRow{}, Totals: []ConsumptionTotal{}}
	ids, ok, err := s.narrow(ctx, locationID)
	if err != nil || !ok {
		return report, err
	}
	rows, err := s.repo.ConsumptionRows(ctx, ConsumptionFilter{Period: period, LocationIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("get consumption report: %w", err)
	}
	if rows != nil {
		report.Items = rows
	}
	report.Totals = ConsumptionTotals(report.Items)
	return report, nil
}

// ConsumptionTotals sums quantities per product in first-seen order.
func ConsumptionTotals(rows []ConsumptionRow) []ConsumptionTotal {
	index := make(map[id.ID]int)
	totals := make([]ConsumptionTotal, 0)
	for _, r := range rows {
		pos, seen := index[r.ProductID]
		if !seen {
			pos = len(totals)
			index[r.ProductID] = pos
			totals = append(totals, ConsumptionTotal{ProductID: r.ProductID, ProductName: r.ProductName, Unit: r.Unit})
		}
		totals[pos].Quantity += r.Quantity
	}
	return totals
}

// Purchases reports purchase order lines in the period. Supervisors are refused.
func (s *Service) Purchases(ctx context.Context, filter PurchaseFilter) (*PurchaseReport, error) {
	scope := security.GetScope(ctx)
	if !scope.Authenticated() {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	if scope.Role.IsSupervisor() {
		return nil, apperror.NewForbidden("insufficient permissions").WithDetail("role", scope.Role)
	}
	if err := filter.validate(); err != nil {
		return nil, err
	}
	rows, err := s.repo.PurchaseRows(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get purchases report: %w", err)
	}
	report := &PurchaseReport{Period: filter.Period, Items: []PurchaseRow{}, TotalAmount: types.Zero()}
	if rows != nil {
		report.Items = rows
	}
	orders := make(map[id.ID]struct{})
	for _, r := range report.Items {
		orders[r.POID] = struct{}{}
		report.TotalAmount = report.TotalAmount.Add(r.TotalPrice)
	}
	report.OrdersCount = len(orders)
	return report, nil
}

// Requests reports replenishment requests in the period. Supervisors see
// bound locations only.
func (s *Service) Requests(ctx context.Context, period Period, locationID *id.ID, status string) (*RequestReport, error) {
	if err := period.validate(); err != nil {
		return nil, err
	}
	report := &RequestReport{Period: period, Items: []RequestRow{}, ByStatus: map[string]int{}}
	ids, ok, err := s.narrow(ctx, locationID)
	if err != nil || !ok {
		return report, err
	}
	rows, err := s.repo.RequestRows(ctx, RequestFilter{Period: period, LocationIDs: ids, Status: status})
	if err != nil {
		return nil, fmt.Errorf("get requests report: %w", err)
	}
	if rows != nil {
		report.Items = rows
	}
	for _, r := range report.Items {
		report.ByStatus[r.Status]++
	}
	return report, nil
}
