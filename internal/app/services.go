// Package app assembles repositories and domain services shared by the
// server and worker processes.
package app

import (
	"context"
	"fmt"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/access"
	"stockflow/internal/domain/catalogs/category"
	"stockflow/internal/domain/catalogs/location"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/domain/catalogs/supplier"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/domain/procurement"
	"stockflow/internal/domain/replenishment"
	"stockflow/internal/domain/reports"
	"stockflow/internal/domain/stocktake"
	"stockflow/internal/infrastructure/numerator"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/internal/infrastructure/storage/postgres/catalog_repo"
	"stockflow/internal/infrastructure/storage/postgres/document_repo"
	"stockflow/internal/infrastructure/storage/postgres/register_repo"
	"stockflow/internal/infrastructure/storage/postgres/report_repo"
)

// Deps are the external collaborators of the service graph. Renderer,
// Senders and Photos may be left empty by processes that do not send or
// receive purchase orders.
type Deps struct {
	TxManager    *postgres.TxManager
	WarehouseID  id.ID
	LowStockRule string

	Renderer procurement.Renderer
	Senders  map[procurement.Method]procurement.Sender
	Photos   procurement.PhotoStore
}

// Services is the wired service graph.
type Services struct {
	Locations     *location.Service
	Categories    *category.Service
	Products      *product.Service
	Suppliers     *supplier.Service
	Ledger        *ledger.Service
	Replenishment *replenishment.Service
	Stocktake     *stocktake.Service
	Procurement   *procurement.Service
	Reports       *reports.Service

	Guard     *access.Guard
	Audit     *postgres.AuditService
	Publisher *postgres.OutboxPublisher

	locationRepo *catalog_repo.LocationRepo
	warehouseID  id.ID
}

// NewServices builds every repository and service over one transaction manager.
func NewServices(d Deps) (*Services, error) {
	if d.TxManager == nil {
		return nil, fmt.Errorf("app: tx manager is required")
	}
	if id.IsNil(d.WarehouseID) {
		return nil, fmt.Errorf("app: warehouse location id is required")
	}

	auditSvc, err := postgres.NewAuditService(d.TxManager)
	if err != nil {
		return nil, fmt.Errorf("audit service: %w", err)
	}
	rule, err := ledger.NewLowStockRule(d.LowStockRule)
	if err != nil {
		return nil, err
	}

	txm := d.TxManager
	publisher := postgres.NewOutboxPublisher(txm)

	locationRepo := catalog_repo.NewLocationRepo(txm)
	categoryRepo := catalog_repo.NewCategoryRepo(txm)
	productRepo := catalog_repo.NewProductRepo(txm)
	supplierRepo := catalog_repo.NewSupplierRepo(txm)
	stockRepo := register_repo.NewStockRepo(txm)

	guard := access.NewGuard(locationRepo)
	engine := ledger.NewEngine(stockRepo)

	locations := location.NewService(locationRepo, auditSvc)
	categories := category.NewService(categoryRepo)
	products := product.NewService(productRepo, categoryRepo, categories, txm)
	suppliers := supplier.NewService(supplierRepo, productRepo)

	s := &Services{
		Locations:  locations,
		Categories: categories,
		Products:   products,
		Suppliers:  suppliers,
		Ledger: ledger.NewService(ledger.ServiceConfig{
			Repo:        stockRepo,
			Engine:      engine,
			Locations:   locationRepo,
			Guard:       guard,
			TxManager:   txm,
			Publisher:   publisher,
			Audit:       auditSvc,
			Rule:        rule,
			WarehouseID: d.WarehouseID,
		}),
		Replenishment: replenishment.NewService(replenishment.ServiceConfig{
			Repo:        document_repo.NewRequestRepo(txm),
			Engine:      engine,
			Locations:   locationRepo,
			Guard:       guard,
			TxManager:   txm,
			Publisher:   publisher,
			Audit:       auditSvc,
			WarehouseID: d.WarehouseID,
		}),
		Stocktake: stocktake.NewService(stocktake.ServiceConfig{
			Repo:      document_repo.NewInventoryRepo(txm),
			Snapshots: stockRepo,
			Engine:    engine,
			Locations: locationRepo,
			Guard:     guard,
			TxManager: txm,
			Audit:     auditSvc,
		}),
		Procurement: procurement.NewService(procurement.ServiceConfig{
			Requests:    document_repo.NewPurchaseRequestRepo(txm),
			Orders:      document_repo.NewPurchaseOrderRepo(txm),
			Suppliers:   supplierRepo,
			Engine:      engine,
			Numbers:     numerator.New(txm),
			TxManager:   txm,
			Publisher:   publisher,
			Audit:       auditSvc,
			Renderer:    d.Renderer,
			Senders:     d.Senders,
			Photos:      d.Photos,
			WarehouseID: d.WarehouseID,
		}),
		Reports: reports.NewService(report_repo.NewReportRepo(txm), guard),

		Guard:     guard,
		Audit:     auditSvc,
		Publisher: publisher,

		locationRepo: locationRepo,
		warehouseID:  d.WarehouseID,
	}
	return s, nil
}

// CheckWarehouse verifies that the configured warehouse exists and has the
// WAREHOUSE type.
func (s *Services) CheckWarehouse(ctx context.Context) error {
	loc, err := s.locationRepo.GetByID(ctx, s.warehouseID)
	if err != nil {
		return fmt.Errorf("warehouse location %s: %w", s.warehouseID, err)
	}
	if !loc.IsWarehouse() {
		return apperror.NewValidation(fmt.Sprintf("location %s is %s, not WAREHOUSE", loc.Name, loc.Type))
	}
	return nil
}
