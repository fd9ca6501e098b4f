// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"stockflow/internal/app"
	"stockflow/internal/domain/auth"
	"stockflow/internal/infrastructure/http/v1/handlers"
	"stockflow/internal/infrastructure/http/v1/middleware"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	App     string
	Version string

	// Logger for request logging
	Logger *logger.Logger

	// Services is the wired domain service graph
	Services *app.Services

	// AuthService validates tokens and resolves roles
	AuthService *auth.Service

	// CookieName is the session cookie read when no bearer token is sent
	CookieName string

	// IdempotencyStore backs X-Idempotency-Key replay; nil disables it
	IdempotencyStore *postgres.IdempotencyStore

	// Gzip compresses JSON responses
	Gzip bool

	// MaxUploadBytes caps request bodies; zero means unlimited
	MaxUploadBytes int64

	// HealthChecks are probed by /health/ready
	HealthChecks map[string]handlers.Check

	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	if cfg.Gzip {
		router.Use(gzip.Gzip(gzip.DefaultCompression,
			gzip.WithExcludedExtensions([]string{".pdf", ".xlsx"}),
			gzip.WithExcludedPaths([]string{"/health"})))
	}
	if cfg.MaxUploadBytes > 0 {
		router.Use(middleware.BodyLimit(cfg.MaxUploadBytes))
	}

	healthHandler := handlers.NewHealthHandler(cfg.App, cfg.Version, cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.AuthService, cfg.CookieName)) // 1. Validate token, resolve role
		protected.Use(middleware.AccessScope())                         // 2. Access scope for the domain layer
		if cfg.IdempotencyStore != nil {
			protected.Use(middleware.Idempotency(cfg.IdempotencyStore))
		}

		registerCatalogRoutes(protected, cfg)
		registerWarehouseRoutes(protected, cfg)
		registerProcurementRoutes(protected, cfg)
		registerReportRoutes(protected, cfg)

		auditHandler := handlers.NewAuditHandler(handlers.NewBaseHandler(), cfg.Services.Audit)
		protected.GET("/audit/:entityType/:id", auditHandler.History)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints. /auth/verify reads
// the token itself so it answers 401 in the body instead of being rejected
// by the auth middleware.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	authHandler := handlers.NewAuthHandler(handlers.NewBaseHandler(), cfg.AuthService, cfg.CookieName)

	group := rg.Group("/auth")
	group.POST("/verify", authHandler.Verify)

	protected := rg.Group("/auth")
	protected.Use(middleware.Auth(cfg.AuthService, cfg.CookieName))
	protected.GET("/me", authHandler.Me)
}

// registerCatalogRoutes registers locations, categories, products and suppliers.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()
	svc := cfg.Services

	// --- LOCATIONS ---
	{
		handler := handlers.NewLocationHandler(base, svc.Locations)
		group := rg.Group("/locations")
		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.GET("/my", handler.My)
		group.PUT("/:id", handler.Update)
		group.GET("/:id/supervisors", handler.Supervisors)
		group.POST("/:id/supervisors", handler.Assign)
		group.DELETE("/:id/supervisors/:username", handler.Unassign)
	}

	// --- CATEGORIES ---
	{
		handler := handlers.NewCategoryHandler(base, svc.Categories)
		group := rg.Group("/categories")
		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.PUT("/:id", handler.Rename)
		group.DELETE("/:id", handler.Delete)
	}

	// --- PRODUCTS ---
	{
		handler := handlers.NewProductHandler(base, svc.Products)
		group := rg.Group("/products")
		RegisterCatalogRoutes(group, handler)
		group.POST("/import", handler.Import)
	}

	// --- SUPPLIERS ---
	{
		handler := handlers.NewSupplierHandler(base, svc.Suppliers)
		group := rg.Group("/suppliers")
		RegisterCatalogRoutes(group, handler)
		group.GET("/:id", handler.Get)
		group.GET("/:id/prices", handler.Prices)
		group.POST("/:id/prices", handler.SetPrice)
	}
}

// registerWarehouseRoutes registers the ledger, replenishment and stocktake endpoints.
func registerWarehouseRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()
	svc := cfg.Services

	stockHandler := handlers.NewStockHandler(base, svc.Ledger)
	stock := rg.Group("/stock")
	{
		stock.GET("", stockHandler.List)
		stock.GET("/low", stockHandler.Low)
		stock.PUT("/initial", stockHandler.SetInitial)
		stock.PUT("/limits", stockHandler.SetLimits)
	}

	warehouse := rg.Group("/warehouse")

	requestHandler := handlers.NewRequestHandler(base, svc.Replenishment, svc.Ledger)
	requests := warehouse.Group("/requests")
	{
		requests.GET("", requestHandler.List)
		requests.POST("", requestHandler.Create)
		requests.GET("/autofill/:locationId", requestHandler.Autofill)
		requests.GET("/:id", requestHandler.Get)
		requests.PATCH("/:id/status", requestHandler.SetStatus)
		requests.GET("/:id/issues", requestHandler.Issues)
	}
	warehouse.POST("/issues", requestHandler.Issue)

	inventoryHandler := handlers.NewInventoryHandler(base, svc.Stocktake)
	inventory := warehouse.Group("/inventory")
	{
		inventory.GET("", inventoryHandler.List)
		inventory.POST("", inventoryHandler.Start)
		inventory.GET("/:id", inventoryHandler.Get)
		inventory.PUT("/:id/items", inventoryHandler.UpdateItems)
		inventory.POST("/:id/close", inventoryHandler.Close)
	}
}

// registerProcurementRoutes registers purchase request and purchase order endpoints.
func registerProcurementRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewProcurementHandler(handlers.NewBaseHandler(), cfg.Services.Procurement)
	procurement := rg.Group("/procurement")

	requests := procurement.Group("/purchase-requests")
	{
		requests.GET("", handler.ListRequests)
		requests.POST("", handler.CreateRequest)
		requests.GET("/:id", handler.GetRequest)
		requests.PATCH("/:id/status", handler.SetRequestStatus)
	}

	orders := procurement.Group("/purchase-orders")
	{
		orders.GET("", handler.ListOrders)
		orders.POST("", handler.CreateOrder)
		orders.GET("/:id", handler.GetOrder)
		orders.PUT("/:id", handler.UpdateOrder)
		orders.GET("/:id/pdf", handler.PDF)
		orders.POST("/:id/send", handler.Send)
		orders.POST("/:id/receive", handler.Receive)
		orders.GET("/:id/receipts", handler.Receipts)
		orders.POST("/:id/close", handler.Close)
	}
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewReportsHandler(handlers.NewBaseHandler(), cfg.Services.Reports)

	reportsGroup := rg.Group("/reports")
	reportsGroup.GET("/stock", handler.Stock)
	reportsGroup.GET("/consumption", handler.Consumption)
	reportsGroup.GET("/purchases", handler.Purchases)
	reportsGroup.GET("/requests", handler.Requests)
	reportsGroup.GET("/stock/export", handler.ExportStock)
	reportsGroup.GET("/consumption/export", handler.ExportConsumption)
	reportsGroup.GET("/purchases/export", handler.ExportPurchases)
}
