// Package main is the entry point for the StockFlow API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stockflow/internal/app"
	"stockflow/internal/config"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/auth"
	"stockflow/internal/infrastructure/cache"
	v1 "stockflow/internal/infrastructure/http/v1"
	"stockflow/internal/infrastructure/http/v1/handlers"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development || cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}
	warehouseID, err := id.Parse(cfg.Warehouse.LocationID)
	if err != nil {
		log.Fatalw("invalid warehouse.location_id", "value", cfg.Warehouse.LocationID, "error", err)
	}

	ctx := context.Background()
	log.Infow("starting stockflow server", "version", cfg.App.Version, "env", cfg.App.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.ApplicationName = "stockflow-api"
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	txManager := postgres.NewTxManager(pool)

	// --- External adapters ---
	infra, err := app.NewInfra(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize adapters", "error", err)
	}
	defer infra.Close()

	// --- Services ---
	services, err := app.NewServices(app.Deps{
		TxManager:    txManager,
		WarehouseID:  warehouseID,
		LowStockRule: cfg.Notify.LowStockRule,
		Renderer:     infra.PDF,
		Senders:      infra.Senders(),
		Photos:       infra.PhotoStore(),
	})
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}
	if err := services.CheckWarehouse(ctx); err != nil {
		log.Fatalw("warehouse location check failed", "error", err)
	}

	// --- Auth ---
	roles, err := infra.RoleResolver(cfg)
	if err != nil {
		log.Fatalw("failed to create identity client", "error", err)
	}
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.Auth.JWTSecret))
	authService := auth.NewService(jwtService, roles)

	var idempotency *postgres.IdempotencyStore
	if cfg.Idempotency.Enabled {
		idempotency = postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL)
	}

	checks := map[string]handlers.Check{
		"database": func(ctx context.Context) error { return pool.Ping(ctx) },
	}
	if infra.Redis != nil {
		checks["redis"] = cache.Ping(infra.Redis)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		App:              cfg.App.Name,
		Version:          cfg.App.Version,
		Logger:           log,
		Services:         services,
		AuthService:      authService,
		CookieName:       cfg.Auth.CookieName,
		IdempotencyStore: idempotency,
		Gzip:             cfg.Server.Gzip,
		MaxUploadBytes:   cfg.Server.MaxUploadBytes,
		HealthChecks:     checks,
		Development:      cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
