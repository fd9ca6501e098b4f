// Package main is the entry point for the StockFlow background worker:
// notification delivery, low stock and overdue scans, and table cleanup.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"stockflow/internal/app"
	"stockflow/internal/config"
	"stockflow/internal/core/id"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting stockflow worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.ApplicationName = "stockflow-worker"
	poolCfg.MaxConns = 5
	poolCfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	txManager := postgres.NewTxManager(pool)

	infra, err := app.NewInfra(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize adapters", "error", err)
	}
	defer infra.Close()

	services, err := app.NewServices(app.Deps{
		TxManager:    txManager,
		WarehouseID:  warehouseID,
		LowStockRule: cfg.Notify.LowStockRule,
	})
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	dispatcher := infra.Dispatcher(cfg)
	relay := postgres.NewOutboxRelay(txManager, cfg.Worker.BatchSize,
		postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
			return dispatcher.Dispatch(ctx, msg.EventType, msg.Payload)
		}))

	worker := &Worker{
		Relay:       relay,
		LowStock:    services.Ledger,
		Overdue:     services.Procurement,
		Idempotency: postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL),
		Schedule: Schedule{
			Poll:     cfg.Worker.PollInterval,
			LowStock: cfg.Worker.LowStockInterval,
			Overdue:  cfg.Worker.OverdueInterval,
			Cleanup:  cfg.Worker.CleanupInterval,
		},
		Log: log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}
