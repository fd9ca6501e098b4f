// Package main provides the operations CLI.
// Usage: admin migrate [up|down|status]
//        admin check
//        admin sequence set <year> <next>
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"stockflow/internal/app"
	"stockflow/internal/config"
	"stockflow/internal/core/id"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/pkg/logger"
)

const migrationsDir = "db/migrations"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(logger.Nop())

	ctx := context.Background()

	switch os.Args[1] {
	case "migrate":
		migrate(cfg, os.Args[2:])
	case "check":
		check(ctx, cfg)
	case "sequence":
		sequence(ctx, cfg, os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`StockFlow operations CLI

Usage:
  admin <command> [options]

Commands:
  migrate   Apply database migrations with goose (up, down, status)
  check     Verify database connectivity and the warehouse location
  sequence  Seed the purchase order counter (set <year> <next> | set <last-number>)
  help      Show this help

Environment Variables:
  DATABASE_URL            Connection string (required)
  WAREHOUSE_LOCATION_ID   Central warehouse location id (check)

Examples:
  admin migrate
  admin migrate status
  admin check
  admin sequence set 2026 120
  admin sequence set PO-2026-0119`)
}

func migrate(cfg *config.Config, args []string) {
	if cfg.Database.DSN == "" {
		fmt.Println("Error: DATABASE_URL is required")
		os.Exit(1)
	}

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}
	switch command {
	case "up", "down", "status":
	default:
		fmt.Printf("Error: unknown migrate command %q\n", command)
		os.Exit(1)
	}

	fmt.Printf("Running goose %s on %s...\n", command, migrationsDir)
	cmd := exec.Command("goose", "-dir", migrationsDir, "postgres", cfg.Database.DSN, command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Printf("  ✗ Failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("  ✓ Done")
}

func check(ctx context.Context, cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	warehouseID, err := id.Parse(cfg.Warehouse.LocationID)
	if err != nil {
		fmt.Printf("Error: invalid warehouse.location_id: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN))
	if err != nil {
		fmt.Printf("  ✗ Database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	fmt.Println("  ✓ Database reachable")

	services, err := app.NewServices(app.Deps{
		TxManager:    postgres.NewTxManager(pool),
		WarehouseID:  warehouseID,
		LowStockRule: cfg.Notify.LowStockRule,
	})
	if err != nil {
		fmt.Printf("  ✗ Services: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("  ✓ Low stock rule compiles")

	if err := services.CheckWarehouse(ctx); err != nil {
		fmt.Printf("  ✗ Warehouse: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  ✓ Warehouse %s\n", warehouseID)
}
