package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"stockflow/internal/config"
	corenumerator "stockflow/internal/core/numerator"
	"stockflow/internal/infrastructure/numerator"
	"stockflow/internal/infrastructure/storage/postgres"
)

// sequenceArgs is a parsed "sequence set" command line.
type sequenceArgs struct {
	year int
	next int64
}

// parseSequenceArgs accepts "set <year> <next>" or "set <last-issued-number>",
// e.g. "set 2026 120" or "set PO-2026-0119".
func parseSequenceArgs(cfg corenumerator.Config, args []string) (sequenceArgs, error) {
	if len(args) == 0 || args[0] != "set" {
		return sequenceArgs{}, fmt.Errorf("usage: admin sequence set <year> <next> | set <last-number>")
	}
	switch len(args) {
	case 2:
		year, last, err := cfg.Parse(args[1])
		if err != nil {
			return sequenceArgs{}, err
		}
		return sequenceArgs{year: year, next: last + 1}, nil
	case 3:
		year, err := strconv.Atoi(args[1])
		if err != nil || year < 1 {
			return sequenceArgs{}, fmt.Errorf("invalid year %q", args[1])
		}
		next, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil || next < 1 {
			return sequenceArgs{}, fmt.Errorf("invalid next number %q", args[2])
		}
		return sequenceArgs{year: year, next: next}, nil
	default:
		return sequenceArgs{}, fmt.Errorf("usage: admin sequence set <year> <next> | set <last-number>")
	}
}

// sequence seeds the purchase order counter, e.g. after importing orders
// numbered by a previous system.
func sequence(ctx context.Context, cfg *config.Config, args []string) {
	if cfg.Database.DSN == "" {
		fmt.Println("Error: DATABASE_URL is required")
		os.Exit(1)
	}
	numberCfg := corenumerator.PurchaseOrderConfig()
	parsed, err := parseSequenceArgs(numberCfg, args)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
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

	period := time.Date(parsed.year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if err := numerator.New(postgres.NewTxManager(pool)).SetNextNumber(ctx, numberCfg, period, parsed.next); err != nil {
		fmt.Printf("  ✗ Failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  ✓ Next purchase order: %s\n", numberCfg.Format(period, parsed.next))
}
