// Package main seeds a development database with catalogs, locations,
// opening stock and supplier prices, and prints a development token.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"stockflow/internal/config"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/auth"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/pkg/logger"
)

func main() {
	tokenFor := flag.String("token-for", "", "print a development access token for this username")
	flag.Parse()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if cfg.Database.DSN == "" {
		log.Fatal("database.dsn (DATABASE_URL) is required")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	var warehouseID id.ID
	err = pgx.BeginFunc(ctx, pool.Pool, func(tx pgx.Tx) error {
		var err error
		warehouseID, err = seed(ctx, tx, log)
		return err
	})
	if err != nil {
		log.Fatalw("seeding failed", "error", err)
	}

	log.Infow("seeding completed successfully",
		"categories", len(seedCategories),
		"products", len(seedProducts),
		"suppliers", len(seedSuppliers),
		"sites", len(seedSites),
		"warehouse_stock", len(seedWarehouseStock),
		"supplier_prices", len(seedPrices),
	)
	fmt.Printf("WAREHOUSE_LOCATION_ID=%s\n", warehouseID)

	if *tokenFor != "" {
		if cfg.Auth.JWTSecret == "" {
			log.Fatal("auth.jwt_secret (JWT_SECRET) is required to mint a token")
		}
		jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.Auth.JWTSecret))
		token, expiresAt, err := jwtService.GenerateAccessToken(*tokenFor)
		if err != nil {
			log.Fatalw("failed to mint token", "error", err)
		}
		log.Infow("development token minted", "username", *tokenFor, "expires_at", expiresAt)
		fmt.Printf("TOKEN=%s\n", token)
	}
}

func seed(ctx context.Context, tx pgx.Tx, log *logger.Logger) (id.ID, error) {
	categories := make(map[string]id.ID, len(seedCategories))
	for _, name := range seedCategories {
		catID, err := ensure(ctx, tx,
			`SELECT id FROM categories WHERE name = $1`, []any{name},
			`INSERT INTO categories (id, name) VALUES ($1, $2)`, []any{name})
		if err != nil {
			return id.Nil(), fmt.Errorf("category %q: %w", name, err)
		}
		categories[name] = catID
	}
	log.Infow("categories ready", "count", len(categories))

	products := make(map[string]id.ID, len(seedProducts))
	for _, p := range seedProducts {
		prodID, err := ensure(ctx, tx,
			`SELECT id FROM products WHERE name = $1`, []any{p.name},
			`INSERT INTO products (id, name, category_id, unit) VALUES ($1, $2, $3, $4)`,
			[]any{p.name, categories[p.category], p.unit})
		if err != nil {
			return id.Nil(), fmt.Errorf("product %q: %w", p.name, err)
		}
		products[p.name] = prodID
	}
	log.Infow("products ready", "count", len(products))

	suppliers := make(map[string]id.ID, len(seedSuppliers))
	for _, s := range seedSuppliers {
		supID, err := ensure(ctx, tx,
			`SELECT id FROM suppliers WHERE name = $1`, []any{s.name},
			`INSERT INTO suppliers (id, name, contact, phone, email) VALUES ($1, $2, $3, $4, $5)`,
			[]any{s.name, s.contact, s.phone, s.email})
		if err != nil {
			return id.Nil(), fmt.Errorf("supplier %q: %w", s.name, err)
		}
		suppliers[s.name] = supID
	}
	log.Infow("suppliers ready", "count", len(suppliers))

	warehouseID, err := ensureLocation(ctx, tx, seedWarehouse, "WAREHOUSE")
	if err != nil {
		return id.Nil(), err
	}
	if err := upsertStock(ctx, tx, warehouseID, products, seedWarehouseStock); err != nil {
		return id.Nil(), err
	}
	for _, site := range seedSites {
		siteID, err := ensureLocation(ctx, tx, site, "SITE")
		if err != nil {
			return id.Nil(), err
		}
		if err := upsertStock(ctx, tx, siteID, products, seedSiteStock); err != nil {
			return id.Nil(), err
		}
	}
	log.Infow("locations and stock ready", "warehouse_id", warehouseID, "sites", len(seedSites))

	for _, p := range seedPrices {
		supID, okS := suppliers[p.supplier]
		prodID, okP := products[p.product]
		if !okS || !okP {
			log.Warnw("skipping price with unknown reference", "supplier", p.supplier, "product", p.product)
			continue
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO supplier_prices (supplier_id, product_id, price)
			VALUES ($1, $2, $3)
			ON CONFLICT (supplier_id, product_id) DO UPDATE SET price = EXCLUDED.price, updated_at = NOW()
		`, supID, prodID, decimal.RequireFromString(p.price))
		if err != nil {
			return id.Nil(), fmt.Errorf("price %s/%s: %w", p.supplier, p.product, err)
		}
	}
	log.Infow("supplier prices ready", "count", len(seedPrices))

	return warehouseID, nil
}

// ensure returns the id found by selectSQL or inserts a new row with a fresh
// id prepended to insertArgs.
func ensure(ctx context.Context, tx pgx.Tx, selectSQL string, selectArgs []any, insertSQL string, insertArgs []any) (id.ID, error) {
	var existing id.ID
	err := tx.QueryRow(ctx, selectSQL, selectArgs...).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), err
	}

	newID := id.New()
	if _, err := tx.Exec(ctx, insertSQL, append([]any{newID}, insertArgs...)...); err != nil {
		return id.Nil(), err
	}
	return newID, nil
}

func ensureLocation(ctx context.Context, tx pgx.Tx, loc locationSeed, locType string) (id.ID, error) {
	locID, err := ensure(ctx, tx,
		`SELECT id FROM locations WHERE name = $1`, []any{loc.name},
		`INSERT INTO locations (id, name, type, address) VALUES ($1, $2, $3, $4)`,
		[]any{loc.name, locType, loc.address})
	if err != nil {
		return id.Nil(), fmt.Errorf("location %q: %w", loc.name, err)
	}
	return locID, nil
}

func upsertStock(ctx context.Context, tx pgx.Tx, locationID id.ID, products map[string]id.ID, rows []stockSeed) error {
	batch := &pgx.Batch{}
	for _, s := range rows {
		productID, ok := products[s.product]
		if !ok {
			continue
		}
		batch.Queue(`
			INSERT INTO stock_items (id, location_id, product_id, quantity, limit_qty)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (location_id, product_id)
			DO UPDATE SET quantity = EXCLUDED.quantity, limit_qty = EXCLUDED.limit_qty, updated_at = NOW()
		`, id.New(), locationID, productID, s.quantity, s.limit)
	}
	return tx.SendBatch(ctx, batch).Close()
}
