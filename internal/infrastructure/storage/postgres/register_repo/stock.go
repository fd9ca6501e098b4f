// Package register_repo provides the PostgreSQL inventory ledger.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/infrastructure/storage/postgres"
)

const stockItemsTable = "stock_items"

// StockRepo implements ledger.Repository on stock_items.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new ledger repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ ledger.Repository = (*StockRepo)(nil)

// ApplyDelta adds delta in a single upsert so concurrent writers serialise on the row.
func (r *StockRepo) ApplyDelta(ctx context.Context, locationID, productID id.ID, delta types.Quantity) (types.Quantity, error) {
	var qty types.Quantity
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO stock_items (id, location_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (location_id, product_id) DO UPDATE
		SET quantity = stock_items.quantity + EXCLUDED.quantity,
		    updated_at = EXCLUDED.updated_at
		RETURNING quantity`,
		id.New(), locationID, productID, delta, time.Now().UTC(),
	).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("apply stock delta: %w", err)
	}
	return qty, nil
}

// SetAbsolute replaces the quantity.
func (r *StockRepo) SetAbsolute(ctx context.Context, locationID, productID id.ID, value types.Quantity) (types.Quantity, error) {
	var qty types.Quantity
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO stock_items (id, location_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (location_id, product_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    updated_at = EXCLUDED.updated_at
		RETURNING quantity`,
		id.New(), locationID, productID, value, time.Now().UTC(),
	).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("set stock quantity: %w", err)
	}
	return qty, nil
}

// Lock returns the quantity under a row lock; an absent row reads as zero.
func (r *StockRepo) Lock(ctx context.Context, locationID, productID id.ID) (types.Quantity, error) {
	var row struct {
		Quantity types.Quantity `db:"quantity"`
	}
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, `
		SELECT quantity
		FROM stock_items
		WHERE location_id = $1 AND product_id = $2
		FOR UPDATE`, locationID, productID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("lock stock row: %w", err)
	}
	return row.Quantity, nil
}

// SetLimit stores the ceiling; nil clears it.
func (r *StockRepo) SetLimit(ctx context.Context, locationID, productID id.ID, limit *types.Quantity) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO stock_items (id, location_id, product_id, quantity, limit_qty, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5)
		ON CONFLICT (location_id, product_id) DO UPDATE
		SET limit_qty = EXCLUDED.limit_qty,
		    updated_at = EXCLUDED.updated_at`,
		id.New(), locationID, productID, limit, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set stock limit: %w", err)
	}
	return nil
}

// ListByLocation returns every row of a location.
func (r *StockRepo) ListByLocation(ctx context.Context, locationID id.ID) ([]ledger.StockItem, error) {
	sql, args, err := r.builder.
		Select("id", "location_id", "product_id", "quantity", "limit_qty", "updated_at").
		From(stockItemsTable).
		Where(squirrel.Eq{"location_id": locationID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []ledger.StockItem
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock by location: %w", err)
	}
	return items, nil
}

func (r *StockRepo) viewSelect() squirrel.SelectBuilder {
	return r.builder.Select(
		"s.id", "s.location_id", "s.product_id", "s.quantity", "s.limit_qty", "s.updated_at", "s.low_notified_at",
		"l.name AS location_name", "l.type AS location_type",
		"p.name AS product_name", "p.category_id", "c.name AS category_name", "p.unit",
	).
		From(stockItemsTable + " s").
		Join("locations l ON l.id = s.location_id").
		Join("products p ON p.id = s.product_id").
		Join("categories c ON c.id = p.category_id")
}

// List returns joined rows ordered by location then product name.
func (r *StockRepo) List(ctx context.Context, filter ledger.Filter) ([]ledger.StockView, error) {
	q := listQuery(r.viewSelect(), filter)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []ledger.StockView
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	return rows, nil
}

func listQuery(q squirrel.SelectBuilder, filter ledger.Filter) squirrel.SelectBuilder {
	if len(filter.LocationIDs) > 0 {
		q = q.Where(squirrel.Eq{"s.location_id": filter.LocationIDs})
	}
	if filter.CategoryID != nil {
		q = q.Where(squirrel.Eq{"p.category_id": *filter.CategoryID})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"s.product_id": *filter.ProductID})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"p.name": "%" + filter.Search + "%"})
	}
	if filter.WithLimit {
		q = q.Where(squirrel.NotEq{"s.limit_qty": nil})
	}
	return q.OrderBy("l.name", "p.name")
}

// LowStockCandidates returns the warehouse rows plus every SITE row that has a limit.
func (r *StockRepo) LowStockCandidates(ctx context.Context, warehouseID id.ID) ([]ledger.StockView, error) {
	sql, args, err := r.viewSelect().
		Where(squirrel.Or{
			squirrel.Eq{"s.location_id": warehouseID},
			squirrel.And{
				squirrel.Eq{"l.type": "SITE"},
				squirrel.NotEq{"s.limit_qty": nil},
			},
		}).
		Where(squirrel.Eq{"p.is_active": true}).
		OrderBy("l.name", "p.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []ledger.StockView
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("low stock candidates: %w", err)
	}
	return rows, nil
}

// MarkLowNotified stamps low_notified_at on the rows.
func (r *StockRepo) MarkLowNotified(ctx context.Context, rowIDs []id.ID, at time.Time) error {
	if len(rowIDs) == 0 {
		return nil
	}
	return r.setLowNotified(ctx, rowIDs, at)
}

// ClearLowNotified resets low_notified_at on the rows.
func (r *StockRepo) ClearLowNotified(ctx context.Context, rowIDs []id.ID) error {
	if len(rowIDs) == 0 {
		return nil
	}
	return r.setLowNotified(ctx, rowIDs, nil)
}

func (r *StockRepo) setLowNotified(ctx context.Context, rowIDs []id.ID, value any) error {
	sql, args, err := lowNotifiedUpdate(r.builder, rowIDs, value).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update low stock marker: %w", err)
	}
	return nil
}

func lowNotifiedUpdate(b squirrel.StatementBuilderType, rowIDs []id.ID, value any) squirrel.UpdateBuilder {
	return b.Update(stockItemsTable).
		Set("low_notified_at", value).
		Where(squirrel.Eq{"id": rowIDs})
}
