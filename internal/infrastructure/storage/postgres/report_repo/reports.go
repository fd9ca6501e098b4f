// Package report_repo provides the PostgreSQL report queries.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/domain/reports"
	"stockflow/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ reports.Repository = (*ReportRepo)(nil)

func (r *ReportRepo) selectInto(ctx context.Context, dest any, q squirrel.SelectBuilder, name string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s query: %w", name, err)
	}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), dest, sql, args...); err != nil {
		return fmt.Errorf("%s report: %w", name, err)
	}
	return nil
}

// withPeriod restricts column to the inclusive period.
func withPeriod(q squirrel.SelectBuilder, column string, p reports.Period) squirrel.SelectBuilder {
	if p.From != nil {
		q = q.Where(squirrel.GtOrEq{column: *p.From})
	}
	if p.To != nil {
		q = q.Where(squirrel.LtOrEq{column: *p.To})
	}
	return q
}

func (r *ReportRepo) stockQuery(filter reports.StockFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select("s.location_id", "l.name AS location_name", "c.name AS category_name",
			"s.product_id", "p.name AS product_name", "p.unit", "s.quantity", "s.limit_qty").
		From("stock_items s").
		Join("locations l ON l.id = s.location_id").
		Join("products p ON p.id = s.product_id").
		Join("categories c ON c.id = p.category_id")
	if len(filter.LocationIDs) > 0 {
		q = q.Where(squirrel.Eq{"s.location_id": filter.LocationIDs})
	}
	if filter.CategoryID != nil {
		q = q.Where(squirrel.Eq{"p.category_id": *filter.CategoryID})
	}
	return q.OrderBy("l.name", "c.name", "p.name")
}

// StockRows returns ledger rows ordered by location, category, product.
func (r *ReportRepo) StockRows(ctx context.Context, filter reports.StockFilter) ([]reports.StockRow, error) {
	var rows []reports.StockRow
	if err := r.selectInto(ctx, &rows, r.stockQuery(filter), "stock"); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReportRepo) consumptionQuery(filter reports.ConsumptionFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select("ir.issued_at", "ir.request_id", "rq.location_id", "l.name AS location_name",
			"c.name AS category_name", "ir.product_id", "p.name AS product_name", "p.unit",
			"ir.quantity", "ir.issued_by").
		From("issue_records ir").
		Join("requests rq ON rq.id = ir.request_id").
		Join("locations l ON l.id = rq.location_id").
		Join("products p ON p.id = ir.product_id").
		Join("categories c ON c.id = p.category_id")
	q = withPeriod(q, "ir.issued_at", filter.Period)
	if len(filter.LocationIDs) > 0 {
		q = q.Where(squirrel.Eq{"rq.location_id": filter.LocationIDs})
	}
	return q.OrderBy("ir.issued_at")
}

// ConsumptionRows returns issue records oldest first.
func (r *ReportRepo) ConsumptionRows(ctx context.Context, filter reports.ConsumptionFilter) ([]reports.ConsumptionRow, error) {
	var rows []reports.ConsumptionRow
	if err := r.selectInto(ctx, &rows, r.consumptionQuery(filter), "consumption"); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReportRepo) purchaseQuery(filter reports.PurchaseFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select("po.created_at", "po.id AS po_id", "po.po_number", "s.name AS supplier_name",
			"c.name AS category_name", "p.name AS product_name", "p.unit",
			"i.quantity", "i.unit_price", "i.total_price", "i.received_qty", "po.status").
		From("purchase_order_items i").
		Join("purchase_orders po ON po.id = i.po_id").
		Join("suppliers s ON s.id = po.supplier_id").
		Join("products p ON p.id = i.product_id").
		Join("categories c ON c.id = p.category_id")
	q = withPeriod(q, "po.created_at", filter.Period)
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"po.supplier_id": *filter.SupplierID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"po.status": filter.Status})
	}
	return q.OrderBy("po.created_at", "po.po_number", "p.name")
}

// PurchaseRows returns order lines oldest first.
func (r *ReportRepo) PurchaseRows(ctx context.Context, filter reports.PurchaseFilter) ([]reports.PurchaseRow, error) {
	var rows []reports.PurchaseRow
	if err := r.selectInto(ctx, &rows, r.purchaseQuery(filter), "purchases"); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReportRepo) requestQuery(filter reports.RequestFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select("rq.id AS request_id", "rq.created_at", "l.name AS location_name", "rq.created_by",
			"rq.status", "COUNT(ri.id) AS items_count",
			"COALESCE(SUM(ri.quantity), 0) AS total_quantity",
			"COALESCE(SUM(ri.issued), 0) AS total_issued").
		From("requests rq").
		Join("locations l ON l.id = rq.location_id").
		LeftJoin("request_items ri ON ri.request_id = rq.id")
	q = withPeriod(q, "rq.created_at", filter.Period)
	if len(filter.LocationIDs) > 0 {
		q = q.Where(squirrel.Eq{"rq.location_id": filter.LocationIDs})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"rq.status": filter.Status})
	}
	return q.GroupBy("rq.id", "l.name").OrderBy("rq.created_at DESC")
}

// RequestRows returns request summaries newest first.
func (r *ReportRepo) RequestRows(ctx context.Context, filter reports.RequestFilter) ([]reports.RequestRow, error) {
	var rows []reports.RequestRow
	if err := r.selectInto(ctx, &rows, r.requestQuery(filter), "requests"); err != nil {
		return nil, err
	}
	return rows, nil
}
