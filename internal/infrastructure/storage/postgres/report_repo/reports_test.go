package report_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/id"
	"stockflow/internal/domain/reports"
)

func TestConsumptionQuery_Period(t *testing.T) {
	repo := NewReportRepo(nil)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	loc := id.New()

	sql, args, err := repo.consumptionQuery(reports.ConsumptionFilter{
		Period:      reports.Period{From: &from, To: &to},
		LocationIDs: []id.ID{loc},
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE ir.issued_at >= $1 AND ir.issued_at <= $2 AND rq.location_id IN ($3)")
	assert.Contains(t, sql, "ORDER BY ir.issued_at")
	assert.Equal(t, []any{from, to, loc}, args)
}

func TestPurchaseQuery_Filters(t *testing.T) {
	repo := NewReportRepo(nil)
	supplierID := id.New()

	sql, args, err := repo.purchaseQuery(reports.PurchaseFilter{SupplierID: &supplierID, Status: "SENT"}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE po.supplier_id = $1 AND po.status = $2")
	assert.Equal(t, []any{supplierID.String(), "SENT"}, args)
}

func TestRequestQuery_Grouped(t *testing.T) {
	sql, args, err := NewReportRepo(nil).requestQuery(reports.RequestFilter{}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "LEFT JOIN request_items ri ON ri.request_id = rq.id")
	assert.Contains(t, sql, "GROUP BY rq.id, l.name")
	assert.Empty(t, args)
}

func TestStockQuery_Unfiltered(t *testing.T) {
	sql, _, err := NewReportRepo(nil).stockQuery(reports.StockFilter{}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "ORDER BY l.name, c.name, p.name")
}
