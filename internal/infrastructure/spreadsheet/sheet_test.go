package spreadsheet

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/domain/reports"
)

func importWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadProducts(t *testing.T) {
	buf := importWorkbook(t, [][]any{
		{"Name", "Category", "Unit"},
		{" Cement M500 ", "Building", "bag"},
		{"", "", ""},
		{"Gloves", "Safety"},
	})

	rows, err := ReadProducts(buf)
	require.NoError(t, err)
	assert.Equal(t, []product.ImportRow{
		{Row: 2, Name: "Cement M500", Category: "Building", Unit: "bag"},
		{Row: 4, Name: "Gloves", Category: "Safety", Unit: ""},
	}, rows)
}

func TestReadProducts_NotAWorkbook(t *testing.T) {
	_, err := ReadProducts(strings.NewReader("name,category,unit"))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func readBack(t *testing.T, buf *bytes.Buffer, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestStockSheet(t *testing.T) {
	limit := types.NewQuantity(10)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, StockSheet([]reports.StockRow{
		{LocationName: "Warehouse", CategoryName: "Building", ProductName: "Sand", Unit: "t", Quantity: types.NewQuantityFromFloat64(2.5)},
		{LocationName: "Site A", CategoryName: "Building", ProductName: "Sand", Unit: "t", Quantity: types.NewQuantity(3), LimitQty: &limit},
	})))

	rows := readBack(t, &buf, "Stock Report")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Location", "Category", "Product", "Unit", "Quantity", "Limit"}, rows[0])
	assert.Equal(t, []string{"Warehouse", "Building", "Sand", "t", "2.5", "-"}, rows[1])
	assert.Equal(t, []string{"Site A", "Building", "Sand", "t", "3", "10"}, rows[2])
}

func TestConsumptionSheet(t *testing.T) {
	reqID := id.New()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ConsumptionSheet([]reports.ConsumptionRow{{
		IssuedAt:     time.Date(2026, 2, 3, 15, 4, 0, 0, time.UTC),
		RequestID:    reqID,
		LocationName: "Site A",
		CategoryName: "Building",
		ProductName:  "Sand",
		Quantity:     types.NewQuantity(4),
		IssuedBy:     "kamran",
	}})))

	rows := readBack(t, &buf, "Consumption Report")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Date", "Location", "Request ID", "Category", "Product", "Quantity", "Issued By"}, rows[0])
	assert.Equal(t, []string{"2026-02-03", "Site A", reqID.String(), "Building", "Sand", "4", "kamran"}, rows[1])
}

func TestPurchasesSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, PurchasesSheet([]reports.PurchaseRow{{
		CreatedAt:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PONumber:     "PO-2026-0003",
		SupplierName: "Acme",
		CategoryName: "Building",
		ProductName:  "Cement",
		Quantity:     types.NewQuantity(10),
		UnitPrice:    types.MustMoney("7.5"),
		TotalPrice:   types.MustMoney("75"),
		Status:       "SENT",
	}})))

	rows := readBack(t, &buf, "Purchases Report")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2026-02-01", "PO-2026-0003", "Acme", "Building", "Cement", "10", "7.5", "75", "SENT"}, rows[1])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "stock-report-2026-03-04.xlsx", Filename("stock", time.Date(2026, 3, 4, 23, 0, 0, 0, time.UTC)))
}
