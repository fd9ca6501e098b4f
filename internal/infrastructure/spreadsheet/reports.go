package spreadsheet

import (
	"time"

	"stockflow/internal/domain/reports"
)

const dateLayout = "2006-01-02"

// StockSheet lays out the stock report.
func StockSheet(rows []reports.StockRow) Sheet {
	s := Sheet{
		Name: "Stock Report",
		Columns: []Column{
			{"Location", 20}, {"Category", 20}, {"Product", 30},
			{"Unit", 10}, {"Quantity", 12}, {"Limit", 12},
		},
		Rows: make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		var limit any = "-"
		if r.LimitQty != nil {
			limit = r.LimitQty.Float64()
		}
		s.Rows = append(s.Rows, []any{
			r.LocationName, r.CategoryName, r.ProductName, r.Unit, r.Quantity.Float64(), limit,
		})
	}
	return s
}

// ConsumptionSheet lays out the consumption report.
func ConsumptionSheet(rows []reports.ConsumptionRow) Sheet {
	s := Sheet{
		Name: "Consumption Report",
		Columns: []Column{
			{"Date", 20}, {"Location", 20}, {"Request ID", 38}, {"Category", 20},
			{"Product", 30}, {"Quantity", 12}, {"Issued By", 15},
		},
		Rows: make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{
			r.IssuedAt.UTC().Format(dateLayout), r.LocationName, r.RequestID.String(),
			r.CategoryName, r.ProductName, r.Quantity.Float64(), r.IssuedBy,
		})
	}
	return s
}

// PurchasesSheet lays out the purchases report.
func PurchasesSheet(rows []reports.PurchaseRow) Sheet {
	s := Sheet{
		Name: "Purchases Report",
		Columns: []Column{
			{"Date", 20}, {"PO", 15}, {"Supplier", 25}, {"Category", 20}, {"Product", 30},
			{"Quantity", 12}, {"Unit Price", 12}, {"Total", 12}, {"Status", 20},
		},
		Rows: make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{
			r.CreatedAt.UTC().Format(dateLayout), r.PONumber, r.SupplierName, r.CategoryName, r.ProductName,
			r.Quantity.Float64(), r.UnitPrice.InexactFloat64(), r.TotalPrice.InexactFloat64(), r.Status,
		})
	}
	return s
}

// Filename returns "<kind>-report-<date>.xlsx".
func Filename(kind string, now time.Time) string {
	return kind + "-report-" + now.UTC().Format(dateLayout) + ".xlsx"
}
