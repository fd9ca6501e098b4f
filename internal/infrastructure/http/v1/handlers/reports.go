package handlers

import (
	"bytes"
	"time"

	"github.com/gin-gonic/gin"

	"stockflow/internal/domain/reports"
	"stockflow/internal/infrastructure/http/v1/dto"
	"stockflow/internal/infrastructure/spreadsheet"
)

// ReportsHandler handles HTTP requests for reports and their xlsx exports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
	now     func() time.Time
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service, now: time.Now}
}

func (h *ReportsHandler) period(c *gin.Context) (reports.Period, bool) {
	var q dto.PeriodQuery
	if !h.BindQuery(c, &q) {
		return reports.Period{}, false
	}
	from, to, err := q.Bounds()
	if err != nil {
		h.Error(c, err)
		return reports.Period{}, false
	}
	return reports.Period{From: from, To: to}, true
}

func (h *ReportsHandler) stock(c *gin.Context) (*reports.StockReport, bool) {
	locationID, ok := h.QueryID(c, "locationId")
	if !ok {
		return nil, false
	}
	categoryID, ok := h.QueryID(c, "categoryId")
	if !ok {
		return nil, false
	}
	rep, err := h.service.Stock(c.Request.Context(), locationID, categoryID)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return rep, true
}

func (h *ReportsHandler) consumption(c *gin.Context) (*reports.ConsumptionReport, bool) {
	period, ok := h.period(c)
	if !ok {
		return nil, false
	}
	locationID, ok := h.QueryID(c, "locationId")
	if !ok {
		return nil, false
	}
	rep, err := h.service.Consumption(c.Request.Context(), period, locationID)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return rep, true
}

func (h *ReportsHandler) purchases(c *gin.Context) (*reports.PurchaseReport, bool) {
	period, ok := h.period(c)
	if !ok {
		return nil, false
	}
	supplierID, ok := h.QueryID(c, "supplierId")
	if !ok {
		return nil, false
	}
	rep, err := h.service.Purchases(c.Request.Context(), reports.PurchaseFilter{
		Period:     period,
		SupplierID: supplierID,
		Status:     c.Query("status"),
	})
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return rep, true
}

// Stock handles GET /reports/stock
func (h *ReportsHandler) Stock(c *gin.Context) {
	if rep, ok := h.stock(c); ok {
		h.OK(c, rep)
	}
}

// Consumption handles GET /reports/consumption
func (h *ReportsHandler) Consumption(c *gin.Context) {
	if rep, ok := h.consumption(c); ok {
		h.OK(c, rep)
	}
}

// Purchases handles GET /reports/purchases
func (h *ReportsHandler) Purchases(c *gin.Context) {
	if rep, ok := h.purchases(c); ok {
		h.OK(c, rep)
	}
}

// Requests handles GET /reports/requests
func (h *ReportsHandler) Requests(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	locationID, ok := h.QueryID(c, "locationId")
	if !ok {
		return
	}
	rep, err := h.service.Requests(c.Request.Context(), period, locationID, c.Query("status"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rep)
}

// ExportStock handles GET /reports/stock/export
func (h *ReportsHandler) ExportStock(c *gin.Context) {
	if rep, ok := h.stock(c); ok {
		h.export(c, "stock", spreadsheet.StockSheet(rep.Items))
	}
}

// ExportConsumption handles GET /reports/consumption/export
func (h *ReportsHandler) ExportConsumption(c *gin.Context) {
	if rep, ok := h.consumption(c); ok {
		h.export(c, "consumption", spreadsheet.ConsumptionSheet(rep.Items))
	}
}

// ExportPurchases handles GET /reports/purchases/export
func (h *ReportsHandler) ExportPurchases(c *gin.Context) {
	if rep, ok := h.purchases(c); ok {
		h.export(c, "purchases", spreadsheet.PurchasesSheet(rep.Items))
	}
}

func (h *ReportsHandler) export(c *gin.Context, kind string, sheet spreadsheet.Sheet) {
	var buf bytes.Buffer
	if err := spreadsheet.Write(&buf, sheet); err != nil {
		h.Error(c, err)
		return
	}
	h.Attachment(c, spreadsheet.ContentType, spreadsheet.Filename(kind, h.now()), buf.Bytes())
}
