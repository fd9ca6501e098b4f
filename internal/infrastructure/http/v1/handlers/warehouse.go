package handlers

import (
	"github.com/gin-gonic/gin"

	"stockflow/internal/core/apperror"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/domain/replenishment"
	"stockflow/internal/domain/stocktake"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// --- Stock ledger ---

// StockHandler exposes the stock ledger.
type StockHandler struct {
	*BaseHandler
	service *ledger.Service
}

func NewStockHandler(base *BaseHandler, service *ledger.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// List handles GET /stock?locationId=&categoryId=&productId=&search=&withLimit=
func (h *StockHandler) List(c *gin.Context) {
	locationID, ok := h.QueryID(c, "locationId")
	if !ok {
		return
	}
	categoryID, ok := h.QueryID(c, "categoryId")
	if !ok {
		return
	}
	productID, ok := h.QueryID(c, "productId")
	if !ok {
		return
	}
	filter := ledger.Filter{
		CategoryID: categoryID,
		ProductID:  productID,
		Search:     c.Query("search"),
		WithLimit:  c.Query("withLimit") == "true",
	}
	items, err := h.service.List(c.Request.Context(), locationID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// Low handles GET /stock/low
func (h *StockHandler) Low(c *gin.Context) {
	items, err := h.service.Low(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// SetInitial handles PUT /stock/initial
func (h *StockHandler) SetInitial(c *gin.Context) {
	var req dto.InitialStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	results, err := h.service.SetInitialStock(c.Request.Context(), req.Items)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"results": results})
}

// SetLimits handles PUT /stock/limits
func (h *StockHandler) SetLimits(c *gin.Context) {
	var req dto.StockLimitsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	results, err := h.service.SetLimits(c.Request.Context(), req.Items)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"results": results})
}

// --- Replenishment requests ---

// RequestHandler handles site replenishment requests and warehouse issues.
type RequestHandler struct {
	*BaseHandler
	service *replenishment.Service
	stock   *ledger.Service
}

func NewRequestHandler(base *BaseHandler, service *replenishment.Service, stock *ledger.Service) *RequestHandler {
	return &RequestHandler{BaseHandler: base, service: service, stock: stock}
}

// List handles GET /warehouse/requests?status=&locationId=
func (h *RequestHandler) List(c *gin.Context) {
	page, ok := h.ListFilter(c)
	if !ok {
		return
	}
	locationID, ok := h.QueryID(c, "locationId")
	if !ok {
		return
	}
	filter := replenishment.ListFilter{ListFilter: page}
	if s := c.Query("status"); s != "" {
		status := replenishment.Status(s)
		if !status.IsValid() {
			h.Error(c, apperror.NewValidation("invalid status").WithDetail("field", "status"))
			return
		}
		filter.Status = &status
	}
	res, err := h.service.List(c.Request.Context(), locationID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.service.Create(c.Request.Context(), req.LocationID, req.Items, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, r)
}

func (h *RequestHandler) Get(c *gin.Context) {
	requestID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	r, err := h.service.Get(c.Request.Context(), requestID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, r)
}

// SetStatus handles PATCH /warehouse/requests/:id/status
func (h *RequestHandler) SetStatus(c *gin.Context) {
	requestID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.service.SetStatus(c.Request.Context(), requestID, replenishment.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, r)
}

// Autofill handles GET /warehouse/requests/autofill/:locationId
func (h *RequestHandler) Autofill(c *gin.Context) {
	siteID, ok := h.ParamID(c, "locationId")
	if !ok {
		return
	}
	lines, err := h.stock.Autofill(c.Request.Context(), siteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": lines})
}

// Issue handles POST /warehouse/issues
func (h *RequestHandler) Issue(c *gin.Context) {
	var req dto.IssueRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.service.Issue(c.Request.Context(), req.RequestID, req.Items, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Issues handles GET /warehouse/requests/:id/issues
func (h *RequestHandler) Issues(c *gin.Context) {
	requestID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.service.ListIssues(c.Request.Context(), requestID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// --- Inventory counts ---

// InventoryHandler handles physical stock counts.
type InventoryHandler struct {
	*BaseHandler
	service *stocktake.Service
}

func NewInventoryHandler(base *BaseHandler, service *stocktake.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service}
}

// List handles GET /warehouse/inventory?status=&locationId=
func (h *InventoryHandler) List(c *gin.Context) {
	page, ok := h.ListFilter(c)
	if !ok {
		return
	}
	locationID, ok := h.QueryID(c, "locationId")
	if !ok {
		return
	}
	filter := stocktake.ListFilter{ListFilter: page}
	if s := c.Query("status"); s != "" {
		status := stocktake.Status(s)
		if !status.IsValid() {
			h.Error(c, apperror.NewValidation("invalid status").WithDetail("field", "status"))
			return
		}
		filter.Status = &status
	}
	res, err := h.service.List(c.Request.Context(), locationID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

func (h *InventoryHandler) Start(c *gin.Context) {
	var req dto.StartInventoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cnt, err := h.service.Start(c.Request.Context(), req.LocationID, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, cnt)
}

func (h *InventoryHandler) Get(c *gin.Context) {
	countID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	cnt, err := h.service.Get(c.Request.Context(), countID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cnt)
}

// UpdateItems handles PUT /warehouse/inventory/:id/items
func (h *InventoryHandler) UpdateItems(c *gin.Context) {
	countID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.InventoryActualsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cnt, err := h.service.UpdateActuals(c.Request.Context(), countID, req.Items)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cnt)
}

// Close handles POST /warehouse/inventory/:id/close
func (h *InventoryHandler) Close(c *gin.Context) {
	countID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	cnt, err := h.service.Close(c.Request.Context(), countID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cnt)
}
