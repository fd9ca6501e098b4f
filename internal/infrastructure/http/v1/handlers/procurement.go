package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"stockflow/internal/core/apperror"
	"stockflow/internal/domain/procurement"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// ProcurementHandler handles purchase requests and purchase orders.
type ProcurementHandler struct {
	*BaseHandler
	service *procurement.Service
}

func NewProcurementHandler(base *BaseHandler, service *procurement.Service) *ProcurementHandler {
	return &ProcurementHandler{BaseHandler: base, service: service}
}

// --- Purchase requests ---

// ListRequests handles GET /procurement/purchase-requests?status=
func (h *ProcurementHandler) ListRequests(c *gin.Context) {
	page, ok := h.ListFilter(c)
	if !ok {
		return
	}
	filter := procurement.RequestFilter{ListFilter: page}
	if s := c.Query("status"); s != "" {
		status := procurement.RequestStatus(s)
		if !status.IsValid() {
			h.Error(c, apperror.NewValidation("invalid status").WithDetail("field", "status"))
			return
		}
		filter.Status = &status
	}
	res, err := h.service.ListRequests(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

func (h *ProcurementHandler) CreateRequest(c *gin.Context) {
	var req dto.CreatePurchaseRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}
	pr, err := h.service.CreateRequest(c.Request.Context(), req.Items, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, pr)
}

func (h *ProcurementHandler) GetRequest(c *gin.Context) {
	requestID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	pr, err := h.service.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, pr)
}

func (h *ProcurementHandler) SetRequestStatus(c *gin.Context) {
	requestID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	pr, err := h.service.SetRequestStatus(c.Request.Context(), requestID, procurement.RequestStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, pr)
}

// --- Purchase orders ---

// ListOrders handles GET /procurement/purchase-orders?status=&supplierId=&search=
func (h *ProcurementHandler) ListOrders(c *gin.Context) {
	page, ok := h.ListFilter(c)
	if !ok {
		return
	}
	supplierID, ok := h.QueryID(c, "supplierId")
	if !ok {
		return
	}
	filter := procurement.OrderFilter{ListFilter: page, SupplierID: supplierID}
	if s := c.Query("status"); s != "" {
		status := procurement.OrderStatus(s)
		if !status.IsValid() {
			h.Error(c, apperror.NewValidation("invalid status").WithDetail("field", "status"))
			return
		}
		filter.Status = &status
	}
	res, err := h.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

func (h *ProcurementHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.service.CreateOrder(c.Request.Context(), req.ToDraft())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, o)
}

func (h *ProcurementHandler) GetOrder(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	o, err := h.service.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// UpdateOrder handles PUT /procurement/purchase-orders/:id (DRAFT only).
func (h *ProcurementHandler) UpdateOrder(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.service.UpdateDraft(c.Request.Context(), orderID, req.ToPatch())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// PDF handles GET /procurement/purchase-orders/:id/pdf
func (h *ProcurementHandler) PDF(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	pdf, o, err := h.service.RenderPDF(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Attachment(c, "application/pdf", o.PONumber+".pdf", pdf)
}

// Send handles POST /procurement/purchase-orders/:id/send
func (h *ProcurementHandler) Send(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.SendOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.service.Send(c.Request.Context(), orderID, procurement.Method(req.Method))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// Receive handles POST /procurement/purchase-orders/:id/receive. Multipart
// bodies carry "items" as JSON, an optional "note" and an optional "photo".
func (h *ProcurementHandler) Receive(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var (
		lines []procurement.ReceiveLine
		note  *string
		photo *procurement.Photo
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var err error
		lines, err = dto.ParseReceiveItems(c.PostForm("items"))
		if err != nil {
			h.Error(c, err)
			return
		}
		if n := strings.TrimSpace(c.PostForm("note")); n != "" {
			note = &n
		}
		if fh, err := c.FormFile("photo"); err == nil {
			f, err := fh.Open()
			if err != nil {
				h.Error(c, apperror.NewInternal(err))
				return
			}
			defer f.Close()
			photo = &procurement.Photo{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Body:        f,
			}
		}
	} else {
		var req dto.ReceiveRequest
		if !h.BindJSON(c, &req) {
			return
		}
		lines, note = req.Items, req.Note
	}

	res, err := h.service.Receive(c.Request.Context(), orderID, lines, note, photo)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Receipts handles GET /procurement/purchase-orders/:id/receipts
func (h *ProcurementHandler) Receipts(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.service.ListReceipts(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// Close handles POST /procurement/purchase-orders/:id/close
func (h *ProcurementHandler) Close(c *gin.Context) {
	orderID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	o, err := h.service.Close(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}
