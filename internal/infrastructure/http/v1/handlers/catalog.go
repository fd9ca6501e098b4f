package handlers

import (
	"github.com/gin-gonic/gin"

	"stockflow/internal/core/apperror"
	"stockflow/internal/domain/catalogs/category"
	"stockflow/internal/domain/catalogs/location"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/domain/catalogs/supplier"
	"stockflow/internal/infrastructure/http/v1/dto"
	"stockflow/internal/infrastructure/spreadsheet"
)

// --- Locations ---

// LocationHandler handles locations and supervisor bindings.
type LocationHandler struct {
	*BaseHandler
	service *location.Service
}

func NewLocationHandler(base *BaseHandler, service *location.Service) *LocationHandler {
	return &LocationHandler{BaseHandler: base, service: service}
}

// List handles GET /locations?type=&isActive=
func (h *LocationHandler) List(c *gin.Context) {
	filter := location.ListFilter{IsActive: dto.OptionalBool(c.Query("isActive"))}
	if t := c.Query("type"); t != "" {
		lt := location.Type(t)
		if !lt.IsValid() {
			h.Error(c, apperror.NewValidation("invalid location type").WithDetail("field", "type"))
			return
		}
		filter.Type = &lt
	}
	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// My handles GET /locations/my
func (h *LocationHandler) My(c *gin.Context) {
	items, err := h.service.MyLocations(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

func (h *LocationHandler) Create(c *gin.Context) {
	var req dto.CreateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	loc := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), loc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, loc)
}

func (h *LocationHandler) Update(c *gin.Context) {
	locationID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	loc, err := h.service.Update(c.Request.Context(), locationID, req.ToPatch())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, loc)
}

// Supervisors handles GET /locations/:id/supervisors
func (h *LocationHandler) Supervisors(c *gin.Context) {
	locationID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.service.Supervisors(c.Request.Context(), locationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// Assign handles POST /locations/:id/supervisors
func (h *LocationHandler) Assign(c *gin.Context) {
	locationID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.AssignSupervisorRequest
	if !h.BindJSON(c, &req) {
		return
	}
	a, err := h.service.AssignSupervisor(c.Request.Context(), locationID, req.Username)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, a)
}

// Unassign handles DELETE /locations/:id/supervisors/:username
func (h *LocationHandler) Unassign(c *gin.Context) {
	locationID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.UnassignSupervisor(c.Request.Context(), locationID, c.Param("username")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// --- Categories ---

// CategoryHandler handles product categories.
type CategoryHandler struct {
	*BaseHandler
	service *category.Service
}

func NewCategoryHandler(base *BaseHandler, service *category.Service) *CategoryHandler {
	return &CategoryHandler{BaseHandler: base, service: service}
}

func (h *CategoryHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cat, err := h.service.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, cat)
}

func (h *CategoryHandler) Rename(c *gin.Context) {
	categoryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.CategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cat, err := h.service.Rename(c.Request.Context(), categoryID, req.Name)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cat)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	categoryID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), categoryID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// --- Products ---

// ProductHandler handles the product catalog and its spreadsheet import.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

// List handles GET /products?categoryId=&isActive=&search=
func (h *ProductHandler) List(c *gin.Context) {
	categoryID, ok := h.QueryID(c, "categoryId")
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), product.ListFilter{
		Search:     c.Query("search"),
		CategoryID: categoryID,
		IsActive:   dto.OptionalBool(c.Query("isActive")),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.service.Update(c.Request.Context(), productID, req.ToPatch())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Toggle handles PATCH /products/:id/toggle
func (h *ProductHandler) Toggle(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Toggle(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Import handles POST /products/import (multipart "file").
func (h *ProductHandler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.Error(c, apperror.NewValidation("file is required").WithDetail("field", "file"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	defer f.Close()

	rows, err := spreadsheet.ReadProducts(f)
	if err != nil {
		h.Error(c, err)
		return
	}
	res, err := h.service.Import(c.Request.Context(), rows)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// --- Suppliers ---

// SupplierHandler handles suppliers and their price lists.
type SupplierHandler struct {
	*BaseHandler
	service *supplier.Service
}

func NewSupplierHandler(base *BaseHandler, service *supplier.Service) *SupplierHandler {
	return &SupplierHandler{BaseHandler: base, service: service}
}

func (h *SupplierHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), supplier.ListFilter{
		IsActive: dto.OptionalBool(c.Query("isActive")),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

func (h *SupplierHandler) Get(c *gin.Context) {
	supplierID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	s, err := h.service.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

func (h *SupplierHandler) Create(c *gin.Context) {
	var req dto.CreateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	s := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), s); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, s)
}

func (h *SupplierHandler) Update(c *gin.Context) {
	supplierID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	s, err := h.service.Update(c.Request.Context(), supplierID, req.ToPatch())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

func (h *SupplierHandler) Toggle(c *gin.Context) {
	supplierID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	s, err := h.service.Toggle(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Prices handles GET /suppliers/:id/prices
func (h *SupplierHandler) Prices(c *gin.Context) {
	supplierID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.service.Prices(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// SetPrice handles POST /suppliers/:id/prices
func (h *SupplierHandler) SetPrice(c *gin.Context) {
	supplierID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.SetPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.service.SetPrice(c.Request.Context(), supplierID, req.ProductID, req.Price)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}
