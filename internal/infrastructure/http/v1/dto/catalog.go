package dto

import (
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/catalogs/location"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/domain/catalogs/supplier"
)

// --- Locations ---

type CreateLocationRequest struct {
	Name    string  `json:"name" binding:"required"`
	Type    string  `json:"type" binding:"required"`
	Address *string `json:"address,omitempty"`
}

func (r *CreateLocationRequest) ToEntity() *location.Location {
	return location.NewLocation(r.Name, location.Type(r.Type), r.Address)
}

type UpdateLocationRequest struct {
	Name     *string `json:"name,omitempty"`
	Type     *string `json:"type,omitempty"`
	Address  *string `json:"address,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

func (r *UpdateLocationRequest) ToPatch() location.Patch {
	p := location.Patch{Name: r.Name, Address: r.Address, IsActive: r.IsActive}
	if r.Type != nil {
		t := location.Type(*r.Type)
		p.Type = &t
	}
	return p
}

type AssignSupervisorRequest struct {
	Username string `json:"username" binding:"required"`
}

// --- Categories ---

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// --- Products ---

type CreateProductRequest struct {
	Name       string `json:"name" binding:"required"`
	CategoryID id.ID  `json:"categoryId" binding:"required"`
	Unit       string `json:"unit" binding:"required"`
}

func (r *CreateProductRequest) ToEntity() *product.Product {
	return product.NewProduct(r.Name, r.CategoryID, r.Unit)
}

type UpdateProductRequest struct {
	Name       *string `json:"name,omitempty"`
	CategoryID *id.ID  `json:"categoryId,omitempty"`
	Unit       *string `json:"unit,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
}

func (r *UpdateProductRequest) ToPatch() product.Patch {
	return product.Patch{Name: r.Name, CategoryID: r.CategoryID, Unit: r.Unit, IsActive: r.IsActive}
}

// --- Suppliers ---

type CreateSupplierRequest struct {
	Name       string  `json:"name" binding:"required"`
	Contact    string  `json:"contact" binding:"required"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`
	TelegramID *string `json:"telegramId,omitempty"`
}

func (r *CreateSupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.NewSupplier(r.Name, r.Contact)
	s.Phone = r.Phone
	s.Email = r.Email
	s.TelegramID = r.TelegramID
	return s
}

type UpdateSupplierRequest struct {
	Name       *string `json:"name,omitempty"`
	Contact    *string `json:"contact,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`
	TelegramID *string `json:"telegramId,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
}

func (r *UpdateSupplierRequest) ToPatch() supplier.Patch {
	return supplier.Patch{
		Name:       r.Name,
		Contact:    r.Contact,
		Phone:      r.Phone,
		Email:      r.Email,
		TelegramID: r.TelegramID,
		IsActive:   r.IsActive,
	}
}

type SetPriceRequest struct {
	ProductID id.ID       `json:"productId" binding:"required"`
	Price     types.Money `json:"price"`
}
