package dto

import (
	"encoding/json"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/procurement"
)

type CreatePurchaseRequestRequest struct {
	Items []procurement.RequestLine `json:"items" binding:"required,min=1"`
	Note  *string                   `json:"note,omitempty"`
}

type CreateOrderRequest struct {
	SupplierID        id.ID                   `json:"supplierId" binding:"required"`
	Items             []procurement.OrderLine `json:"items" binding:"required,min=1"`
	Note              *string                 `json:"note,omitempty"`
	DeliveryDate      *Date                   `json:"deliveryDate,omitempty"`
	PurchaseRequestID *id.ID                  `json:"purchaseRequestId,omitempty"`
}

func (r *CreateOrderRequest) ToDraft() procurement.OrderInput {
	return procurement.OrderInput{
		SupplierID:        r.SupplierID,
		Lines:             r.Items,
		Note:              r.Note,
		DeliveryDate:      r.DeliveryDate.Ptr(),
		PurchaseRequestID: r.PurchaseRequestID,
	}
}

type UpdateOrderRequest struct {
	Items        []procurement.OrderLine `json:"items,omitempty"`
	Note         *string                 `json:"note,omitempty"`
	DeliveryDate *Date                   `json:"deliveryDate,omitempty"`
}

func (r *UpdateOrderRequest) ToPatch() procurement.OrderPatch {
	return procurement.OrderPatch{
		Lines:        r.Items,
		Note:         r.Note,
		DeliveryDate: r.DeliveryDate.Ptr(),
	}
}

type SendOrderRequest struct {
	Method string `json:"method" binding:"required"`
}

// ParseReceiveItems decodes the "items" multipart field.
func ParseReceiveItems(raw string) ([]procurement.ReceiveLine, error) {
	if raw == "" {
		return nil, apperror.NewValidation("items are required").WithDetail("field", "items")
	}
	var lines []procurement.ReceiveLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, apperror.NewValidation("items must be a JSON array").WithDetail("field", "items")
	}
	if len(lines) == 0 {
		return nil, apperror.NewValidation("items are required").WithDetail("field", "items")
	}
	return lines, nil
}

// ReceiveRequest is the JSON form of a receipt without a photo.
type ReceiveRequest struct {
	Items []procurement.ReceiveLine `json:"items" binding:"required,min=1"`
	Note  *string                   `json:"note,omitempty"`
}
