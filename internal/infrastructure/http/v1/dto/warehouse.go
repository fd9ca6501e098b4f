package dto

import (
	"stockflow/internal/core/id"
	"stockflow/internal/domain/ledger"
	"stockflow/internal/domain/replenishment"
	"stockflow/internal/domain/stocktake"
)

// --- Stock ---

type InitialStockRequest struct {
	Items []ledger.InitialLine `json:"items" binding:"required,min=1"`
}

type StockLimitsRequest struct {
	Items []ledger.LimitLine `json:"items" binding:"required,min=1"`
}

// --- Replenishment requests ---

type CreateRequestRequest struct {
	LocationID id.ID                `json:"locationId" binding:"required"`
	Items      []replenishment.Line `json:"items" binding:"required,min=1"`
	Note       *string              `json:"note,omitempty"`
}

type IssueRequest struct {
	RequestID id.ID                `json:"requestId" binding:"required"`
	Items     []replenishment.Line `json:"items" binding:"required,min=1"`
	Note      *string              `json:"note,omitempty"`
}

// --- Inventory counts ---

type StartInventoryRequest struct {
	LocationID id.ID   `json:"locationId" binding:"required"`
	Note       *string `json:"note,omitempty"`
}

type InventoryActualsRequest struct {
	Items []stocktake.ActualLine `json:"items" binding:"required,min=1"`
}
