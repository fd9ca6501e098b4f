package reports

import (
	"context"
)

// Repository defines report data access interface.
type Repository interface {
	StockRows(ctx context.Context, filter StockFilter) ([]StockRow, error)
	ConsumptionRows(ctx context.Context, filter ConsumptionFilter) ([]ConsumptionRow, error)
	PurchaseRows(ctx context.Context, filter PurchaseFilter) ([]PurchaseRow, error)
	RequestRows(ctx context.Context, filter RequestFilter) ([]RequestRow, error)
}
