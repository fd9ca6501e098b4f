package ledger

import (
	"context"
	"fmt"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// Engine is the transfer engine: atomic arithmetic on single ledger rows and
// nothing else. Sufficiency checks and workflow status belong to callers.
type Engine struct {
	repo Repository
}

// NewEngine creates a transfer engine.
func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo}
}

// ApplyDelta adds a signed delta. Concurrent deltas on one key compose.
func (e *Engine) ApplyDelta(ctx context.Context, locationID, productID id.ID, delta types.Quantity) (types.Quantity, error) {
	qty, err := e.repo.ApplyDelta(ctx, locationID, productID, delta)
	if err != nil {
		return 0, fmt.Errorf("apply delta %s/%s: %w", locationID, productID, err)
	}
	return qty, nil
}

// SetAbsolute overwrites the quantity. Only stocktake close and initial
// stock loading use it.
func (e *Engine) SetAbsolute(ctx context.Context, locationID, productID id.ID, value types.Quantity) (types.Quantity, error) {
	qty, err := e.repo.SetAbsolute(ctx, locationID, productID, value)
	if err != nil {
		return 0, fmt.Errorf("set quantity %s/%s: %w", locationID, productID, err)
	}
	return qty, nil
}

// Lock row-locks a key for the rest of the transaction and returns its quantity.
func (e *Engine) Lock(ctx context.Context, locationID, productID id.ID) (types.Quantity, error) {
	qty, err := e.repo.Lock(ctx, locationID, productID)
	if err != nil {
		return 0, fmt.Errorf("lock %s/%s: %w", locationID, productID, err)
	}
	return qty, nil
}

// Move transfers qty of a product from one location to another as two deltas.
func (e *Engine) Move(ctx context.Context, from, to, productID id.ID, qty types.Quantity) error {
	if _, err := e.ApplyDelta(ctx, from, productID, -qty); err != nil {
		return err
	}
	if _, err := e.ApplyDelta(ctx, to, productID, qty); err != nil {
		return err
	}
	return nil
}
