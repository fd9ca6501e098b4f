// Package audit defines the append-only trail of workflow transitions.
package audit

import (
	"context"

	"stockflow/internal/core/id"
)

// Action names an audited transition.
type Action string

const (
	ActionCreated       Action = "created"
	ActionStatusChanged Action = "status_changed"
	ActionIssued        Action = "issued"
	ActionItemsReplaced Action = "items_replaced"
	ActionSent          Action = "sent"
	ActionReceived      Action = "received"
	ActionClosed        Action = "closed"
	ActionCounted       Action = "counted"
	ActionStockSet      Action = "stock_set"
	ActionLimitSet      Action = "limit_set"
	ActionUpdated       Action = "updated"
	ActionDeleted       Action = "deleted"
	ActionAssigned      Action = "assigned"
	ActionUnassigned    Action = "unassigned"
)

// Record is one audited change. The actor is taken from the context.
type Record struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	Changes    map[string]any
}

// Recorder persists audit records.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Nop discards records.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Record) error { return nil }
