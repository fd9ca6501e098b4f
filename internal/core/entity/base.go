// Package entity holds the embeddable bases shared by master data and workflow documents.
package entity

import (
	"context"
	"time"

	"stockflow/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity contains the primary key and the optimistic-lock version.
type BaseEntity struct {
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// SetVersion updates the version number (used by repository after sync).
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// BaseDocument is embedded by workflow documents: requests, orders, counts.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
}

// NewBaseDocument creates a new BaseDocument stamped with the creating actor.
func NewBaseDocument(createdBy string) BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  createdBy,
	}
}

// Touch updates the UpdatedAt timestamp.
func (b *BaseDocument) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// SetUpdatedAt updates the updated_at timestamp (used by repository).
func (b *BaseDocument) SetUpdatedAt(t time.Time) {
	b.UpdatedAt = t
}

// BaseCatalog is embedded by master data records that can be deactivated.
type BaseCatalog struct {
	BaseEntity

	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewBaseCatalog creates an active catalog record.
func NewBaseCatalog(name string) BaseCatalog {
	return BaseCatalog{
		BaseEntity: NewBaseEntity(),
		Name:       name,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
}
