// Package location provides the Location catalog: the central warehouse and
// the construction sites it supplies.
package location

import (
	"context"
	"strings"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
)

// Type distinguishes the hub from the sites it supplies.
type Type string

const (
	TypeWarehouse Type = "WAREHOUSE"
	TypeSite      Type = "SITE"
)

// IsValid reports whether t is a known location type.
func (t Type) IsValid() bool {
	return t == TypeWarehouse || t == TypeSite
}

// Location is a place that holds stock.
type Location struct {
	entity.BaseCatalog

	// Type is WAREHOUSE for the hub, SITE for supplied locations
	Type Type `db:"type" json:"type"`

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`
}

// NewLocation creates an active location.
func NewLocation(name string, t Type, address *string) *Location {
	return &Location{
		BaseCatalog: entity.NewBaseCatalog(strings.TrimSpace(name)),
		Type:        t,
		Address:     address,
	}
}

// Validate implements entity.Validatable interface.
func (l *Location) Validate(_ context.Context) error {
	if strings.TrimSpace(l.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !l.Type.IsValid() {
		return apperror.NewValidation("type must be WAREHOUSE or SITE").
			WithDetail("field", "type").
			WithDetail("value", string(l.Type))
	}
	return nil
}

// IsSite reports whether the location is a supplied site.
func (l *Location) IsSite() bool { return l.Type == TypeSite }

// IsWarehouse reports whether the location is a warehouse.
func (l *Location) IsWarehouse() bool { return l.Type == TypeWarehouse }

// Assignment binds a supervisor to a location.
type Assignment struct {
	Username   string    `db:"username" json:"username"`
	LocationID id.ID     `db:"location_id" json:"locationId"`
	AssignedAt time.Time `db:"assigned_at" json:"assignedAt"`
}

// Patch carries the optional fields of an update.
type Patch struct {
	Name     *string
	Type     *Type
	Address  *string
	IsActive *bool
}

// Apply copies set fields onto l.
func (p Patch) Apply(l *Location) {
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		l.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		l.Type = *p.Type
	}
	if p.Address != nil {
		l.Address = p.Address
	}
	if p.IsActive != nil {
		l.IsActive = *p.IsActive
	}
}
