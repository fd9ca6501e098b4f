// Package access answers who may act on which location. Roles come from the
// external identity service; location bindings live in the stock database.
package access

import (
	"context"
	"slices"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/security"
)

// RoleResolver maps an authenticated username to its role.
type RoleResolver interface {
	ResolveRole(ctx context.Context, username string) (security.Role, error)
}

// RoleResolverFunc adapts a function to RoleResolver.
type RoleResolverFunc func(ctx context.Context, username string) (security.Role, error)

// ResolveRole implements RoleResolver.
func (f RoleResolverFunc) ResolveRole(ctx context.Context, username string) (security.Role, error) {
	return f(ctx, username)
}

// LocationBindings exposes supervisor to location assignments.
type LocationBindings interface {
	IsAssigned(ctx context.Context, username string, locationID id.ID) (bool, error)
	LocationsOf(ctx context.Context, username string) ([]id.ID, error)
}

// Visibility is the set of locations whose data the actor may read.
type Visibility struct {
	All bool
	IDs []id.ID
}

// Allows reports whether locationID is visible.
func (v Visibility) Allows(locationID id.ID) bool {
	return v.All || slices.Contains(v.IDs, locationID)
}

// Empty reports whether nothing is visible.
func (v Visibility) Empty() bool {
	return !v.All && len(v.IDs) == 0
}

// Guard performs location-level authorization checks.
type Guard struct {
	bindings LocationBindings
}

// NewGuard creates a guard over bindings.
func NewGuard(bindings LocationBindings) *Guard {
	return &Guard{bindings: bindings}
}

// RequireBound fails with LOCATION_NOT_ASSIGNED unless the actor is bound to locationID.
func (g *Guard) RequireBound(ctx context.Context, scope *security.AccessScope, locationID id.ID) error {
	if !scope.Authenticated() {
		return apperror.NewUnauthorized("authentication required")
	}
	ok, err := g.bindings.IsAssigned(ctx, scope.Username, locationID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewLocationNotAssigned(scope.Username, locationID)
	}
	return nil
}

// RequireBoundOrWarehouse lets warehouse roles through and checks the binding for everyone else.
func (g *Guard) RequireBoundOrWarehouse(ctx context.Context, scope *security.AccessScope, locationID id.ID) error {
	if scope.Authenticated() && scope.Role.CanManageWarehouse() {
		return nil
	}
	return g.RequireBound(ctx, scope, locationID)
}

// Visible returns the readable locations. Only supervisors are narrowed.
func (g *Guard) Visible(ctx context.Context, scope *security.AccessScope) (Visibility, error) {
	if !scope.Authenticated() {
		return Visibility{}, apperror.NewUnauthorized("authentication required")
	}
	if !scope.Role.IsSupervisor() {
		return Visibility{All: true}, nil
	}
	ids, err := g.bindings.LocationsOf(ctx, scope.Username)
	if err != nil {
		return Visibility{}, err
	}
	return Visibility{IDs: ids}, nil
}

// Narrow intersects an optional requested location with the visible set.
// A supervisor asking for a location outside their bindings gets LOCATION_NOT_ASSIGNED.
func (g *Guard) Narrow(ctx context.Context, scope *security.AccessScope, requested *id.ID) (Visibility, error) {
	vis, err := g.Visible(ctx, scope)
	if err != nil {
		return Visibility{}, err
	}
	if requested == nil {
		return vis, nil
	}
	if !vis.Allows(*requested) {
		return Visibility{}, apperror.NewLocationNotAssigned(scope.Username, *requested)
	}
	return Visibility{IDs: []id.ID{*requested}}, nil
}
