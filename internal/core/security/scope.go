// Package security provides role-based authorization for workflow operations.
package security

import (
	"context"
	"strings"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
)

// Role is the actor's role in the stock project, resolved by the identity service.
type Role string

const (
	RoleAdmin             Role = "ADMIN"
	RoleOperationsManager Role = "OPERATIONS_MANAGER"
	RoleWarehouseManager  Role = "WAREHOUSE_MANAGER"
	RoleProcurement       Role = "PROCUREMENT"
	RoleSupervisor        Role = "SUPERVISOR"
)

// AllRoles lists every known role.
var AllRoles = []Role{
	RoleAdmin,
	RoleOperationsManager,
	RoleWarehouseManager,
	RoleProcurement,
	RoleSupervisor,
}

// ParseRole normalises a role string. Unknown values return false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllRoles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// CanManageWarehouse reports whether the role may approve, issue, count and receive.
func (r Role) CanManageWarehouse() bool {
	return r == RoleAdmin || r == RoleOperationsManager || r == RoleWarehouseManager
}

// CanManageProcurement reports whether the role may place and manage purchase orders.
func (r Role) CanManageProcurement() bool {
	return r == RoleAdmin || r == RoleOperationsManager || r == RoleProcurement
}

// IsSupervisor reports whether visibility must be narrowed to bound locations.
func (r Role) IsSupervisor() bool { return r == RoleSupervisor }

// AccessScope is the authorization view of the current actor.
type AccessScope struct {
	Username string
	Role     Role
}

// NewAccessScope builds the scope from the user stored in context.
func NewAccessScope(ctx context.Context) *AccessScope {
	user := appctx.GetUser(ctx)
	if user == nil {
		return &AccessScope{}
	}
	return &AccessScope{Username: user.Username, Role: Role(user.Role)}
}

// Authenticated reports whether the scope carries an actor.
func (s *AccessScope) Authenticated() bool {
	return s.Username != ""
}

// RequireRole returns an error unless the scope has one of roles.
func (s *AccessScope) RequireRole(roles ...Role) error {
	if !s.Authenticated() {
		return apperror.NewUnauthorized("authentication required")
	}
	for _, r := range roles {
		if s.Role == r {
			return nil
		}
	}
	return apperror.NewForbidden("insufficient permissions").
		WithDetail("role", s.Role).
		WithDetail("required_roles", roles)
}

// RequireWarehouse fails unless the actor can manage the warehouse.
func (s *AccessScope) RequireWarehouse() error {
	return s.RequireRole(RoleAdmin, RoleOperationsManager, RoleWarehouseManager)
}

// RequireProcurement fails unless the actor can manage procurement.
func (s *AccessScope) RequireProcurement() error {
	return s.RequireRole(RoleAdmin, RoleOperationsManager, RoleProcurement)
}

// --- Context-based scope access ---

type scopeKey struct{}

// WithScope adds AccessScope to context.
func WithScope(ctx context.Context, scope *AccessScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// GetScope returns AccessScope from context.
func GetScope(ctx context.Context) *AccessScope {
	if v, ok := ctx.Value(scopeKey{}).(*AccessScope); ok {
		return v
	}
	return NewAccessScope(ctx)
}
