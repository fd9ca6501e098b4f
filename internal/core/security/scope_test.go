package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
)

func TestRoleGroups(t *testing.T) {
	tests := []struct {
		role        Role
		warehouse   bool
		procurement bool
	}{
		{RoleAdmin, true, true},
		{RoleOperationsManager, true, true},
		{RoleWarehouseManager, true, false},
		{RoleProcurement, false, true},
		{RoleSupervisor, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.warehouse, tt.role.CanManageWarehouse())
			assert.Equal(t, tt.procurement, tt.role.CanManageProcurement())
		})
	}
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" warehouse_manager ")
	require.True(t, ok)
	assert.Equal(t, RoleWarehouseManager, r)

	_, ok = ParseRole("accountant")
	assert.False(t, ok)
}

func TestAccessScope_RequireRole(t *testing.T) {
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{Username: "anna", Role: "PROCUREMENT"})
	scope := GetScope(ctx)

	assert.NoError(t, scope.RequireProcurement())

	err := scope.RequireWarehouse()
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	err = GetScope(context.Background()).RequireWarehouse()
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}
