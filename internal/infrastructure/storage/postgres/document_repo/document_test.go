package document_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain"
	"stockflow/internal/domain/procurement"
	"stockflow/internal/domain/replenishment"
)

func TestParseOrderBy(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "r.created_at DESC"},
		{"-created_at", "r.created_at DESC"},
		{"status", "r.status ASC"},
		{" -updated_at ", "r.updated_at DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOrderBy(tt.in, requestSorts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseOrderBy("name; DROP TABLE requests", requestSorts)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestRequestListQuery(t *testing.T) {
	repo := NewRequestRepo(nil)
	status := replenishment.StatusApproved
	a, b := id.New(), id.New()

	sql, args, err := requestListQuery(repo.headerSelect(), replenishment.ListFilter{
		ListFilter:  domain.ListFilter{Search: "north"},
		Status:      &status,
		LocationIDs: []id.ID{a, b},
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "JOIN locations l ON l.id = r.location_id")
	assert.Contains(t, sql, "WHERE r.status = $1 AND r.location_id IN ($2,$3) AND l.name ILIKE $4")
	assert.Equal(t, []any{status, a, b, "%north%"}, args)
}

func TestOrderListQuery(t *testing.T) {
	repo := NewPurchaseOrderRepo(nil)
	status := procurement.OrderSent
	supplierID := id.New()

	sql, args, err := orderListQuery(repo.headerSelect(), procurement.OrderFilter{
		Status:     &status,
		SupplierID: &supplierID,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE h.status = $1 AND h.supplier_id = $2")
	assert.Equal(t, []any{status, supplierID.String()}, args)
}
