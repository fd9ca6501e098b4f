package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/types"
)

func TestPeriodQueryBounds(t *testing.T) {
	t.Run("calendar end covers the whole day", func(t *testing.T) {
		from, to, err := PeriodQuery{StartDate: "2024-05-01", EndDate: "2024-05-31"}.Bounds()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *from)
		assert.Equal(t, time.Date(2024, 5, 31, 23, 59, 59, 999999999, time.UTC), *to)
	})

	t.Run("timestamp end is exact", func(t *testing.T) {
		_, to, err := PeriodQuery{EndDate: "2024-05-31T12:00:00Z"}.Bounds()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC), *to)
	})

	t.Run("empty ends stay open", func(t *testing.T) {
		from, to, err := PeriodQuery{}.Bounds()
		require.NoError(t, err)
		assert.Nil(t, from)
		assert.Nil(t, to)
	})

	t.Run("garbage is a validation error", func(t *testing.T) {
		_, _, err := PeriodQuery{StartDate: "yesterday"}.Bounds()
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})
}

func TestDateJSON(t *testing.T) {
	var body struct {
		Delivery *Date `json:"deliveryDate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"deliveryDate":"2024-06-10"}`), &body))
	require.NotNil(t, body.Delivery.Ptr())
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), *body.Delivery.Ptr())

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"deliveryDate":"2024-06-10"}`, string(out))

	var empty struct {
		Delivery *Date `json:"deliveryDate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"deliveryDate":null}`), &empty))
	assert.Nil(t, empty.Delivery.Ptr())
}

func TestListQueryToFilter(t *testing.T) {
	f := ListQuery{Search: "  cement ", Limit: 10, Offset: 20}.ToFilter()
	assert.Equal(t, "cement", f.Search)
	assert.Equal(t, 10, f.Limit)
	assert.Equal(t, 20, f.Offset)
	assert.Equal(t, "-created_at", f.OrderBy)

	assert.Equal(t, 50, ListQuery{}.ToFilter().Limit)
}

func TestOptionalValues(t *testing.T) {
	v, err := OptionalID("locationId", "")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = OptionalID("locationId", "nope")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	assert.True(t, *OptionalBool("true"))
	assert.False(t, *OptionalBool("false"))
	assert.Nil(t, OptionalBool("yes"))
}

func TestParseReceiveItems(t *testing.T) {
	lines, err := ParseReceiveItems(`[{"productId":"0195f1c2-0000-7000-8000-000000000001","receivedQty":2.5}]`)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, types.NewQuantityFromFloat64(2.5), lines[0].ReceivedQty)

	for _, raw := range []string{"", "{}", "[]"} {
		_, err := ParseReceiveItems(raw)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation), raw)
	}
}
