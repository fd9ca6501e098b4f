package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorChain(t *testing.T) {
	root := errors.New("smtp: connection refused")
	err := fmt.Errorf("send order: %w", NewDeliveryFailed("email", root))

	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, CodeDeliveryFailed, appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
	assert.ErrorIs(t, err, root)
	assert.True(t, HasCode(err, CodeDeliveryFailed))
	assert.False(t, HasCode(root, CodeDeliveryFailed))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestInvalidStatusDetails(t *testing.T) {
	err := NewInvalidStatus("purchase order", "DRAFT", "SENT", "PARTIAL")
	assert.True(t, IsInvalidStatus(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, http.StatusConflict, err.HTTPStatus)
	assert.Equal(t, []string{"SENT", "PARTIAL"}, err.Details["expected"])
	assert.Equal(t, "INVALID_STATUS: purchase order is in status DRAFT", err.Error())
}

func TestWithDetail(t *testing.T) {
	err := NewValidation("bad quantity").WithDetail("field", "qty").WithDetail("line", 2)
	assert.Equal(t, map[string]any{"field": "qty", "line": 2}, err.Details)
	assert.False(t, IsAppError(errors.New("plain")))
	assert.True(t, IsAppError(err))
}
