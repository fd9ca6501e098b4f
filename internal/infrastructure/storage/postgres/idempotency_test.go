package postgres

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
)

func TestResolveIdempotency(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	created := http.StatusCreated
	ct := "application/json"

	base := func() *IdempotencyRecord {
		return &IdempotencyRecord{
			Key:         "k1",
			Username:    "ivan",
			Operation:   "POST /api/v1/warehouse/issues",
			RequestHash: "h1",
			Status:      IdempotencyStatusPending,
			UpdatedAt:   now,
		}
	}

	t.Run("fresh insert proceeds", func(t *testing.T) {
		rec := base()
		rec.Inserted = true
		replay, takeOver, err := resolveIdempotency(rec, "ivan", rec.Operation, "h1", now)
		require.NoError(t, err)
		assert.Nil(t, replay)
		assert.False(t, takeOver)
	})

	t.Run("different body is a mismatch", func(t *testing.T) {
		rec := base()
		_, _, err := resolveIdempotency(rec, "ivan", rec.Operation, "h2", now)
		assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))
	})

	t.Run("completed request replays", func(t *testing.T) {
		rec := base()
		rec.Status = IdempotencyStatusSuccess
		rec.StatusCode = &created
		rec.ContentType = &ct
		rec.Response = []byte(`{"id":"x"}`)
		replay, _, err := resolveIdempotency(rec, "ivan", rec.Operation, "h1", now)
		require.NoError(t, err)
		require.NotNil(t, replay)
		assert.Equal(t, http.StatusCreated, replay.StatusCode)
		assert.Equal(t, `{"id":"x"}`, string(replay.Body))
	})

	t.Run("in-flight request conflicts", func(t *testing.T) {
		rec := base()
		_, _, err := resolveIdempotency(rec, "ivan", rec.Operation, "h1", now.Add(10*time.Second))
		assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))
	})

	t.Run("stale pending key is taken over", func(t *testing.T) {
		rec := base()
		replay, takeOver, err := resolveIdempotency(rec, "ivan", rec.Operation, "h1", now.Add(2*time.Minute))
		require.NoError(t, err)
		assert.Nil(t, replay)
		assert.True(t, takeOver)
	})
}
