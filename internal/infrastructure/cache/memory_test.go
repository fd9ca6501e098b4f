package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	_, err := s.Get(ctx, "role:alice").Result()
	assert.ErrorIs(t, err, redis.Nil)

	require.NoError(t, s.Set(ctx, "role:alice", "ADMIN", time.Minute).Err())
	v, err := s.Get(ctx, "role:alice").Result()
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", v)

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, "role:alice").Result()
	assert.ErrorIs(t, err, redis.Nil)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreWithoutExpiration(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "k", 42, 0).Err())

	v, err := s.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}
