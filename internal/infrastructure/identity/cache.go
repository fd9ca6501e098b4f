package identity

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"stockflow/internal/core/security"
	"stockflow/internal/domain/access"
	"stockflow/pkg/logger"
)

// RoleStore is the subset of the redis client used by the cache.
type RoleStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedResolver caches resolved roles in redis. Redis failures degrade to
// calling the inner resolver directly.
type CachedResolver struct {
	inner access.RoleResolver
	store RoleStore
	ttl   time.Duration
}

var _ access.RoleResolver = (*CachedResolver)(nil)

// NewCachedResolver wraps inner with a redis cache.
func NewCachedResolver(inner access.RoleResolver, store RoleStore, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedResolver{inner: inner, store: store, ttl: ttl}
}

func roleKey(username string) string { return "role:" + username }

// ResolveRole implements access.RoleResolver.
func (r *CachedResolver) ResolveRole(ctx context.Context, username string) (security.Role, error) {
	key := roleKey(username)

	cached, err := r.store.Get(ctx, key).Result()
	switch {
	case err == nil:
		if role, ok := security.ParseRole(cached); ok {
			return role, nil
		}
	case !errors.Is(err, redis.Nil):
		logger.Warn(ctx, "role cache read failed", "username", username, "error", err)
	}

	role, err := r.inner.ResolveRole(ctx, username)
	if err != nil {
		return "", err
	}

	if err := r.store.Set(ctx, key, string(role), r.ttl).Err(); err != nil {
		logger.Warn(ctx, "role cache write failed", "username", username, "error", err)
	}
	return role, nil
}
