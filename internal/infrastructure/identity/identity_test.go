package identity

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/security"
	"stockflow/internal/domain/access"
)

func identityServer(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/user-projects", r.URL.Path)
		body, ok := bodies[r.URL.Query().Get("username")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ResolveRole(t *testing.T) {
	srv := identityServer(t, map[string]string{
		"root":    `{"is_admin":true,"projects":[]}`,
		"anna":    `{"is_admin":false,"projects":[{"project_name":"Other","role":"ADMIN"},{"project_name":"MintStock","role":"procurement"}]}`,
		"elvin":   `{"projects":[{"project_name":"MintStock","role":"JANITOR"}]}`,
		"nobody":  `{"projects":[]}`,
		"garbled": `{not json`,
	})
	c, err := NewClient(Config{URL: srv.URL + "/"})
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		username string
		want     security.Role
		wantErr  bool
	}{
		{"root", security.RoleAdmin, false},
		{"anna", security.RoleProcurement, false},
		{"elvin", security.RoleSupervisor, false},
		{"nobody", security.RoleSupervisor, false},
		{"garbled", "", true},
		{"missing", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			role, err := c.ResolveRole(ctx, tt.username)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestClient_CustomProject(t *testing.T) {
	srv := identityServer(t, map[string]string{
		"anna": `{"projects":[{"project_name":"Depot","role":"WAREHOUSE_MANAGER"}]}`,
	})
	c, err := NewClient(Config{URL: srv.URL, Project: "Depot"})
	require.NoError(t, err)

	role, err := c.ResolveRole(context.Background(), "anna")
	require.NoError(t, err)
	assert.Equal(t, security.RoleWarehouseManager, role)

	_, err = NewClient(Config{})
	assert.Error(t, err)
}

type fakeStore struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	readErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *fakeStore) Get(_ context.Context, key string) *redis.StringCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return redis.NewStringResult("", s.readErr)
	}
	v, ok := s.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *fakeStore) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value.(string)
	s.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func countingResolver(role security.Role, err error, calls *int) access.RoleResolver {
	return access.RoleResolverFunc(func(context.Context, string) (security.Role, error) {
		*calls++
		return role, err
	})
}

func TestCachedResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("caches after first lookup", func(t *testing.T) {
		calls := 0
		store := newFakeStore()
		r := NewCachedResolver(countingResolver(security.RoleProcurement, nil, &calls), store, time.Minute)

		for range 3 {
			role, err := r.ResolveRole(ctx, "anna")
			require.NoError(t, err)
			assert.Equal(t, security.RoleProcurement, role)
		}
		assert.Equal(t, 1, calls)
		assert.Equal(t, "PROCUREMENT", store.data["role:anna"])
		assert.Equal(t, time.Minute, store.ttls["role:anna"])
	})

	t.Run("unknown cached value is refreshed", func(t *testing.T) {
		calls := 0
		store := newFakeStore()
		store.data["role:anna"] = "JANITOR"
		r := NewCachedResolver(countingResolver(security.RoleAdmin, nil, &calls), store, 0)

		role, err := r.ResolveRole(ctx, "anna")
		require.NoError(t, err)
		assert.Equal(t, security.RoleAdmin, role)
		assert.Equal(t, 1, calls)
	})

	t.Run("redis failure falls through", func(t *testing.T) {
		calls := 0
		store := newFakeStore()
		store.readErr = errors.New("connection refused")
		r := NewCachedResolver(countingResolver(security.RoleSupervisor, nil, &calls), store, time.Minute)

		role, err := r.ResolveRole(ctx, "anna")
		require.NoError(t, err)
		assert.Equal(t, security.RoleSupervisor, role)
		assert.Equal(t, 1, calls)
	})

	t.Run("resolver errors are not cached", func(t *testing.T) {
		calls := 0
		store := newFakeStore()
		r := NewCachedResolver(countingResolver("", errors.New("identity down"), &calls), store, time.Minute)

		_, err := r.ResolveRole(ctx, "anna")
		require.Error(t, err)
		assert.Empty(t, store.data)
	})
}
