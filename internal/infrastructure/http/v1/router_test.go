package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/app"
	"stockflow/internal/core/security"
	"stockflow/internal/domain/access"
	"stockflow/internal/domain/auth"
	"stockflow/internal/infrastructure/http/v1/handlers"
	"stockflow/pkg/logger"
)

func newTestRouter(t *testing.T, checks map[string]handlers.Check) (*auth.JWTService, http.Handler) {
	t.Helper()
	jwtSvc := auth.NewJWTService(auth.DefaultJWTConfig("router-secret"))
	roles := access.RoleResolverFunc(func(_ context.Context, username string) (security.Role, error) {
		if username == "boss" {
			return security.RoleAdmin, nil
		}
		return security.RoleSupervisor, nil
	})
	r := NewRouter(RouterConfig{
		App:          "stockflow",
		Version:      "test",
		Logger:       logger.Nop(),
		Services:     &app.Services{},
		AuthService:  auth.NewService(jwtSvc, roles),
		HealthChecks: checks,
	})
	return jwtSvc, r
}

func TestHealthRoutes(t *testing.T) {
	_, r := newTestRouter(t, map[string]handlers.Check{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("down") },
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}

func TestAuthRoutes(t *testing.T) {
	jwtSvc, r := newTestRouter(t, nil)
	token, _, err := jwtSvc.GenerateAccessToken("boss")
	require.NoError(t, err)

	t.Run("me requires a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me returns the resolved role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "boss", body["username"])
		assert.Equal(t, "ADMIN", body["role"])
	})

	t.Run("verify reads the session cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify", nil)
		req.AddCookie(&http.Cookie{Name: "mint_session", Value: token})
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"role":"ADMIN"`)
	})

	t.Run("verify rejects garbage", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	_, r := newTestRouter(t, nil)
	for _, path := range []string{
		"/api/v1/locations",
		"/api/v1/stock",
		"/api/v1/warehouse/requests",
		"/api/v1/procurement/purchase-orders",
		"/api/v1/reports/stock",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}
