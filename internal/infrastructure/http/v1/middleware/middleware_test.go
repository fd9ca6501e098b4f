package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthenticator struct {
	tokens map[string]*appctx.UserContext
}

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*appctx.UserContext, error) {
	if u, ok := f.tokens[token]; ok {
		return u, nil
	}
	return nil, apperror.NewUnauthorized("invalid token")
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestTokenFromRequest(t *testing.T) {
	cases := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "bearer header", header: "Bearer abc", want: "abc"},
		{name: "case insensitive scheme", header: "bearer  abc ", want: "abc"},
		{name: "cookie fallback", cookie: "from-cookie", want: "from-cookie"},
		{name: "header wins over cookie", header: "Bearer h", cookie: "c", want: "h"},
		{name: "basic scheme ignored", header: "Basic xyz", want: ""},
		{name: "nothing", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				c.Request.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				c.Request.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: tc.cookie})
			}
			assert.Equal(t, tc.want, TokenFromRequest(c, ""))
		})
	}
}

func newAuthRouter() *gin.Engine {
	auth := fakeAuthenticator{tokens: map[string]*appctx.UserContext{
		"good": {Username: "alice", Role: string(security.RoleWarehouseManager)},
	}}
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(Auth(auth, ""), AccessScope())
	r.GET("/whoami", func(c *gin.Context) {
		scope := security.GetScope(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"username": appctx.GetUsername(c.Request.Context()),
			"role":     string(scope.Role),
			"gin_role": c.GetString("role"),
		})
	})
	return r
}

func TestAuth(t *testing.T) {
	r := newAuthRouter()

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejected token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer bad")
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("accepted token populates context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer good")
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "WAREHOUSE_MANAGER", body["role"])
		assert.Equal(t, "WAREHOUSE_MANAGER", body["gin_role"])
	})
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/validation", func(c *gin.Context) {
		_ = c.Error(apperror.NewValidation("bad input").WithDetail("field", "name"))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})
	r.GET("/written", func(c *gin.Context) {
		c.String(http.StatusAccepted, "done")
		_ = c.Error(errors.New("late"))
	})

	t.Run("app error keeps code and details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/validation", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, apperror.CodeValidation, body["code"])
		assert.Equal(t, "bad input", body["message"])
		assert.Equal(t, "name", body["details"].(map[string]any)["field"])
	})

	t.Run("unknown error is hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, apperror.CodeInternal, body["code"])
		assert.NotContains(t, rec.Body.String(), "boom")
	})

	t.Run("written response is kept", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/written", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "done", rec.Body.String())
	})
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), ErrorHandler())
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperror.CodeInternal, decodeBody(t, rec)["code"])
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), BodyLimit(8))
	r.POST("/echo", func(c *gin.Context) {
		var v map[string]any
		if err := c.ShouldBindJSON(&v); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"a long value"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestTraceSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(Trace())
	r.GET("/t", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("X-Request-ID", "req-42")
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Body.String())
}
