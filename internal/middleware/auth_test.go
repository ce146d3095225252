package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"stock-service/internal/models"
	"stock-service/internal/services"
)

type stubValidator map[string]*services.Claims

func (s stubValidator) ParseToken(_ context.Context, token string) (*services.Claims, error) {
	if token == "broken-backend" {
		return nil, errors.New("redis down")
	}
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, services.ErrInvalidToken
}

func setupRouter(validator TokenValidator, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWTAuth(validator), RequireRole(roles...), func(c *gin.Context) {
		actor := ActorID(c)
		c.String(http.StatusOK, actor.String())
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	adminID := uuid.New()
	staffID := uuid.New()
	validator := stubValidator{
		"admin-token":   {UserID: adminID.String(), Role: models.RoleAdmin},
		"staff-token":   {UserID: staffID.String(), Role: models.RoleStaffGudang},
		"manager-token": {UserID: uuid.NewString(), Role: models.RoleManajer},
	}
	router := setupRouter(validator, models.RoleStaffGudang)

	tests := []struct {
		name   string
		header string
		cookie string
		status int
		body   string
	}{
		{"missing token", "", "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"bad scheme", "Basic abc", "", http.StatusUnauthorized, "INVALID_TOKEN_FORMAT"},
		{"unknown token", "Bearer nope", "", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"backend failure", "Bearer broken-backend", "", http.StatusServiceUnavailable, "AUTH_UNAVAILABLE"},
		{"allowed role", "Bearer staff-token", "", http.StatusOK, staffID.String()},
		{"admin always passes", "Bearer admin-token", "", http.StatusOK, adminID.String()},
		{"role not allowed", "Bearer manager-token", "", http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
		{"cookie token", "", "staff-token", http.StatusOK, staffID.String()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRequireRole_NoRolesListedAdminsOnly(t *testing.T) {
	validator := stubValidator{
		"admin-token": {UserID: uuid.NewString(), Role: models.RoleAdmin},
		"staff-token": {UserID: uuid.NewString(), Role: models.RoleStaffGudang},
	}
	router := setupRouter(validator)

	for token, want := range map[string]int{"admin-token": http.StatusOK, "staff-token": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, token)
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))

	if assert.Len(t, hook.AllEntries(), 2) {
		assert.Equal(t, "abc-123", hook.LastEntry().Data["request_id"])
		assert.Equal(t, http.StatusNoContent, hook.LastEntry().Data["status"])
	}
}
