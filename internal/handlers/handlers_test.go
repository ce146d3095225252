package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"stock-service/internal/middleware"
	"stock-service/internal/models"
	"stock-service/internal/services"
)

const testToken = "test-token"

var testUserID = uuid.MustParse("6f1f3c1e-8d2a-4e8b-9c55-1a7f0c2e9b11")

type MockAuditor struct {
	mock.Mock
}

func (m *MockAuditor) Record(ctx context.Context, actor *uuid.UUID, action string, status models.ActivityStatus, notes string) {
	m.Called(ctx, actor, action, status, notes)
}

func (m *MockAuditor) expect(action string, status models.ActivityStatus) *mock.Call {
	return m.On("Record", mock.Anything, mock.Anything, action, status, mock.Anything)
}

type staticValidator struct{}

func (staticValidator) ParseToken(_ context.Context, token string) (*services.Claims, error) {
	if token != testToken {
		return nil, services.ErrInvalidToken
	}
	claims := &services.Claims{UserID: testUserID.String(), Username: "admin", Role: models.RoleAdmin}
	claims.ID = "jti-1"
	return claims, nil
}

// newRouter returns an engine whose routes require the test token.
func newRouter() (*gin.Engine, *gin.RouterGroup) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", middleware.JWTAuth(staticValidator{}))
	return r, api
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success    bool                   `json:"success"`
	Data       json.RawMessage        `json:"data"`
	Message    string                 `json:"message"`
	Error      models.Error           `json:"error"`
	Pagination *models.PaginationMeta `json:"pagination"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}
