package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"stock-service/internal/middleware"
	"stock-service/internal/models"
	"stock-service/internal/services"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	args := m.Called(ctx, username, password)
	resp, _ := args.Get(0).(*models.LoginResponse)
	return resp, args.Error(1)
}

func (m *MockAuthenticator) Logout(ctx context.Context, claims *services.Claims) error {
	return m.Called(ctx, claims).Error(0)
}

func (m *MockAuthenticator) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	return m.Called(ctx, userID, oldPassword, newPassword).Error(0)
}

func setupAuthRouter(auth Authenticator) *gin.Engine {
	h := NewAuthHandler(auth, true, nil)
	r, api := newRouter()
	r.POST("/api/v1/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", h.Me)
	api.PUT("/auth/password", h.ChangePassword)
	return r
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, "admin", "secret123").Return(&models.LoginResponse{
		Token:     "signed.jwt.token",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
		User:      &models.User{Username: "admin", Role: models.RoleAdmin},
	}, nil).Once()
	auth.On("Login", mock.Anything, "admin", "wrong").Return(nil, services.ErrInvalidCredentials).Once()
	r := setupAuthRouter(auth)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Equal(t, "signed.jwt.token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Greater(t, cookie.MaxAge, 0)

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode(t, w, nil).Error.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	auth.AssertExpectations(t)
}

func TestAuthHandler_LoginForm(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, "staff", "password1").Return(&models.LoginResponse{
		Token:     "t",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil).Once()
	r := setupAuthRouter(auth)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("username=staff&password=password1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	auth.AssertExpectations(t)
}

func TestAuthHandler_LogoutAndMe(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Logout", mock.Anything, mock.MatchedBy(func(c *services.Claims) bool { return c.ID == "jti-1" })).Return(nil).Once()
	r := setupAuthRouter(auth)

	w := doJSON(t, r, http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]string
	decode(t, w, &me)
	assert.Equal(t, testUserID.String(), me["userId"])
	assert.Equal(t, "admin", me["role"])

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
	auth.AssertExpectations(t)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"success", nil, http.StatusOK, ""},
		{"wrong password", services.ErrWrongPassword, http.StatusBadRequest, "WRONG_PASSWORD"},
		{"weak password", services.ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD"},
		{"store failure", assert.AnError, http.StatusInternalServerError, "PASSWORD_CHANGE_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(MockAuthenticator)
			auth.On("ChangePassword", mock.Anything, testUserID, "old-password", "new-password").Return(tt.err).Once()
			r := setupAuthRouter(auth)

			w := doJSON(t, r, http.MethodPut, "/api/v1/auth/password", map[string]string{
				"oldPassword": "old-password",
				"newPassword": "new-password",
			})
			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decode(t, w, nil).Error.Code)
			}
			auth.AssertExpectations(t)
		})
	}

	t.Run("short new password rejected by binding", func(t *testing.T) {
		r := setupAuthRouter(new(MockAuthenticator))
		w := doJSON(t, r, http.MethodPut, "/api/v1/auth/password", map[string]string{
			"oldPassword": "old-password",
			"newPassword": "short",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
