package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stock-service/internal/models"
	"stock-service/internal/services"
)

type memorySettingsStore struct {
	mu       sync.Mutex
	webhooks *models.WebhookSettings
	system   *models.SystemSettings
}

func (s *memorySettingsStore) GetWebhookSettings(context.Context) (*models.WebhookSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.webhooks == nil {
		s.webhooks = models.NewWebhookSettings()
	}
	w := *s.webhooks
	return &w, nil
}

func (s *memorySettingsStore) SaveWebhookSettings(_ context.Context, w *models.WebhookSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *w
	s.webhooks = &saved
	return nil
}

func (s *memorySettingsStore) GetSystemSettings(_ context.Context, tz string) (*models.SystemSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.system == nil {
		s.system = models.NewSystemSettings(tz)
	}
	sys := *s.system
	return &sys, nil
}

func (s *memorySettingsStore) SaveSystemSettings(_ context.Context, sys *models.SystemSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *sys
	s.system = &saved
	return nil
}

func setupSettingsRouter(t *testing.T) (*gin.Engine, *memorySettingsStore, *MockAuditor) {
	t.Helper()
	store := &memorySettingsStore{}
	settings, err := services.LoadSettingsService(context.Background(), store, "Asia/Jakarta")
	require.NoError(t, err)
	auditor := new(MockAuditor)

	h := NewSettingsHandler(settings, auditor, nil)
	r, api := newRouter()
	api.GET("/settings/webhooks", h.GetWebhooks)
	api.PUT("/settings/webhooks", h.UpdateWebhooks)
	api.PUT("/settings/webhooks/:category", h.UpdateWebhook)
	api.GET("/settings/timezone", h.GetTimezone)
	api.PUT("/settings/timezone", h.UpdateTimezone)
	return r, store, auditor
}

func TestSettingsHandler_Webhooks(t *testing.T) {
	r, store, auditor := setupSettingsRouter(t)
	auditor.expect(models.ActionUpdateWebhooks, models.ActivityStatusSuccess).Twice()

	w := doJSON(t, r, http.MethodPut, "/api/v1/settings/webhooks", map[string]string{
		"defaultUrl": "https://chat.example.com/hook/default",
		"stockUrl":   "https://chat.example.com/hook/stock",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://chat.example.com/hook/stock", store.webhooks.StockURL)

	w = doJSON(t, r, http.MethodPut, "/api/v1/settings/webhooks/kelola_harga", map[string]string{
		"url": "https://chat.example.com/hook/price",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://chat.example.com/hook/price", store.webhooks.PriceURL)
	assert.Equal(t, "https://chat.example.com/hook/default", store.webhooks.DefaultURL)

	w = doJSON(t, r, http.MethodGet, "/api/v1/settings/webhooks", nil)
	var got models.WebhookSettings
	decode(t, w, &got)
	assert.Equal(t, "https://chat.example.com/hook/price", got.PriceURL)

	t.Run("invalid url", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/v1/settings/webhooks/stock", map[string]string{"url": "not a url"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_WEBHOOK_URL", decode(t, w, nil).Error.Code)
		assert.Equal(t, "https://chat.example.com/hook/stock", store.webhooks.StockURL)
	})

	t.Run("unknown category", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/v1/settings/webhooks/orders", map[string]string{"url": "https://x.example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "UNKNOWN_CATEGORY", decode(t, w, nil).Error.Code)
	})
	auditor.AssertExpectations(t)
}

func TestSettingsHandler_Timezone(t *testing.T) {
	r, store, auditor := setupSettingsRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/settings/timezone", nil)
	var tz map[string]string
	decode(t, w, &tz)
	assert.Equal(t, "Asia/Jakarta", tz["timezone"])

	auditor.expect(models.ActionUpdateTimezone, models.ActivityStatusSuccess).Once()
	w = doJSON(t, r, http.MethodPut, "/api/v1/settings/timezone", map[string]string{"timezone": "Asia/Makassar"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Asia/Makassar", store.system.Timezone)

	w = doJSON(t, r, http.MethodPut, "/api/v1/settings/timezone", map[string]string{"timezone": "Mars/Olympus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TIMEZONE", decode(t, w, nil).Error.Code)
	assert.Equal(t, "Asia/Makassar", store.system.Timezone)
	auditor.AssertExpectations(t)
}
