package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"stock-service/internal/middleware"
	"stock-service/internal/models"
	"stock-service/internal/notifier"
	"stock-service/internal/services"
)

// SettingsManager reads and updates instance settings.
type SettingsManager interface {
	Webhooks() models.WebhookSettings
	UpdateWebhooks(ctx context.Context, req models.WebhookSettingsRequest) (models.WebhookSettings, error)
	SetWebhook(ctx context.Context, category notifier.Category, url string) (models.WebhookSettings, error)
	Timezone() string
	SetTimezone(ctx context.Context, name string) error
}

type SettingsHandler struct {
	settings SettingsManager
	auditor  services.Auditor
	logger   *logrus.Entry
}

func NewSettingsHandler(settings SettingsManager, auditor services.Auditor, logger *logrus.Logger) *SettingsHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SettingsHandler{
		settings: settings,
		auditor:  auditor,
		logger:   logger.WithField("component", "settings-handler"),
	}
}

func (h *SettingsHandler) saveFailed(c *gin.Context, err error, action string) {
	if errors.Is(err, services.ErrInvalidWebhookURL) {
		respondError(c, http.StatusBadRequest, "INVALID_WEBHOOK_URL", "Webhook URLs must be absolute http(s) URLs")
		return
	}
	if errors.Is(err, services.ErrInvalidTimezone) {
		respondError(c, http.StatusBadRequest, "INVALID_TIMEZONE", err.Error())
		return
	}
	h.logger.WithError(err).WithField("action", action).Error("Failed to save settings")
	h.auditor.Record(c.Request.Context(), middleware.ActorID(c), action, models.ActivityStatusError, err.Error())
	respondError(c, http.StatusInternalServerError, "SETTINGS_SAVE_FAILED", "Settings could not be saved")
}

// GetWebhooks returns every webhook URL
// GET /api/v1/settings/webhooks
func (h *SettingsHandler) GetWebhooks(c *gin.Context) {
	respondOK(c, h.settings.Webhooks())
}

// UpdateWebhooks replaces every webhook URL
// PUT /api/v1/settings/webhooks
func (h *SettingsHandler) UpdateWebhooks(c *gin.Context) {
	var req models.WebhookSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	saved, err := h.settings.UpdateWebhooks(c.Request.Context(), req)
	if err != nil {
		h.saveFailed(c, err, models.ActionUpdateWebhooks)
		return
	}
	h.auditor.Record(c.Request.Context(), middleware.ActorID(c), models.ActionUpdateWebhooks,
		models.ActivityStatusSuccess, "Updated all webhook URLs")
	respondOK(c, saved)
}

// UpdateWebhook sets the URL of one category
// PUT /api/v1/settings/webhooks/:category
func (h *SettingsHandler) UpdateWebhook(c *gin.Context) {
	category, err := notifier.ParseCategory(c.Param("category"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "UNKNOWN_CATEGORY", fmt.Sprintf("Unknown webhook category %q", c.Param("category")))
		return
	}
	var req models.WebhookURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	saved, err := h.settings.SetWebhook(c.Request.Context(), category, req.URL)
	if err != nil {
		h.saveFailed(c, err, models.ActionUpdateWebhooks)
		return
	}
	h.auditor.Record(c.Request.Context(), middleware.ActorID(c), models.ActionUpdateWebhooks,
		models.ActivityStatusSuccess, fmt.Sprintf("Updated %s webhook URL", category))
	respondOK(c, saved)
}

// GetTimezone returns the display timezone
// GET /api/v1/settings/timezone
func (h *SettingsHandler) GetTimezone(c *gin.Context) {
	respondOK(c, gin.H{"timezone": h.settings.Timezone()})
}

// UpdateTimezone changes the display timezone
// PUT /api/v1/settings/timezone
func (h *SettingsHandler) UpdateTimezone(c *gin.Context) {
	var req models.TimezoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if err := h.settings.SetTimezone(c.Request.Context(), req.Timezone); err != nil {
		h.saveFailed(c, err, models.ActionUpdateTimezone)
		return
	}
	h.auditor.Record(c.Request.Context(), middleware.ActorID(c), models.ActionUpdateTimezone,
		models.ActivityStatusSuccess, "Timezone set to "+h.settings.Timezone())
	respondOK(c, gin.H{"timezone": h.settings.Timezone()})
}
