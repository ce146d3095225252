package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"stock-service/internal/middleware"
	"stock-service/internal/models"
	"stock-service/internal/notifier"
	"stock-service/internal/services"
)

// Notifier sends item summaries to a category webhook.
type Notifier interface {
	Send(ctx context.Context, actor *uuid.UUID, category notifier.Category, ids []uuid.UUID) (*services.NotificationResult, error)
}

type NotificationHandler struct {
	notifier Notifier
	logger   *logrus.Entry
}

func NewNotificationHandler(n Notifier, logger *logrus.Logger) *NotificationHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &NotificationHandler{notifier: n, logger: logger.WithField("component", "notification-handler")}
}

// Send posts the selected items to the category webhook
// POST /api/v1/notifications/:category
func (h *NotificationHandler) Send(c *gin.Context) {
	category, err := notifier.ParseCategory(c.Param("category"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "UNKNOWN_CATEGORY", fmt.Sprintf("Unknown webhook category %q", c.Param("category")))
		return
	}
	var req models.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Select at least one item")
		return
	}

	result, err := h.notifier.Send(c.Request.Context(), middleware.ActorID(c), category, req.ItemIDs)
	switch {
	case err == nil:
	case errors.Is(err, notifier.ErrWebhookNotConfigured):
		respondError(c, http.StatusBadRequest, "WEBHOOK_NOT_CONFIGURED", fmt.Sprintf("No webhook URL is configured for %s", category))
		return
	case errors.Is(err, services.ErrNoItemsFound):
		respondError(c, http.StatusNotFound, "ITEMS_NOT_FOUND", "None of the selected items exist")
		return
	default:
		h.logger.WithError(err).WithField("category", category).Error("Notification failed")
		respondError(c, http.StatusInternalServerError, "NOTIFICATION_FAILED", "Notification could not be sent")
		return
	}

	if !result.Delivered {
		c.JSON(http.StatusBadGateway, models.SuccessResponse{Success: false, Data: result})
		return
	}
	respondOK(c, result)
}
