package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"stock-service/internal/metrics"
	"stock-service/internal/models"
	"stock-service/internal/notifier"
	"stock-service/internal/repository"
)

// ErrNoItemsFound is returned when none of the requested ids exist.
var ErrNoItemsFound = errors.New("no items found")

// WebhookPoster delivers a payload to a URL.
type WebhookPoster interface {
	Post(ctx context.Context, url string, payload interface{}) (notifier.Result, error)
}

// WebhookResolver maps a category to its destination URL.
type WebhookResolver interface {
	WebhookURL(category notifier.Category) (string, error)
}

// NotificationResult is returned to the caller after a send.
type NotificationResult struct {
	notifier.Result
	Category  notifier.Category `json:"category"`
	ItemCount int               `json:"itemCount"`
}

// NotificationService sends item summaries to the configured webhooks.
type NotificationService struct {
	items    repository.ItemStore
	settings WebhookResolver
	client   WebhookPoster
	auditor  Auditor
	logger   *logrus.Entry
}

func NewNotificationService(items repository.ItemStore, settings WebhookResolver, client WebhookPoster, auditor Auditor, logger *logrus.Logger) *NotificationService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &NotificationService{
		items:    items,
		settings: settings,
		client:   client,
		auditor:  auditor,
		logger:   logger.WithField("component", "notifications"),
	}
}

// Send posts the listed items to the category webhook. A rejected delivery
// is reported in the result, not as an error.
func (s *NotificationService) Send(ctx context.Context, actor *uuid.UUID, category notifier.Category, ids []uuid.UUID) (*NotificationResult, error) {
	url, err := s.settings.WebhookURL(category)
	if err != nil {
		return nil, err
	}

	items, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoItemsFound
	}

	result, err := s.client.Post(ctx, url, notifier.BuildPayload(category, items))
	if err != nil {
		return nil, err
	}
	metrics.RecordWebhook(string(category), result.Delivered)

	status := models.ActivityStatusSuccess
	notes := fmt.Sprintf("Sent %d items to %s webhook", len(items), category)
	if !result.Delivered {
		status = models.ActivityStatusError
		notes = fmt.Sprintf("Failed to send %d items to %s webhook: %s", len(items), category, result.Message)
		s.logger.WithFields(logrus.Fields{
			"category": category,
			"items":    len(items),
		}).Warn(result.Message)
	}
	s.auditor.Record(ctx, actor, models.ActionSendWebhook, status, notes)

	return &NotificationResult{Result: result, Category: category, ItemCount: len(items)}, nil
}
