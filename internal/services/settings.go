package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"stock-service/internal/models"
	"stock-service/internal/notifier"
	"stock-service/internal/repository"
)

var (
	ErrInvalidWebhookURL = errors.New("invalid webhook URL")
	ErrInvalidTimezone   = errors.New("invalid timezone")
)

// SettingsService keeps the settings rows in memory. It is loaded once at
// startup and is safe for concurrent use.
type SettingsService struct {
	store    repository.SettingsStore
	validate *validator.Validate

	mu       sync.RWMutex
	webhooks models.WebhookSettings
	system   models.SystemSettings
	location *time.Location
}

// LoadSettingsService reads both settings rows, creating them when missing.
func LoadSettingsService(ctx context.Context, store repository.SettingsStore, defaultTimezone string) (*SettingsService, error) {
	webhooks, err := store.GetWebhookSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load webhook settings: %w", err)
	}
	system, err := store.GetSystemSettings(ctx, defaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load system settings: %w", err)
	}
	loc, err := time.LoadLocation(system.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTimezone, system.Timezone, err)
	}

	return &SettingsService{
		store:    store,
		validate: validator.New(),
		webhooks: *webhooks,
		system:   *system,
		location: loc,
	}, nil
}

// Webhooks returns a copy of the webhook settings.
func (s *SettingsService) Webhooks() models.WebhookSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.webhooks
}

// UpdateWebhooks replaces every webhook URL.
func (s *SettingsService) UpdateWebhooks(ctx context.Context, req models.WebhookSettingsRequest) (models.WebhookSettings, error) {
	req = models.WebhookSettingsRequest{
		DefaultURL:  strings.TrimSpace(req.DefaultURL),
		StockURL:    strings.TrimSpace(req.StockURL),
		TransferURL: strings.TrimSpace(req.TransferURL),
		ExpiryURL:   strings.TrimSpace(req.ExpiryURL),
		PriceURL:    strings.TrimSpace(req.PriceURL),
	}
	if err := s.validate.Struct(req); err != nil {
		return models.WebhookSettings{}, fmt.Errorf("%w: %v", ErrInvalidWebhookURL, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.webhooks
	next.DefaultURL = req.DefaultURL
	next.StockURL = req.StockURL
	next.TransferURL = req.TransferURL
	next.ExpiryURL = req.ExpiryURL
	next.PriceURL = req.PriceURL
	if err := s.store.SaveWebhookSettings(ctx, &next); err != nil {
		return models.WebhookSettings{}, err
	}
	s.webhooks = next
	return next, nil
}

// SetWebhook sets the URL of one category. An empty url clears it.
func (s *SettingsService) SetWebhook(ctx context.Context, category notifier.Category, url string) (models.WebhookSettings, error) {
	req := models.WebhookURLRequest{URL: strings.TrimSpace(url)}
	if err := s.validate.Struct(req); err != nil {
		return models.WebhookSettings{}, fmt.Errorf("%w: %v", ErrInvalidWebhookURL, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.webhooks
	switch category {
	case notifier.CategoryStock:
		next.StockURL = req.URL
	case notifier.CategoryTransfer:
		next.TransferURL = req.URL
	case notifier.CategoryExpiry:
		next.ExpiryURL = req.URL
	case notifier.CategoryPrice:
		next.PriceURL = req.URL
	default:
		return models.WebhookSettings{}, notifier.ErrUnknownCategory
	}
	if err := s.store.SaveWebhookSettings(ctx, &next); err != nil {
		return models.WebhookSettings{}, err
	}
	s.webhooks = next
	return next, nil
}

// WebhookURL resolves the destination for category.
func (s *SettingsService) WebhookURL(category notifier.Category) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	url := s.webhooks.URLFor(string(category))
	if url == "" {
		return "", notifier.ErrWebhookNotConfigured
	}
	return url, nil
}

func (s *SettingsService) Timezone() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.system.Timezone
}

// Location is the zone activity timestamps are rendered in.
func (s *SettingsService) Location() *time.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

// SetTimezone validates name as an IANA zone and persists it.
func (s *SettingsService) SetTimezone(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("%w %q", ErrInvalidTimezone, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.system
	next.Timezone = name
	if err := s.store.SaveSystemSettings(ctx, &next); err != nil {
		return err
	}
	s.system = next
	s.location = loc
	return nil
}
