package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"stock-service/internal/models"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

var _ SettingsStore = (*SettingsRepository)(nil)

// GetWebhookSettings returns the webhook settings row, creating it on first use
func (r *SettingsRepository) GetWebhookSettings(ctx context.Context) (*models.WebhookSettings, error) {
	settings := models.NewWebhookSettings()
	err := r.db.WithContext(ctx).Where("id = ?", settings.ID).First(settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.WithContext(ctx).Create(settings).Error; err != nil {
			return nil, err
		}
		return settings, nil
	}
	return settings, err
}

func (r *SettingsRepository) SaveWebhookSettings(ctx context.Context, s *models.WebhookSettings) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// GetSystemSettings returns the system settings row, creating it with
// defaultTimezone on first use
func (r *SettingsRepository) GetSystemSettings(ctx context.Context, defaultTimezone string) (*models.SystemSettings, error) {
	settings := models.NewSystemSettings(defaultTimezone)
	err := r.db.WithContext(ctx).Where("id = ?", settings.ID).First(settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.WithContext(ctx).Create(settings).Error; err != nil {
			return nil, err
		}
		return settings, nil
	}
	return settings, err
}

func (r *SettingsRepository) SaveSystemSettings(ctx context.Context, s *models.SystemSettings) error {
	return r.db.WithContext(ctx).Save(s).Error
}
