package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"stock-service/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateCode is returned when a write would reuse an existing item code.
	ErrDuplicateCode = errors.New("item code already exists")
)

// ItemStore is the catalog persistence used by handlers and the importer.
type ItemStore interface {
	FindByCode(ctx context.Context, code string) (*models.Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)
	FilterAndOrder(ctx context.Context, filter models.ItemFilter) ([]models.Item, int64, error)

	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, id uuid.UUID, patch models.ItemPatch) (*models.Item, error)
	// UpsertByCode creates the item when code is unknown, otherwise applies
	// patch to the existing row. The bool reports whether a row was created.
	UpsertByCode(ctx context.Context, code string, patch models.ItemPatch) (*models.Item, bool, error)
	// BulkUpdateField writes value (nil clears) into field on every item.
	BulkUpdateField(ctx context.Context, field models.ResettableField, value interface{}) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)

	// Transaction runs fn against a store bound to one database transaction.
	// Writes inside fn commit together when fn returns nil.
	Transaction(ctx context.Context, fn func(tx ItemStore) error) error
}

// UploadStore persists upload history.
type UploadStore interface {
	Create(ctx context.Context, upload *models.UploadHistory) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UploadHistory, error)
	List(ctx context.Context, page, limit int) ([]models.UploadHistory, int64, error)
}

// ActivityStore persists the audit trail.
type ActivityStore interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, status *models.ActivityStatus, page, limit int) ([]models.ActivityLog, int64, error)
}

// SettingsStore loads and saves the single settings rows.
type SettingsStore interface {
	GetWebhookSettings(ctx context.Context) (*models.WebhookSettings, error)
	SaveWebhookSettings(ctx context.Context, s *models.WebhookSettings) error
	GetSystemSettings(ctx context.Context, defaultTimezone string) (*models.SystemSettings, error)
	SaveSystemSettings(ctx context.Context, s *models.SystemSettings) error
}

// UserStore persists accounts.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}
