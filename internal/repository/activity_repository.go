package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"stock-service/internal/models"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

var _ ActivityStore = (*ActivityRepository)(nil)

// Create appends an activity log entry
func (r *ActivityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Omit("User").Create(entry).Error
}

// List returns activity newest first, optionally filtered by status
func (r *ActivityRepository) List(ctx context.Context, status *models.ActivityStatus, page, limit int) ([]models.ActivityLog, int64, error) {
	var entries []models.ActivityLog
	var total int64
	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	err := query.Preload("User").Order("created_at DESC").Find(&entries).Error
	return entries, total, err
}
