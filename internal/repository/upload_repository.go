package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"stock-service/internal/models"
)

type UploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

var _ UploadStore = (*UploadRepository)(nil)

// Create appends an upload history row
func (r *UploadRepository) Create(ctx context.Context, upload *models.UploadHistory) error {
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(upload).Error
}

// GetByID retrieves an upload history row by ID
func (r *UploadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UploadHistory, error) {
	var upload models.UploadHistory
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&upload).Error; err != nil {
		return nil, translateError(err)
	}
	return &upload, nil
}

// List returns upload history newest first
func (r *UploadRepository) List(ctx context.Context, page, limit int) ([]models.UploadHistory, int64, error) {
	var uploads []models.UploadHistory
	var total int64
	query := r.db.WithContext(ctx).Model(&models.UploadHistory{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	err := query.Order("uploaded_at DESC").Find(&uploads).Error
	return uploads, total, err
}
