package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"stock-service/internal/models"
)

type ItemRepository struct {
	db    *gorm.DB
	redis *redis.Client
	cache *itemListCache
	// inTx is set on repositories bound to a transaction; cache
	// invalidation then waits for the commit.
	inTx bool
}

func NewItemRepository(db *gorm.DB, redisClient *redis.Client, logger *logrus.Logger) *ItemRepository {
	return &ItemRepository{
		db:    db,
		redis: redisClient,
		cache: newItemListCache(redisClient, logger),
	}
}

var _ ItemStore = (*ItemRepository)(nil)

// RedisHealth returns the health status of the redis connection.
func (r *ItemRepository) RedisHealth(ctx context.Context) error {
	if r.redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return r.redis.Ping(ctx).Err()
}

func (r *ItemRepository) invalidate(ctx context.Context) {
	if r.inTx {
		return
	}
	r.cache.invalidate(ctx)
}

// translateError maps gorm errors onto repository sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateCode
	}
	return err
}

// FindByCode retrieves an item by business code
func (r *ItemRepository) FindByCode(ctx context.Context, code string) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&item).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// GetByID retrieves an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// FindByIDs returns the items matching ids ordered by name. Unknown ids are ignored.
func (r *ItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	var items []models.Item
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&items).Error
	return items, err
}

// FilterAndOrder lists items matching filter with pagination
func (r *ItemRepository) FilterAndOrder(ctx context.Context, filter models.ItemFilter) ([]models.Item, int64, error) {
	if !r.inTx {
		if items, total, ok := r.cache.get(ctx, filter); ok {
			return items, total, nil
		}
	}

	var items []models.Item
	var total int64
	query := r.db.WithContext(ctx).Model(&models.Item{})

	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where("(name ILIKE ? OR code ILIKE ? OR category ILIKE ?)", like, like, like)
	}
	if filter.LowStockOnly {
		query = query.Where("minimum_stock IS NOT NULL AND current_stock < minimum_stock")
	}
	if filter.ExpiringWithin != nil {
		until := models.NewDate(time.Now().AddDate(0, 0, *filter.ExpiringWithin))
		query = query.Where("expiry_date IS NOT NULL AND expiry_date <= ?", until)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.Limit > 0 {
		offset := (filter.Page - 1) * filter.Limit
		query = query.Offset(offset).Limit(filter.Limit)
	}

	if err := query.Order(filter.Sort.OrderClause()).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	if !r.inTx {
		r.cache.set(ctx, filter, items, total)
	}
	return items, total, nil
}

// Create inserts a new item
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return translateError(err)
	}
	r.invalidate(ctx)
	return nil
}

// Update applies patch to the item and returns the stored row
func (r *ItemRepository) Update(ctx context.Context, id uuid.UUID, patch models.ItemPatch) (*models.Item, error) {
	item, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cols := patch.Columns()
	if len(cols) == 0 {
		return item, nil
	}
	cols["updated_at"] = time.Now()

	if err := r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Updates(cols).Error; err != nil {
		return nil, translateError(err)
	}
	patch.Apply(item)
	r.invalidate(ctx)
	return item, nil
}

// UpsertByCode creates or partially updates the item keyed by code. The
// write runs in a nested transaction, so inside Transaction a failing row
// rolls back to its own savepoint without aborting the outer batch.
func (r *ItemRepository) UpsertByCode(ctx context.Context, code string, patch models.ItemPatch) (*models.Item, bool, error) {
	var item models.Item
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("code = ?", code).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fresh := models.NewItem(code)
			patch.Apply(fresh)
			fresh.Code = code
			fresh.ID = uuid.New()
			if err := tx.Create(fresh).Error; err != nil {
				return err
			}
			item = *fresh
			created = true
			return nil
		}
		if err != nil {
			return err
		}

		cols := patch.Columns()
		if len(cols) == 0 {
			return nil
		}
		cols["updated_at"] = time.Now()
		if err := tx.Model(&models.Item{}).Where("id = ?", item.ID).Updates(cols).Error; err != nil {
			return err
		}
		patch.Apply(&item)
		return nil
	})
	if err != nil {
		return nil, false, translateError(err)
	}

	r.invalidate(ctx)
	return &item, created, nil
}

// BulkUpdateField writes value into field across all items
func (r *ItemRepository) BulkUpdateField(ctx context.Context, field models.ResettableField, value interface{}) (int64, error) {
	switch field {
	case models.ResetExpiryDate, models.ResetTransferStock, models.ResetLatestPrice, models.ResetMinimumStock:
	default:
		return 0, fmt.Errorf("field %q cannot be bulk updated", field)
	}

	result := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("1 = 1").
		Updates(map[string]interface{}{
			string(field): value,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	r.invalidate(ctx)
	return result.RowsAffected, nil
}

// Delete permanently removes an item
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Item{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	r.invalidate(ctx)
	return nil
}

// DeleteAll permanently removes every item
func (r *ItemRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Item{})
	if result.Error != nil {
		return 0, result.Error
	}
	r.invalidate(ctx)
	return result.RowsAffected, nil
}

// Transaction runs fn inside one database transaction
func (r *ItemRepository) Transaction(ctx context.Context, fn func(tx ItemStore) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ItemRepository{db: tx, redis: r.redis, cache: r.cache, inTx: true})
	})
	if err != nil {
		return translateError(err)
	}
	r.invalidate(ctx)
	return nil
}
