package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"stock-service/internal/models"
)

// MemoryItemStore is an ItemStore kept in process memory. It backs dry-run
// imports and tests. Transactions restore a snapshot on error but are not
// isolated from concurrent writers.
type MemoryItemStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*models.Item
	now   func() time.Time
}

func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{
		items: make(map[uuid.UUID]*models.Item),
		now:   time.Now,
	}
}

var _ ItemStore = (*MemoryItemStore)(nil)

func cloneItem(item *models.Item) *models.Item {
	c := *item
	models.ItemPatch{
		LatestPrice:   models.Nullable[decimal.Decimal]{Set: true, Value: item.LatestPrice},
		MinimumStock:  models.Nullable[int]{Set: true, Value: item.MinimumStock},
		TransferStock: models.Nullable[int]{Set: true, Value: item.TransferStock},
		ExpiryDate:    models.Nullable[models.Date]{Set: true, Value: item.ExpiryDate},
	}.Apply(&c)
	return &c
}

func (s *MemoryItemStore) findByCodeLocked(code string) *models.Item {
	for _, item := range s.items {
		if item.Code == code {
			return item
		}
	}
	return nil
}

// Len returns the number of stored items.
func (s *MemoryItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemoryItemStore) FindByCode(_ context.Context, code string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if item := s.findByCodeLocked(code); item != nil {
		return cloneItem(item), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryItemStore) GetByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if item, ok := s.items[id]; ok {
		return cloneItem(item), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryItemStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			items = append(items, *cloneItem(item))
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *MemoryItemStore) FilterAndOrder(_ context.Context, filter models.ItemFilter) ([]models.Item, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	var until *models.Date
	if filter.ExpiringWithin != nil {
		d := models.NewDate(s.now().AddDate(0, 0, *filter.ExpiringWithin))
		until = &d
	}

	var matched []models.Item
	for _, item := range s.items {
		if q != "" &&
			!strings.Contains(strings.ToLower(item.Name), q) &&
			!strings.Contains(strings.ToLower(item.Code), q) &&
			!strings.Contains(strings.ToLower(item.Category), q) {
			continue
		}
		if filter.LowStockOnly && !item.IsLowStock() {
			continue
		}
		if until != nil && (item.ExpiryDate == nil || item.ExpiryDate.After(until.Time)) {
			continue
		}
		matched = append(matched, *cloneItem(item))
	}

	sort.SliceStable(matched, itemLess(matched, filter.Sort))
	total := int64(len(matched))

	if filter.Page > 0 && filter.Limit > 0 {
		start := (filter.Page - 1) * filter.Limit
		if start >= len(matched) {
			return []models.Item{}, total, nil
		}
		end := start + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func itemLess(items []models.Item, by models.ItemSort) func(i, j int) bool {
	return func(i, j int) bool {
		a, b := items[i], items[j]
		switch by {
		case models.SortNameDesc:
			return a.Name > b.Name
		case models.SortCategory:
			if a.Category != b.Category {
				return a.Category < b.Category
			}
		case models.SortCategoryDesc:
			if a.Category != b.Category {
				return a.Category > b.Category
			}
		case models.SortStockAsc:
			if a.CurrentStock != b.CurrentStock {
				return a.CurrentStock < b.CurrentStock
			}
		case models.SortStockDesc:
			if a.CurrentStock != b.CurrentStock {
				return a.CurrentStock > b.CurrentStock
			}
		case models.SortPriceAsc:
			if !a.SellingPrice.Equal(b.SellingPrice) {
				return a.SellingPrice.LessThan(b.SellingPrice)
			}
		case models.SortPriceDesc:
			if !a.SellingPrice.Equal(b.SellingPrice) {
				return a.SellingPrice.GreaterThan(b.SellingPrice)
			}
		case models.SortExpiryAsc:
			switch {
			case a.ExpiryDate != nil && b.ExpiryDate == nil:
				return true
			case a.ExpiryDate == nil && b.ExpiryDate != nil:
				return false
			case a.ExpiryDate != nil && !a.ExpiryDate.Equal(b.ExpiryDate.Time):
				return a.ExpiryDate.Before(b.ExpiryDate.Time)
			}
		}
		return a.Name < b.Name
	}
}

func (s *MemoryItemStore) Create(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findByCodeLocked(item.Code) != nil {
		return ErrDuplicateCode
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := s.now()
	item.CreatedAt, item.UpdatedAt = now, now
	s.items[item.ID] = cloneItem(item)
	return nil
}

func (s *MemoryItemStore) Update(_ context.Context, id uuid.UUID, patch models.ItemPatch) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Code != nil && *patch.Code != item.Code && s.findByCodeLocked(*patch.Code) != nil {
		return nil, ErrDuplicateCode
	}
	if patch.IsEmpty() {
		return cloneItem(item), nil
	}
	patch.Apply(item)
	item.UpdatedAt = s.now()
	return cloneItem(item), nil
}

func (s *MemoryItemStore) UpsertByCode(_ context.Context, code string, patch models.ItemPatch) (*models.Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByCodeLocked(code); item != nil {
		if !patch.IsEmpty() {
			patch.Apply(item)
			item.Code = code
			item.UpdatedAt = s.now()
		}
		return cloneItem(item), false, nil
	}

	item := models.NewItem(code)
	patch.Apply(item)
	item.Code = code
	item.ID = uuid.New()
	now := s.now()
	item.CreatedAt, item.UpdatedAt = now, now
	s.items[item.ID] = item
	return cloneItem(item), true, nil
}

func (s *MemoryItemStore) BulkUpdateField(_ context.Context, field models.ResettableField, value interface{}) (int64, error) {
	var patch models.ItemPatch
	switch field {
	case models.ResetExpiryDate:
		v, err := nullableFrom[models.Date](value)
		if err != nil {
			return 0, err
		}
		patch.ExpiryDate = v
	case models.ResetTransferStock:
		v, err := nullableFrom[int](value)
		if err != nil {
			return 0, err
		}
		patch.TransferStock = v
	case models.ResetMinimumStock:
		v, err := nullableFrom[int](value)
		if err != nil {
			return 0, err
		}
		patch.MinimumStock = v
	case models.ResetLatestPrice:
		v, err := nullableFrom[decimal.Decimal](value)
		if err != nil {
			return 0, err
		}
		patch.LatestPrice = v
	default:
		return 0, fmt.Errorf("field %q cannot be bulk updated", field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, item := range s.items {
		patch.Apply(item)
		item.UpdatedAt = now
	}
	return int64(len(s.items)), nil
}

func nullableFrom[T any](value interface{}) (models.Nullable[T], error) {
	if value == nil {
		return models.SetNull[T](), nil
	}
	v, ok := value.(T)
	if !ok {
		return models.Nullable[T]{}, fmt.Errorf("unexpected value type %T", value)
	}
	return models.SetTo(v), nil
}

func (s *MemoryItemStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryItemStore) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.items))
	s.items = make(map[uuid.UUID]*models.Item)
	return n, nil
}

// Transaction restores the pre-transaction state when fn fails.
func (s *MemoryItemStore) Transaction(_ context.Context, fn func(tx ItemStore) error) error {
	s.mu.RLock()
	snapshot := make(map[uuid.UUID]*models.Item, len(s.items))
	for id, item := range s.items {
		snapshot[id] = cloneItem(item)
	}
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.items = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}
