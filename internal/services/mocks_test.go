package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"stock-service/internal/models"
	"stock-service/internal/notifier"
	"stock-service/internal/repository"
)

type MockAuditor struct {
	mock.Mock
}

func (m *MockAuditor) Record(ctx context.Context, actor *uuid.UUID, action string, status models.ActivityStatus, notes string) {
	m.Called(ctx, actor, action, status, notes)
}

type MockActivityStore struct {
	mock.Mock
}

func (m *MockActivityStore) Create(ctx context.Context, entry *models.ActivityLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockActivityStore) List(ctx context.Context, status *models.ActivityStatus, page, limit int) ([]models.ActivityLog, int64, error) {
	args := m.Called(ctx, status, page, limit)
	return args.Get(0).([]models.ActivityLog), args.Get(1).(int64), args.Error(2)
}

type MockWebhookPoster struct {
	mock.Mock
}

func (m *MockWebhookPoster) Post(ctx context.Context, url string, payload interface{}) (notifier.Result, error) {
	args := m.Called(ctx, url, payload)
	return args.Get(0).(notifier.Result), args.Error(1)
}

type memorySettingsStore struct {
	mu       sync.Mutex
	webhooks *models.WebhookSettings
	system   *models.SystemSettings
	saves    int
}

func (s *memorySettingsStore) GetWebhookSettings(context.Context) (*models.WebhookSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.webhooks == nil {
		s.webhooks = models.NewWebhookSettings()
	}
	w := *s.webhooks
	return &w, nil
}

func (s *memorySettingsStore) SaveWebhookSettings(_ context.Context, w *models.WebhookSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *w
	s.webhooks = &c
	s.saves++
	return nil
}

func (s *memorySettingsStore) GetSystemSettings(_ context.Context, defaultTimezone string) (*models.SystemSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.system == nil {
		s.system = models.NewSystemSettings(defaultTimezone)
	}
	c := *s.system
	return &c, nil
}

func (s *memorySettingsStore) SaveSystemSettings(_ context.Context, st *models.SystemSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *st
	s.system = &c
	s.saves++
	return nil
}

type memoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemoryUserStore(users ...*models.User) *memoryUserStore {
	s := &memoryUserStore{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, repository.ErrNotFound
}

func (s *memoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *memoryUserStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

type memoryDenylist struct {
	revoked map[string]bool
}

func (d *memoryDenylist) Revoke(_ context.Context, jti string, _ time.Time) error {
	d.revoked[jti] = true
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	return d.revoked[jti], nil
}
