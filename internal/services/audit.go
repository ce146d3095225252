package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"stock-service/internal/models"
	"stock-service/internal/repository"
)

// Auditor records one activity log entry. Implementations never fail the caller.
type Auditor interface {
	Record(ctx context.Context, actor *uuid.UUID, action string, status models.ActivityStatus, notes string)
}

// AuditService writes the activity log.
type AuditService struct {
	store  repository.ActivityStore
	logger *logrus.Entry
}

func NewAuditService(store repository.ActivityStore, logger *logrus.Logger) *AuditService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuditService{store: store, logger: logger.WithField("component", "audit")}
}

var _ Auditor = (*AuditService)(nil)

// Record appends an entry. Storage failures are logged and swallowed.
func (s *AuditService) Record(ctx context.Context, actor *uuid.UUID, action string, status models.ActivityStatus, notes string) {
	entry := &models.ActivityLog{
		UserID: actor,
		Action: action,
		Status: status,
		Notes:  notes,
	}
	if err := s.store.Create(ctx, entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action": action,
			"status": status,
		}).Error("Failed to write activity log")
	}
}

// List returns a page of the activity log, newest first.
func (s *AuditService) List(ctx context.Context, status *models.ActivityStatus, page, limit int) ([]models.ActivityLog, int64, error) {
	return s.store.List(ctx, status, page, limit)
}
