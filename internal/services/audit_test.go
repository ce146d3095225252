package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"stock-service/internal/models"
)

func TestAuditService_Record(t *testing.T) {
	store := new(MockActivityStore)
	actor := uuid.New()
	store.On("Create", mock.Anything, mock.MatchedBy(func(e *models.ActivityLog) bool {
		return e.UserID != nil && *e.UserID == actor &&
			e.Action == models.ActionCreateItem &&
			e.Status == models.ActivityStatusSuccess &&
			e.Notes == "Created item A1"
	})).Return(nil)

	NewAuditService(store, nil).Record(context.Background(), &actor, models.ActionCreateItem, models.ActivityStatusSuccess, "Created item A1")

	store.AssertExpectations(t)
}

func TestAuditService_RecordSwallowsStorageErrors(t *testing.T) {
	store := new(MockActivityStore)
	store.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	logger, hook := test.NewNullLogger()

	assert.NotPanics(t, func() {
		NewAuditService(store, logger).Record(context.Background(), nil, models.ActionLogin, models.ActivityStatusFailed, "")
	})

	if assert.Len(t, hook.AllEntries(), 1) {
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	}
}
