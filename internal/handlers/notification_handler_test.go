package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"stock-service/internal/notifier"
	"stock-service/internal/services"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, actor *uuid.UUID, category notifier.Category, ids []uuid.UUID) (*services.NotificationResult, error) {
	args := m.Called(ctx, actor, category, ids)
	result, _ := args.Get(0).(*services.NotificationResult)
	return result, args.Error(1)
}

func TestNotificationHandler_Send(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	tests := []struct {
		name     string
		category string
		body     interface{}
		result   *services.NotificationResult
		err      error
		status   int
		code     string
	}{
		{
			name:     "delivered",
			category: "transfer_stok",
			body:     map[string]interface{}{"itemIds": ids},
			result:   &services.NotificationResult{Result: notifier.Result{Delivered: true, StatusCode: 200}, Category: notifier.CategoryTransfer, ItemCount: 2},
			status:   http.StatusOK,
		},
		{
			name:     "rejected by webhook",
			category: "stock",
			body:     map[string]interface{}{"itemIds": ids},
			result:   &services.NotificationResult{Result: notifier.Result{StatusCode: 500, Message: "HTTP 500"}, Category: notifier.CategoryStock, ItemCount: 2},
			status:   http.StatusBadGateway,
		},
		{name: "unknown category", category: "orders", body: map[string]interface{}{"itemIds": ids}, status: http.StatusBadRequest, code: "UNKNOWN_CATEGORY"},
		{name: "no selection", category: "stock", body: map[string]interface{}{"itemIds": []uuid.UUID{}}, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "not configured", category: "expiry", body: map[string]interface{}{"itemIds": ids}, err: notifier.ErrWebhookNotConfigured, status: http.StatusBadRequest, code: "WEBHOOK_NOT_CONFIGURED"},
		{name: "items gone", category: "price", body: map[string]interface{}{"itemIds": ids}, err: services.ErrNoItemsFound, status: http.StatusNotFound, code: "ITEMS_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := new(MockNotifier)
			if tt.result != nil || tt.err != nil {
				category, err := notifier.ParseCategory(tt.category)
				require.NoError(t, err)
				n.On("Send", mock.Anything, mock.MatchedBy(func(a *uuid.UUID) bool { return a != nil && *a == testUserID }), category, ids).
					Return(tt.result, tt.err).Once()
			}
			h := NewNotificationHandler(n, nil)
			r, api := newRouter()
			api.POST("/notifications/:category", h.Send)

			w := doJSON(t, r, http.MethodPost, "/api/v1/notifications/"+tt.category, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decode(t, w, nil).Error.Code)
			}
			n.AssertExpectations(t)
		})
	}
}
