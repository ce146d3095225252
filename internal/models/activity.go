package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityStatus is the outcome recorded for an audited action.
type ActivityStatus string

const (
	ActivityStatusSuccess ActivityStatus = "success"
	ActivityStatusFailed  ActivityStatus = "failed"
	ActivityStatusError   ActivityStatus = "error"
	ActivityStatusPartial ActivityStatus = "partial"
)

// Activity action labels.
const (
	ActionLogin              = "login"
	ActionLogout             = "logout"
	ActionChangePassword     = "change_password"
	ActionUploadCatalog      = "upload_catalog_file"
	ActionUploadTransfer     = "upload_transfer_file"
	ActionUploadExpiry       = "upload_expiry_file"
	ActionCreateItem         = "create_item"
	ActionUpdateItem         = "update_item"
	ActionDeleteItem         = "delete_item"
	ActionDeleteAllItems     = "reset_all_items"
	ActionUpdateMinimumStock = "update_minimum_stock"
	ActionDeleteMinimumStock = "delete_minimum_stock"
	ActionUpdateTransfer     = "update_transfer_stock"
	ActionDeleteTransfer     = "delete_transfer_stock"
	ActionSaveExpiryDate     = "save_expiry_date"
	ActionSaveLatestPrice    = "save_latest_price"
	ActionResetField         = "reset_field"
	ActionSendWebhook        = "send_webhook"
	ActionUpdateWebhooks     = "update_webhook_settings"
	ActionUpdateTimezone     = "update_timezone"
)

// ActivityLog is an append-only audit record.
type ActivityLog struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    *uuid.UUID     `json:"userId,omitempty" gorm:"type:uuid;index"`
	User      *User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Action    string         `json:"action" gorm:"type:varchar(100);not null;index"`
	Status    ActivityStatus `json:"status" gorm:"type:varchar(20);not null;default:'success'"`
	Notes     string         `json:"notes" gorm:"type:text"`
	CreatedAt time.Time      `json:"createdAt" gorm:"index"`
}
