package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// NewPaginationMeta computes the page count for total rows.
func NewPaginationMeta(page, limit int, total int64) *PaginationMeta {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &PaginationMeta{Page: page, Limit: limit, TotalItems: total, TotalPages: pages}
}

type ListResponse struct {
	Success    bool            `json:"success"`
	Data       interface{}     `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// ========== Item Requests ==========

type CreateItemRequest struct {
	Code          string           `json:"code" binding:"required,max=100"`
	Name          string           `json:"name" binding:"required,max=255"`
	Category      string           `json:"category" binding:"max=100"`
	CurrentStock  int              `json:"currentStock" binding:"min=0"`
	SellingPrice  decimal.Decimal  `json:"sellingPrice"`
	LatestPrice   *decimal.Decimal `json:"latestPrice,omitempty"`
	MinimumStock  *int             `json:"minimumStock,omitempty" binding:"omitempty,min=0"`
	TransferStock *int             `json:"transferStock,omitempty" binding:"omitempty,min=0"`
	ExpiryDate    *Date            `json:"expiryDate,omitempty"`
}

type UpdateItemRequest struct {
	Code         *string          `json:"code,omitempty" binding:"omitempty,min=1,max=100"`
	Name         *string          `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Category     *string          `json:"category,omitempty" binding:"omitempty,max=100"`
	CurrentStock *int             `json:"currentStock,omitempty" binding:"omitempty,min=0"`
	SellingPrice *decimal.Decimal `json:"sellingPrice,omitempty"`
}

type MinimumStockRequest struct {
	MinimumStock *int `json:"minimumStock" binding:"required,min=0"`
}

type TransferStockRequest struct {
	TransferStock *int `json:"transferStock" binding:"required,min=0"`
}

// ExpiryDateRequest clears the expiry date when ExpiryDate is empty.
type ExpiryDateRequest struct {
	ExpiryDate string `json:"expiryDate"`
}

// LatestPriceRequest clears the latest price when LatestPrice is null.
type LatestPriceRequest struct {
	LatestPrice *decimal.Decimal `json:"latestPrice"`
}

// ========== Auth Requests ==========

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
	User      *User  `json:"user"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ========== Settings Requests ==========

type WebhookSettingsRequest struct {
	DefaultURL  string `json:"defaultUrl" validate:"omitempty,http_url"`
	StockURL    string `json:"stockUrl" validate:"omitempty,http_url"`
	TransferURL string `json:"transferUrl" validate:"omitempty,http_url"`
	ExpiryURL   string `json:"expiryUrl" validate:"omitempty,http_url"`
	PriceURL    string `json:"priceUrl" validate:"omitempty,http_url"`
}

type WebhookURLRequest struct {
	URL string `json:"url" validate:"omitempty,http_url"`
}

type TimezoneRequest struct {
	Timezone string `json:"timezone" validate:"required"`
}

// ========== Notification Requests ==========

type NotifyRequest struct {
	ItemIDs []uuid.UUID `json:"itemIds" binding:"required,min=1,max=500"`
}
