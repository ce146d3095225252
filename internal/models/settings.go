package models

import "time"

// settingsRowID is the primary key of the single settings rows.
const settingsRowID = 1

// WebhookSettings holds the destination URL of every notification category.
type WebhookSettings struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	DefaultURL  string    `json:"defaultUrl" gorm:"type:varchar(500)"`
	StockURL    string    `json:"stockUrl" gorm:"type:varchar(500)"`
	TransferURL string    `json:"transferUrl" gorm:"type:varchar(500)"`
	ExpiryURL   string    `json:"expiryUrl" gorm:"type:varchar(500)"`
	PriceURL    string    `json:"priceUrl" gorm:"type:varchar(500)"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewWebhookSettings returns the empty settings row.
func NewWebhookSettings() *WebhookSettings {
	return &WebhookSettings{ID: settingsRowID}
}

// URLFor returns the URL configured for a notification category, falling
// back to DefaultURL. Unknown categories get DefaultURL.
func (w *WebhookSettings) URLFor(category string) string {
	var url string
	switch category {
	case "stock":
		url = w.StockURL
	case "transfer":
		url = w.TransferURL
	case "expiry":
		url = w.ExpiryURL
	case "price":
		url = w.PriceURL
	}
	if url == "" {
		return w.DefaultURL
	}
	return url
}

// DefaultTimezone is used until an admin picks another zone.
const DefaultTimezone = "Asia/Jakarta"

// SystemSettings holds instance-wide preferences.
type SystemSettings struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Timezone  string    `json:"timezone" gorm:"type:varchar(64);not null;default:'Asia/Jakarta'"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSystemSettings returns the settings row with tz as its timezone.
func NewSystemSettings(tz string) *SystemSettings {
	if tz == "" {
		tz = DefaultTimezone
	}
	return &SystemSettings{ID: settingsRowID, Timezone: tz}
}
