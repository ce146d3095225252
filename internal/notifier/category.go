package notifier

import (
	"errors"
	"strings"
)

var (
	ErrUnknownCategory      = errors.New("unknown notification category")
	ErrWebhookNotConfigured = errors.New("webhook URL not configured")
)

// Category selects the webhook destination and payload shape.
type Category string

const (
	CategoryStock    Category = "stock"
	CategoryTransfer Category = "transfer"
	CategoryExpiry   Category = "expiry"
	CategoryPrice    Category = "price"
)

// legacyNames maps the page names used by older clients.
var legacyNames = map[string]Category{
	"kelola_stok":     CategoryStock,
	"transfer_stok":   CategoryTransfer,
	"data_exp_produk": CategoryExpiry,
	"kelola_harga":    CategoryPrice,
}

// Categories lists every category.
func Categories() []Category {
	return []Category{CategoryStock, CategoryTransfer, CategoryExpiry, CategoryPrice}
}

// ParseCategory accepts a category name or one of its legacy aliases.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	if c, ok := legacyNames[s]; ok {
		return c, nil
	}
	return "", ErrUnknownCategory
}
