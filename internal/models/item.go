package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned to items created by imports that carry no category column.
const DefaultCategory = "Tidak Dikategorikan"

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*d = NewDate(v)
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}

// Item is a catalog record keyed by its business code.
type Item struct {
	ID           uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Code         string           `json:"code" gorm:"type:varchar(100);not null;uniqueIndex:idx_items_code"`
	Name         string           `json:"name" gorm:"type:varchar(255);not null"`
	Category     string           `json:"category" gorm:"type:varchar(100);not null;index"`
	CurrentStock int              `json:"currentStock" gorm:"not null;default:0"`
	SellingPrice decimal.Decimal  `json:"sellingPrice" gorm:"type:decimal(15,2);not null;default:0"`
	LatestPrice  *decimal.Decimal `json:"latestPrice,omitempty" gorm:"type:decimal(15,2)"`

	// MinimumStock nil means no low-stock threshold is configured.
	MinimumStock  *int  `json:"minimumStock" gorm:"column:minimum_stock"`
	TransferStock *int  `json:"transferStock" gorm:"column:transfer_stock"`
	ExpiryDate    *Date `json:"expiryDate" gorm:"type:date;index"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewItem returns an item carrying the defaults used when an import creates a record.
func NewItem(code string) *Item {
	zero := 0
	return &Item{
		Code:         code,
		Category:     DefaultCategory,
		SellingPrice: decimal.Zero,
		MinimumStock: &zero,
	}
}

// IsLowStock reports whether the stock is below a configured minimum.
func (i *Item) IsLowStock() bool {
	return i.MinimumStock != nil && i.CurrentStock < *i.MinimumStock
}

// Nullable carries an optional update to a nullable column: Set marks the
// field as touched, a nil Value clears it.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a Nullable that writes v.
func SetTo[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// SetNull returns a Nullable that clears the column.
func SetNull[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// ItemPatch is a partial update. Nil pointers and unset Nullables leave the
// column untouched.
type ItemPatch struct {
	Code          *string
	Name          *string
	Category      *string
	CurrentStock  *int
	SellingPrice  *decimal.Decimal
	LatestPrice   Nullable[decimal.Decimal]
	MinimumStock  Nullable[int]
	TransferStock Nullable[int]
	ExpiryDate    Nullable[Date]
}

// IsEmpty reports whether the patch touches no column.
func (p ItemPatch) IsEmpty() bool {
	return len(p.Columns()) == 0
}

// Columns renders the patch as a gorm update map keyed by column name.
func (p ItemPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Code != nil {
		cols["code"] = *p.Code
	}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.CurrentStock != nil {
		cols["current_stock"] = *p.CurrentStock
	}
	if p.SellingPrice != nil {
		cols["selling_price"] = *p.SellingPrice
	}
	if p.LatestPrice.Set {
		cols["latest_price"] = nullableValue(p.LatestPrice)
	}
	if p.MinimumStock.Set {
		cols["minimum_stock"] = nullableValue(p.MinimumStock)
	}
	if p.TransferStock.Set {
		cols["transfer_stock"] = nullableValue(p.TransferStock)
	}
	if p.ExpiryDate.Set {
		cols["expiry_date"] = nullableValue(p.ExpiryDate)
	}
	return cols
}

func nullableValue[T any](n Nullable[T]) interface{} {
	if n.Value == nil {
		return nil
	}
	return *n.Value
}

// Apply writes the patch onto item in place.
func (p ItemPatch) Apply(item *Item) {
	if p.Code != nil {
		item.Code = *p.Code
	}
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.CurrentStock != nil {
		item.CurrentStock = *p.CurrentStock
	}
	if p.SellingPrice != nil {
		item.SellingPrice = *p.SellingPrice
	}
	if p.LatestPrice.Set {
		item.LatestPrice = copyPtr(p.LatestPrice.Value)
	}
	if p.MinimumStock.Set {
		item.MinimumStock = copyPtr(p.MinimumStock.Value)
	}
	if p.TransferStock.Set {
		item.TransferStock = copyPtr(p.TransferStock.Value)
	}
	if p.ExpiryDate.Set {
		item.ExpiryDate = copyPtr(p.ExpiryDate.Value)
	}
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ResettableField enumerates the columns a bulk reset may clear.
type ResettableField string

const (
	ResetExpiryDate    ResettableField = "expiry_date"
	ResetTransferStock ResettableField = "transfer_stock"
	ResetLatestPrice   ResettableField = "latest_price"
	ResetMinimumStock  ResettableField = "minimum_stock"
)

// ParseResettableField maps the URL segment of a reset endpoint to its column.
func ParseResettableField(s string) (ResettableField, bool) {
	switch s {
	case "expiry", "expiry-date":
		return ResetExpiryDate, true
	case "transfer", "transfer-stock":
		return ResetTransferStock, true
	case "latest-price":
		return ResetLatestPrice, true
	case "minimum-stock":
		return ResetMinimumStock, true
	}
	return "", false
}

// ItemSort names the orderings supported by item listings.
type ItemSort string

const (
	SortName         ItemSort = "name"
	SortNameDesc     ItemSort = "name_desc"
	SortCategory     ItemSort = "category"
	SortCategoryDesc ItemSort = "category_desc"
	SortStockAsc     ItemSort = "stock_asc"
	SortStockDesc    ItemSort = "stock_desc"
	SortPriceAsc     ItemSort = "price_asc"
	SortPriceDesc    ItemSort = "price_desc"
	SortExpiryAsc    ItemSort = "expiry_asc"
)

// OrderClause returns the SQL ORDER BY for s, falling back to name.
func (s ItemSort) OrderClause() string {
	switch s {
	case SortNameDesc:
		return "name DESC"
	case SortCategory:
		return "category ASC, name ASC"
	case SortCategoryDesc:
		return "category DESC, name ASC"
	case SortStockAsc:
		return "current_stock ASC, name ASC"
	case SortStockDesc:
		return "current_stock DESC, name ASC"
	case SortPriceAsc:
		return "selling_price ASC, name ASC"
	case SortPriceDesc:
		return "selling_price DESC, name ASC"
	case SortExpiryAsc:
		return "expiry_date ASC NULLS LAST, name ASC"
	default:
		return "name ASC"
	}
}

// ItemFilter selects and orders items for listings.
type ItemFilter struct {
	Query          string
	LowStockOnly   bool
	ExpiringWithin *int
	Sort           ItemSort
	Page           int
	Limit          int
}
