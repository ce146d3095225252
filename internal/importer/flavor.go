package importer

import (
	"fmt"
	"strings"

	"stock-service/internal/models"
)

// Column is a logical spreadsheet column independent of its header text.
type Column string

const (
	ColumnCode         Column = "code"
	ColumnName         Column = "name"
	ColumnCategory     Column = "category"
	ColumnStock        Column = "stock"
	ColumnPrice        Column = "price"
	ColumnMinimumStock Column = "minimum_stock"
	ColumnExpiryDate   Column = "expiry_date"
)

// columnHeaders lists accepted header texts; the first is used in templates.
var columnHeaders = map[Column][]string{
	ColumnCode:         {"Kode", "Kode Barang", "code"},
	ColumnName:         {"Nama Barang", "name"},
	ColumnCategory:     {"Kategori", "category"},
	ColumnStock:        {"Total Stok", "stock"},
	ColumnPrice:        {"Harga Jual", "price"},
	ColumnMinimumStock: {"Stok Minimum", "minimum_stock"},
	ColumnExpiryDate:   {"Tanggal Expired", "expiry_date"},
}

// Header returns the canonical header text of c.
func (c Column) Header() string {
	if aliases := columnHeaders[c]; len(aliases) > 0 {
		return aliases[0]
	}
	return string(c)
}

func (c Column) matches(header string) bool {
	for _, alias := range columnHeaders[c] {
		if normalizeHeader(alias) == header {
			return true
		}
	}
	return false
}

// normalizeHeader lower-cases and trims a header and drops the " *"
// required marker written by generated templates.
func normalizeHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimSuffix(h, "*")
	return strings.ToLower(strings.TrimSpace(h))
}

// Field declares one column a flavor reads.
type Field struct {
	Column   Column
	Required bool
	// Strict makes an unparseable value a row error; otherwise it becomes zero.
	Strict      bool
	Description string
	Example     string
}

// Flavor is one import endpoint: its columns, update scope and file policy.
type Flavor struct {
	Name   string
	Action string
	Fields []Field
	// SkipRows drops rows directly below the header.
	SkipRows int
	// Retain archives the uploaded file instead of discarding it.
	Retain       bool
	Instructions string
}

var (
	CatalogFlavor = Flavor{
		Name:   "catalog",
		Action: models.ActionUploadCatalog,
		Fields: []Field{
			{Column: ColumnCode, Required: true, Description: "Kode unik barang", Example: "BRG-001"},
			{Column: ColumnName, Required: true, Description: "Nama barang", Example: "Kopi Bubuk 200g"},
			{Column: ColumnCategory, Required: true, Description: "Kategori barang", Example: "Minuman"},
			{Column: ColumnStock, Required: true, Strict: true, Description: "Jumlah stok saat ini", Example: "24"},
			{Column: ColumnPrice, Required: true, Strict: true, Description: "Harga jual", Example: "15000"},
		},
		Retain: true,
	}

	TransferFlavor = Flavor{
		Name:   "transfer",
		Action: models.ActionUploadTransfer,
		Fields: []Field{
			{Column: ColumnCode, Required: true, Description: "Kode unik barang", Example: "BRG-001"},
			{Column: ColumnName, Required: true, Description: "Nama barang", Example: "Kopi Bubuk 200g"},
			{Column: ColumnStock, Required: true, Description: "Jumlah stok saat ini", Example: "24"},
			{Column: ColumnMinimumStock, Description: "Batas stok minimum (opsional)", Example: "10"},
		},
		SkipRows:     1,
		Instructions: "Isi data mulai baris ke-3. Baris ini diabaikan saat import.",
	}

	ExpiryFlavor = Flavor{
		Name:   "expiry",
		Action: models.ActionUploadExpiry,
		Fields: []Field{
			{Column: ColumnCode, Required: true, Description: "Kode unik barang", Example: "BRG-001"},
			{Column: ColumnName, Required: true, Description: "Nama barang", Example: "Kopi Bubuk 200g"},
			{Column: ColumnStock, Required: true, Strict: true, Description: "Jumlah stok saat ini", Example: "24"},
			{Column: ColumnExpiryDate, Required: true, Description: "Tanggal kedaluwarsa (YYYY-MM-DD atau DD/MM/YYYY)", Example: "2025-12-31"},
		},
		Retain: true,
	}
)

// Flavors lists every import flavor.
func Flavors() []Flavor {
	return []Flavor{CatalogFlavor, TransferFlavor, ExpiryFlavor}
}

// FlavorByName returns the flavor registered under name.
func FlavorByName(name string) (Flavor, error) {
	for _, f := range Flavors() {
		if f.Name == name {
			return f, nil
		}
	}
	return Flavor{}, fmt.Errorf("%w: %q", ErrUnknownFlavor, name)
}

// columnIndex maps each resolved column to its position in the header row.
type columnIndex map[Column]int

// resolveColumns locates the flavor's columns in header. Missing required
// columns are a structural error; missing optional columns are left out.
func (f Flavor) resolveColumns(header []string) (columnIndex, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}

	index := make(columnIndex, len(f.Fields))
	var missing []string
	for _, field := range f.Fields {
		pos := -1
		for i, h := range normalized {
			if field.Column.matches(h) {
				pos = i
				break
			}
		}
		if pos >= 0 {
			index[field.Column] = pos
			continue
		}
		if field.Required {
			missing = append(missing, field.Column.Header())
		}
	}

	if len(missing) > 0 {
		return nil, &StructuralError{Err: ErrMissingColumns, Missing: missing}
	}
	return index, nil
}
