package notifier

import (
	"strings"

	"github.com/shopspring/decimal"
	"stock-service/internal/models"
)

// Payload is the JSON body posted to a webhook.
type Payload struct {
	Products []map[string]interface{} `json:"produk"`
}

// BuildPayload renders items with the fields relevant to category.
func BuildPayload(category Category, items []models.Item) Payload {
	products := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		p := map[string]interface{}{
			"kode_barang": item.Code,
			"nama_barang": item.Name,
			"kategori":    item.Category,
		}
		switch category {
		case CategoryStock:
			p["stok"] = item.CurrentStock
			p["harga"] = FormatRupiah(item.SellingPrice)
			p["stok_minimum"] = item.MinimumStock
		case CategoryTransfer:
			p["stok_transfer"] = item.TransferStock
		case CategoryExpiry:
			p["stok"] = item.CurrentStock
			p["tanggal_expired"] = nil
			if item.ExpiryDate != nil {
				p["tanggal_expired"] = item.ExpiryDate.String()
			}
		case CategoryPrice:
			p["harga"] = FormatRupiah(item.SellingPrice)
			p["harga_terbaru"] = nil
			if item.LatestPrice != nil {
				p["harga_terbaru"] = FormatRupiah(*item.LatestPrice)
			}
		}
		products = append(products, p)
	}
	return Payload{Products: products}
}

// FormatRupiah renders d rounded to whole rupiah with dot thousands
// separators, e.g. "Rp 1.100".
func FormatRupiah(d decimal.Decimal) string {
	digits := d.Abs().Round(0).StringFixed(0)

	var b strings.Builder
	if d.Round(0).IsNegative() {
		b.WriteString("-")
	}
	b.WriteString("Rp ")
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(".")
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
