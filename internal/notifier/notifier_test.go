package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stock-service/internal/models"
)

func TestParseCategory(t *testing.T) {
	for input, want := range map[string]Category{
		"stock":           CategoryStock,
		" Transfer ":      CategoryTransfer,
		"kelola_stok":     CategoryStock,
		"data_exp_produk": CategoryExpiry,
		"kelola_harga":    CategoryPrice,
	} {
		got, err := ParseCategory(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseCategory("packing")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestFormatRupiah(t *testing.T) {
	tests := map[string]string{
		"0":         "Rp 0",
		"999":       "Rp 999",
		"1100":      "Rp 1.100",
		"15000.50":  "Rp 15.001",
		"1234567":   "Rp 1.234.567",
		"-2500":     "-Rp 2.500",
		"100000000": "Rp 100.000.000",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatRupiah(decimal.RequireFromString(in)), in)
	}
}

func TestBuildPayload(t *testing.T) {
	minimum := 5
	latest := decimal.NewFromInt(1250)
	expiry := models.NewDate(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	items := []models.Item{{
		Code:         "A1",
		Name:         "Kopi",
		Category:     "Minuman",
		CurrentStock: 3,
		SellingPrice: decimal.NewFromInt(1100),
		MinimumStock: &minimum,
		LatestPrice:  &latest,
		ExpiryDate:   &expiry,
	}}

	stock := BuildPayload(CategoryStock, items).Products[0]
	assert.Equal(t, "A1", stock["kode_barang"])
	assert.Equal(t, "Rp 1.100", stock["harga"])
	assert.Equal(t, 3, stock["stok"])
	assert.NotContains(t, stock, "tanggal_expired")

	expiryPayload := BuildPayload(CategoryExpiry, items).Products[0]
	assert.Equal(t, "2025-12-31", expiryPayload["tanggal_expired"])

	price := BuildPayload(CategoryPrice, items).Products[0]
	assert.Equal(t, "Rp 1.250", price["harga_terbaru"])

	transfer := BuildPayload(CategoryTransfer, items).Products[0]
	assert.Contains(t, transfer, "stok_transfer")
	assert.NotContains(t, transfer, "harga")

	data, err := json.Marshal(BuildPayload(CategoryStock, items))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"produk":[`)
}

func TestClientPost(t *testing.T) {
	var received Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(time.Second, nil)
	payload := BuildPayload(CategoryTransfer, []models.Item{{Code: "B1", Name: "Beras"}})

	result, err := client.Post(context.Background(), server.URL, payload)
	require.NoError(t, err)
	assert.True(t, result.Delivered)
	require.Len(t, received.Products, 1)
	assert.Equal(t, "B1", received.Products[0]["kode_barang"])
}

func TestClientPost_FailuresAreResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(time.Second, nil)

	result, err := client.Post(context.Background(), server.URL, Payload{})
	require.NoError(t, err)
	assert.False(t, result.Delivered)
	assert.Equal(t, http.StatusBadGateway, result.StatusCode)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	result, err = NewClient(50*time.Millisecond, nil).Post(context.Background(), slow.URL, Payload{})
	require.NoError(t, err)
	assert.False(t, result.Delivered)
	assert.NotEmpty(t, result.Message)
}
