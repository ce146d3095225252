//go:build integration

package repository_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"stock-service/internal/importer"
	"stock-service/internal/models"
	"stock-service/internal/repository"
)

// PostgresSuite runs the repositories against a real database.
type PostgresSuite struct {
	suite.Suite
	db       *gorm.DB
	items    *repository.ItemRepository
	uploads  *repository.UploadRepository
	settings *repository.SettingsRepository
	ctx      context.Context
}

func (s *PostgresSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=stock_service_test port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		s.T().Fatalf("Failed to connect to database: %v", err)
	}
	s.db = db

	err = s.db.AutoMigrate(
		&models.Item{},
		&models.UploadHistory{},
		&models.ActivityLog{},
		&models.User{},
		&models.WebhookSettings{},
		&models.SystemSettings{},
	)
	if err != nil {
		s.T().Fatalf("Failed to run migrations: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	s.items = repository.NewItemRepository(s.db, nil, logger)
	s.uploads = repository.NewUploadRepository(s.db)
	s.settings = repository.NewSettingsRepository(s.db)
	s.ctx = context.Background()
}

func (s *PostgresSuite) SetupTest() {
	s.db.Exec("DELETE FROM items")
	s.db.Exec("DELETE FROM upload_histories")
}

func (s *PostgresSuite) TestUpsertByCode() {
	name, stock := "Apel", 5
	item, created, err := s.items.UpsertByCode(s.ctx, "A1", models.ItemPatch{Name: &name, CurrentStock: &stock})
	s.Require().NoError(err)
	s.True(created)
	s.Equal(models.DefaultCategory, item.Category)
	s.Require().NotNil(item.MinimumStock)
	s.Equal(0, *item.MinimumStock)

	stock = 9
	item, created, err = s.items.UpsertByCode(s.ctx, "A1", models.ItemPatch{CurrentStock: &stock})
	s.Require().NoError(err)
	s.False(created)
	s.Equal(9, item.CurrentStock)
	s.Equal("Apel", item.Name)

	stored, err := s.items.FindByCode(s.ctx, "A1")
	s.Require().NoError(err)
	s.Equal(9, stored.CurrentStock)
}

func (s *PostgresSuite) TestDuplicateCode() {
	s.Require().NoError(s.items.Create(s.ctx, &models.Item{Code: "D1", Name: "Satu", Category: "X"}))
	err := s.items.Create(s.ctx, &models.Item{Code: "D1", Name: "Dua", Category: "X"})
	s.True(errors.Is(err, repository.ErrDuplicateCode), "got %v", err)

	_, err = s.items.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresSuite) TestTransactionRollsBack() {
	name := "Beras"
	err := s.items.Transaction(s.ctx, func(tx repository.ItemStore) error {
		if _, _, err := tx.UpsertByCode(s.ctx, "B1", models.ItemPatch{Name: &name}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	s.Error(err)

	_, err = s.items.FindByCode(s.ctx, "B1")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresSuite) TestFilterAndBulkReset() {
	low, enough := 10, 1
	expiry := models.NewDate(time.Now().AddDate(0, 0, 3))
	s.Require().NoError(s.items.Create(s.ctx, &models.Item{Code: "L1", Name: "Low", Category: "X", CurrentStock: 2, MinimumStock: &low, ExpiryDate: &expiry}))
	s.Require().NoError(s.items.Create(s.ctx, &models.Item{Code: "O1", Name: "Ok", Category: "X", CurrentStock: 5, MinimumStock: &enough}))

	items, total, err := s.items.FilterAndOrder(s.ctx, models.ItemFilter{LowStockOnly: true})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("L1", items[0].Code)

	days := 7
	items, _, err = s.items.FilterAndOrder(s.ctx, models.ItemFilter{ExpiringWithin: &days, Sort: models.SortExpiryAsc})
	s.Require().NoError(err)
	s.Len(items, 1)

	n, err := s.items.BulkUpdateField(s.ctx, models.ResetExpiryDate, nil)
	s.Require().NoError(err)
	s.Equal(int64(2), n)
	stored, err := s.items.FindByCode(s.ctx, "L1")
	s.Require().NoError(err)
	s.Nil(stored.ExpiryDate)
}

func (s *PostgresSuite) TestReconcileAgainstPostgres() {
	csv := "Kode,Nama Barang,Kategori,Total Stok,Harga Jual\n" +
		"A1,Apel,Buah,10,\"12,500\"\n" +
		"A2,Anggur,,abc,1000\n" +
		"A1,Apel Merah,Buah,12,13000\n"
	sheet, err := importer.ParseSheet(strings.NewReader(csv), "barang.csv")
	s.Require().NoError(err)

	outcome, err := importer.NewReconciler(s.items, 100).Reconcile(s.ctx, importer.CatalogFlavor, sheet, "barang.csv")
	s.Require().NoError(err)
	s.Equal(1, outcome.Created)
	s.Equal(1, outcome.Updated)
	s.Equal(1, outcome.ErrorCount)

	stored, err := s.items.FindByCode(s.ctx, "A1")
	s.Require().NoError(err)
	s.Equal("Apel Merah", stored.Name)
	s.True(stored.SellingPrice.Equal(decimal.NewFromInt(13000)))

	_, err = s.items.FindByCode(s.ctx, "A2")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresSuite) TestSettingsRowsAreCreatedOnce() {
	first, err := s.settings.GetWebhookSettings(s.ctx)
	s.Require().NoError(err)
	first.StockURL = "https://chat.example.com/stock"
	s.Require().NoError(s.settings.SaveWebhookSettings(s.ctx, first))

	again, err := s.settings.GetWebhookSettings(s.ctx)
	s.Require().NoError(err)
	s.Equal("https://chat.example.com/stock", again.StockURL)

	sys, err := s.settings.GetSystemSettings(s.ctx, "Asia/Jakarta")
	s.Require().NoError(err)
	s.NotEmpty(sys.Timezone)
}

func (s *PostgresSuite) TestUploadsNewestFirst() {
	older := &models.UploadHistory{Flavor: "catalog", FileName: "a.csv", UploadedAt: time.Now().Add(-time.Hour)}
	newer := &models.UploadHistory{Flavor: "expiry", FileName: "b.csv", UploadedAt: time.Now()}
	s.Require().NoError(s.uploads.Create(s.ctx, older))
	s.Require().NoError(s.uploads.Create(s.ctx, newer))

	list, total, err := s.uploads.List(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Equal("b.csv", list[0].FileName)
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}
