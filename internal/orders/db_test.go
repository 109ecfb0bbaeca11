package orders

import (
	"testing"
	"time"

	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func mustCreateProduct(t *testing.T, db *gorm.DB, sku string, stock int) {
	t.Helper()
	require.NoError(t, db.Create(&models.Product{
		SKU:           sku,
		Name:          "Artwork " + sku,
		BasePrice:     decimal.RequireFromString("100"),
		GSTPercentage: decimal.RequireFromString("18"),
		Stock:         stock,
		IsActive:      true,
	}).Error)
}

func stockOf(t *testing.T, db *gorm.DB, sku string) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, "sku = ?", sku).Error)
	return p.Stock
}

func newOrder(userID *uuid.UUID, createdAt time.Time, items ...models.OrderItem) *models.Order {
	return &models.Order{
		Number:         "AC-" + uuid.NewString()[:8],
		UserID:         userID,
		CustomerName:   "Meera",
		Email:          "meera@example.com",
		Phone:          "9876543210",
		AddressLine1:   "12 Lake Road",
		City:           "Pune",
		State:          "MH",
		PostalCode:     "411001",
		Subtotal:       decimal.RequireFromString("240"),
		GSTTotal:       decimal.RequireFromString("43.2"),
		ShippingCharge: decimal.RequireFromString("50"),
		GrandTotal:     decimal.RequireFromString("333.2"),
		ItemCount:      2,
		PaymentMethod:  enums.PaymentMethodUPI,
		PaymentStatus:  enums.PaymentStatusPendingVerification,
		Status:         enums.OrderStatusPlaced,
		Items:          items,
		CreatedAt:      createdAt.UTC(),
	}
}

func item(sku string, qty int) models.OrderItem {
	return models.OrderItem{
		LineID:             sku,
		SKU:                sku,
		Name:               "Artwork " + sku,
		Quantity:           qty,
		PriceBeforeOptions: decimal.RequireFromString("100"),
		UnitPriceBeforeGST: decimal.RequireFromString("120"),
		GSTPercentage:      decimal.RequireFromString("18"),
		GSTAmount:          decimal.RequireFromString("43.2"),
		LineTotal:          decimal.RequireFromString("283.2"),
	}
}
