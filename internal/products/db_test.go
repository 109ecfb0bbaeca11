package product

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/artcart-backend/pkg/db/types"
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

func mustCreateProduct(t *testing.T, db *gorm.DB, sku string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:           sku,
		Name:          "Artwork " + sku,
		BasePrice:     decimal.RequireFromString("100.00"),
		GSTPercentage: decimal.RequireFromString("18"),
		OptionGroups: dbtypes.OptionTable{
			"Size":  {"A4": json.RawMessage(`20`), "A3": json.RawMessage(`"45.50"`)},
			"Frame": {"Wood": json.RawMessage(`15`)},
		},
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
