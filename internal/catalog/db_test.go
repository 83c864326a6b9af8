package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avelasquez/storefront-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	items := `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  unit_price NUMERIC NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  max_per_customer INTEGER,
  code TEXT,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	codeIndex := `CREATE UNIQUE INDEX IF NOT EXISTS idx_items_code ON items (code) WHERE code IS NOT NULL;`

	require.NoError(t, db.Exec(items).Error)
	require.NoError(t, db.Exec(codeIndex).Error)
	return db
}

func mustCreateTestItem(t *testing.T, db *gorm.DB, stock int, cap *int) *models.Item {
	t.Helper()
	item := &models.Item{
		ID:             uuid.New(),
		Name:           "Test Item",
		UnitPrice:      decimal.RequireFromString("9.99"),
		Stock:          stock,
		MaxPerCustomer: cap,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}
