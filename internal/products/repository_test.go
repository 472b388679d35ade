package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront-backend/pkg/db/models"
	pkgerrors "storefront-backend/pkg/errors"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price_cents INTEGER NOT NULL,
  discount_percent INTEGER NOT NULL DEFAULT 0,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		Name:       "Ceramic Mug",
		PriceCents: 1450,
		StockQty:   stock,
		IsActive:   true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestDecrementStock_TakesExactlyOnce(t *testing.T) {
	t.Parallel()

	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	product := seedProduct(t, db, 1)

	// Two buyers race for the last unit; the conditional update lets
	// exactly one through.
	first := repo.DecrementStock(ctx, product.ID, 1)
	second := repo.DecrementStock(ctx, product.ID, 1)

	require.NoError(t, first)
	require.Error(t, second)
	assert.True(t, pkgerrors.HasCode(second, pkgerrors.CodeConflict))

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 0, got.StockQty)
}

func TestDecrementStock_InsufficientLeavesRowUntouched(t *testing.T) {
	t.Parallel()

	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	product := seedProduct(t, db, 3)

	err := repo.DecrementStock(ctx, product.ID, 5)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 3, got.StockQty)
}

func TestDecrementStock_RejectsNonPositiveQty(t *testing.T) {
	t.Parallel()

	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	err := repo.DecrementStock(context.Background(), uuid.New(), 0)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestRestoreStock(t *testing.T) {
	t.Parallel()

	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	product := seedProduct(t, db, 2)

	require.NoError(t, repo.DecrementStock(ctx, product.ID, 2))
	require.NoError(t, repo.RestoreStock(ctx, product.ID, 2))

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 2, got.StockQty)

	require.Error(t, repo.RestoreStock(ctx, uuid.New(), 1))
}

func TestFindByIDs_SkipsMissing(t *testing.T) {
	t.Parallel()

	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	a := seedProduct(t, db, 4)
	missing := uuid.New()

	snapshots, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, missing})
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, a.Name, snapshots[a.ID].Name)
}

func TestFindByID_NotFound(t *testing.T) {
	t.Parallel()

	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
