package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ruizcommerce/storefront-backend/pkg/db/models"
	"github.com/ruizcommerce/storefront-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL UNIQUE,
  customer_id TEXT,
  currency TEXT NOT NULL DEFAULT 'BDT',
  status TEXT NOT NULL DEFAULT 'pending',
  subtotal_minor INTEGER NOT NULL,
  discount_minor INTEGER NOT NULL DEFAULT 0,
  shipping_minor INTEGER NOT NULL DEFAULT 0,
  total_minor INTEGER NOT NULL,
  coupon_code TEXT,
  shipping_zone TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  title TEXT NOT NULL,
  unit_price_minor INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  line_total_minor INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(lineItems).Error)
	return db
}

func sampleOrder(customerID *uuid.UUID, couponCode *string, number int64) *models.Order {
	return &models.Order{
		OrderNumber:   number,
		CustomerID:    customerID,
		SubtotalMinor: 500000,
		DiscountMinor: 50000,
		ShippingMinor: 12000,
		TotalMinor:    462000,
		CouponCode:    couponCode,
		Lines: []models.OrderLineItem{{
			VariantID:      uuid.New(),
			ProductID:      uuid.New(),
			SKU:            "RZ-SUB-41",
			Title:          "Submariner Date 41",
			UnitPriceMinor: 250000,
			Quantity:       2,
			LineTotalMinor: 500000,
		}},
	}
}

func strPtr(s string) *string { return &s }

func TestCreatePersistsOrderWithLines(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	created, err := repo.Create(ctx, sampleOrder(&customerID, strPtr("SPRING10"), 1001))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	loaded, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), loaded.OrderNumber)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, created.ID, loaded.Lines[0].OrderID)
	assert.Equal(t, "SPRING10", *loaded.CouponCode)
}

func TestNextOrderNumberIsSequential(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.NextOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), first)

	_, err = repo.Create(ctx, sampleOrder(nil, nil, first))
	require.NoError(t, err)

	second, err := repo.NextOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

func TestCountByCouponCodeDerivesUsage(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()

	_, err := repo.Create(ctx, sampleOrder(&alice, strPtr("SPRING10"), 1001))
	require.NoError(t, err)
	_, err = repo.Create(ctx, sampleOrder(&bob, strPtr("SPRING10"), 1002))
	require.NoError(t, err)
	_, err = repo.Create(ctx, sampleOrder(&alice, nil, 1003))
	require.NoError(t, err)

	total, err := repo.CountByCouponCode(ctx, "SPRING10")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	byAlice, err := repo.CountByCouponCodeAndCustomer(ctx, "SPRING10", alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byAlice)

	none, err := repo.CountByCouponCode(ctx, "MISSING")
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestListByCustomerNewestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	for i := int64(0); i < 3; i++ {
		_, err := repo.Create(ctx, sampleOrder(&customerID, nil, 1001+i))
		require.NoError(t, err)
	}

	listed, next, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, listed, 2)
	assert.NotEmpty(t, next, "a third order remains, expected a cursor")
	for _, order := range listed {
		assert.Len(t, order.Lines, 1)
	}

	rest, last, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.Empty(t, last)
}

func TestCreateRollsBackWithinTransaction(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := repo.WithTx(tx).Create(ctx, sampleOrder(nil, strPtr("SPRING10"), 1001)); err != nil {
			return err
		}
		return fmt.Errorf("force rollback")
	})
	require.Error(t, err)

	count, err := repo.CountByCouponCode(ctx, "SPRING10")
	require.NoError(t, err)
	assert.Zero(t, count, "rolled-back order must not count as usage")
}
