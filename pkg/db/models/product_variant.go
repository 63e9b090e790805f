package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is the purchasable SKU: it owns price and stock.
// Amounts are BDT minor units.
type ProductVariant struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	SKU            string    `gorm:"column:sku;not null;uniqueIndex"`
	PriceMinor     int64     `gorm:"column:price_minor;not null"`
	CompareAtMinor *int64    `gorm:"column:compare_at_minor"`
	StockQty       int       `gorm:"column:stock_qty;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
