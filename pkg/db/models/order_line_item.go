package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem snapshots a purchased variant at commit time.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID      uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	SKU            string    `gorm:"column:sku;not null"`
	Title          string    `gorm:"column:title;not null"`
	UnitPriceMinor int64     `gorm:"column:unit_price_minor;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	LineTotalMinor int64     `gorm:"column:line_total_minor;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
