package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruizcommerce/storefront-backend/pkg/enums"
)

// Order is the committed result of a checkout. The applied coupon code is
// recorded on the order so usage-count derivation stays accurate even if
// the coupon is later edited or deleted. CustomerID is nil for guest
// checkouts.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber   int64             `gorm:"column:order_number;not null;uniqueIndex:orders_number_key"`
	CustomerID    *uuid.UUID        `gorm:"column:customer_id;type:uuid;index"`
	Currency      enums.Currency    `gorm:"column:currency;type:text;not null;default:'BDT'"`
	Status        enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	SubtotalMinor int64             `gorm:"column:subtotal_minor;not null"`
	DiscountMinor int64             `gorm:"column:discount_minor;not null;default:0"`
	ShippingMinor int64             `gorm:"column:shipping_minor;not null;default:0"`
	TotalMinor    int64             `gorm:"column:total_minor;not null"`
	CouponCode    *string           `gorm:"column:coupon_code;index"`
	ShippingZone  *string           `gorm:"column:shipping_zone"`
	Lines         []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
