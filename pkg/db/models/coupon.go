package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ruizcommerce/storefront-backend/pkg/enums"
)

// Coupon stores a promotional code and its redemption rules. Codes are
// canonical uppercase with whitespace stripped. Usage counts are never
// stored here; they are derived by counting committed orders that
// reference the code.
type Coupon struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code           string             `gorm:"column:code;not null;uniqueIndex:coupons_code_key"`
	DiscountType   enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	Amount         decimal.Decimal    `gorm:"column:amount;type:numeric(12,3);not null"`
	MinSubtotal    int64              `gorm:"column:min_subtotal_minor;not null;default:0"`
	MaxUses        *int               `gorm:"column:max_uses"`
	MaxUsesPerUser *int               `gorm:"column:max_uses_per_user"`
	StartsAt       *time.Time         `gorm:"column:starts_at"`
	EndsAt         *time.Time         `gorm:"column:ends_at"`
	IsActive       bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
