package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the storefront listing a variant belongs to.
type Product struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Slug      string           `gorm:"column:slug;not null;uniqueIndex"`
	Title     string           `gorm:"column:title;not null"`
	Brand     string           `gorm:"column:brand;not null;default:''"`
	Model     *string          `gorm:"column:model"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
