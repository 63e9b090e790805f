package coupons

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruizcommerce/storefront-backend/internal/repo"
	"github.com/ruizcommerce/storefront-backend/pkg/db/models"
)

// Repository persists coupons and derives usage counts from committed
// orders. There is no stored usage counter anywhere.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	GetByCode(ctx context.Context, canonicalCode string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	CountUsage(ctx context.Context, canonicalCode string) (int64, error)
	CountUsageByCustomer(ctx context.Context, canonicalCode string, customerID uuid.UUID) (int64, error)
	UsageByCode(ctx context.Context, codes []string) (map[string]int64, error)
	DeactivateExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds a coupon repository over the given connection.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

func (r *gormRepository) Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.DB(ctx).Save(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.Coupon{}, "id = ?", id).Error
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.DB(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *gormRepository) GetByCode(ctx context.Context, canonicalCode string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.DB(ctx).First(&coupon, "code = ?", canonicalCode).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *gormRepository) List(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := r.DB(ctx).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *gormRepository) CountUsage(ctx context.Context, canonicalCode string) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Order{}).
		Where("coupon_code = ?", canonicalCode).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) CountUsageByCustomer(ctx context.Context, canonicalCode string, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Order{}).
		Where("coupon_code = ? AND customer_id = ?", canonicalCode, customerID).
		Count(&count).Error
	return count, err
}

// DeactivateExpired flips is_active off for coupons whose end date has
// passed. Returns the number of rows changed.
func (r *gormRepository) DeactivateExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB(ctx).Model(&models.Coupon{}).
		Where("is_active = ? AND ends_at IS NOT NULL AND ends_at < ?", true, cutoff).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

type usageRow struct {
	CouponCode string
	Uses       int64
}

func (r *gormRepository) UsageByCode(ctx context.Context, codes []string) (map[string]int64, error) {
	result := make(map[string]int64, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	var rows []usageRow
	err := r.DB(ctx).Model(&models.Order{}).
		Select("coupon_code, COUNT(*) AS uses").
		Where("coupon_code IN ?", codes).
		Group("coupon_code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.CouponCode] = row.Uses
	}
	return result, nil
}
