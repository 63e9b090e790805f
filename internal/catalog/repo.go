package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruizcommerce/storefront-backend/internal/repo"
	"github.com/ruizcommerce/storefront-backend/pkg/db/models"
)

// Repository exposes read access to products and variants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, *models.Product, error)
	ListVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error)
	ListProducts(ctx context.Context, onlyActive bool, limit int) ([]models.Product, error)
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds a catalog repository over the given connection.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) GetVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, *models.Product, error) {
	var variant models.ProductVariant
	if err := r.DB(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, nil, err
	}

	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", variant.ProductID).Error; err != nil {
		return nil, nil, err
	}
	return &variant, &product, nil
}

func (r *gormRepository) ListVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var variants []models.ProductVariant
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

func (r *gormRepository) ListProducts(ctx context.Context, onlyActive bool, limit int) ([]models.Product, error) {
	query := r.DB(ctx).Preload("Variants").Order("created_at DESC")
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
