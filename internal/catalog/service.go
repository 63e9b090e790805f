package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruizcommerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
	"github.com/ruizcommerce/storefront-backend/pkg/money"
)

// VariantDetail is the storefront view of a purchasable SKU. Prices are
// BDT minor units.
type VariantDetail struct {
	ID             uuid.UUID   `json:"id"`
	ProductID      uuid.UUID   `json:"product_id"`
	SKU            string      `json:"sku"`
	Title          string      `json:"title"`
	Price          money.Money `json:"price_minor"`
	CompareAtPrice *int64      `json:"compare_at_minor,omitempty"`
	StockQty       int         `json:"stock_qty"`
}

// Service exposes catalog reads used by the cart and checkout flows.
type Service interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*VariantDetail, error)
	GetVariantsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]VariantDetail, error)
	ListProducts(ctx context.Context, limit int) ([]models.Product, error)
}

type service struct {
	repo Repository
}

// NewService builds a catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// GetVariant loads a single variant with its product title.
func (s *service) GetVariant(ctx context.Context, id uuid.UUID) (*VariantDetail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}

	variant, product, err := s.repo.GetVariant(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}

	detail := buildDetail(*variant, product.Title)
	return &detail, nil
}

// GetVariantsByID loads fresh variant rows for the given ids. Missing ids
// are simply absent from the result map.
func (s *service) GetVariantsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]VariantDetail, error) {
	variants, err := s.repo.ListVariants(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variants")
	}

	result := make(map[uuid.UUID]VariantDetail, len(variants))
	for _, v := range variants {
		result[v.ID] = buildDetail(v, "")
	}
	return result, nil
}

// ListProducts returns active products with their variants, newest first.
func (s *service) ListProducts(ctx context.Context, limit int) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, true, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func buildDetail(v models.ProductVariant, title string) VariantDetail {
	return VariantDetail{
		ID:             v.ID,
		ProductID:      v.ProductID,
		SKU:            v.SKU,
		Title:          title,
		Price:          money.Money(v.PriceMinor),
		CompareAtPrice: v.CompareAtMinor,
		StockQty:       v.StockQty,
	}
}
