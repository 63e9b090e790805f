package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruizcommerce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
)

type stubRepo struct {
	variant *models.ProductVariant
	product *models.Product
	getErr  error
	listed  []models.ProductVariant
	listErr error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) GetVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, *models.Product, error) {
	if s.getErr != nil {
		return nil, nil, s.getErr
	}
	return s.variant, s.product, nil
}

func (s *stubRepo) ListVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error) {
	return s.listed, s.listErr
}

func (s *stubRepo) ListProducts(ctx context.Context, onlyActive bool, limit int) ([]models.Product, error) {
	return nil, nil
}

func TestNewServiceRequiresRepo(t *testing.T) {
	t.Parallel()

	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
}

func TestGetVariantMapsNotFound(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubRepo{getErr: gorm.ErrRecordNotFound})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.GetVariant(context.Background(), uuid.New())
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}
}

func TestGetVariantHidesInactiveProduct(t *testing.T) {
	t.Parallel()

	variantID := uuid.New()
	svc, err := NewService(&stubRepo{
		variant: &models.ProductVariant{ID: variantID, PriceMinor: 250000, StockQty: 3},
		product: &models.Product{Title: "Seamaster", IsActive: false},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.GetVariant(context.Background(), variantID)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected CodeNotFound for inactive product, got %v", err)
	}
}

func TestGetVariantReturnsDetail(t *testing.T) {
	t.Parallel()

	variantID := uuid.New()
	productID := uuid.New()
	svc, err := NewService(&stubRepo{
		variant: &models.ProductVariant{ID: variantID, ProductID: productID, SKU: "RZ-001", PriceMinor: 250000, StockQty: 3},
		product: &models.Product{ID: productID, Title: "Seamaster", IsActive: true},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	detail, err := svc.GetVariant(context.Background(), variantID)
	if err != nil {
		t.Fatalf("GetVariant: %v", err)
	}
	if detail.Title != "Seamaster" || detail.Price.Int64() != 250000 || detail.StockQty != 3 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}

func TestGetVariantsByIDKeysByVariant(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	svc, err := NewService(&stubRepo{listed: []models.ProductVariant{
		{ID: a, PriceMinor: 1000, StockQty: 5},
		{ID: b, PriceMinor: 2000, StockQty: 0},
	}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	got, err := svc.GetVariantsByID(context.Background(), []uuid.UUID{a, b, uuid.New()})
	if err != nil {
		t.Fatalf("GetVariantsByID: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(got))
	}
	if got[b].StockQty != 0 {
		t.Fatalf("expected zero stock preserved, got %d", got[b].StockQty)
	}
}
