package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ruizcommerce/storefront-backend/internal/catalog"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
	"github.com/ruizcommerce/storefront-backend/pkg/money"
)

type variantLoader interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*catalog.VariantDetail, error)
}

type sessionStore interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Drop(ctx context.Context, sessionID string) error
}

// View is the API-facing cart state returned by every mutation.
type View struct {
	Lines    []Line          `json:"lines"`
	Subtotal money.Money     `json:"subtotal_minor"`
	Result   *MutationResult `json:"result,omitempty"`
}

// Service exposes session cart operations.
type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	AddItem(ctx context.Context, sessionID string, variantID uuid.UUID, qty int) (*View, error)
	UpdateQuantity(ctx context.Context, sessionID string, variantID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, sessionID string, variantID uuid.UUID) (*View, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	store   sessionStore
	catalog variantLoader
}

// NewService builds a cart service backed by the session store and the
// catalog read model.
func NewService(store sessionStore, catalogSvc variantLoader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart session store required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	return &service{store: store, catalog: catalogSvc}, nil
}

// Get returns the current cart for the session.
func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return buildView(c, nil), nil
}

// AddItem resolves the variant against the live catalog and merges it into
// the session cart, clamping against current stock.
func (s *service) AddItem(ctx context.Context, sessionID string, variantID uuid.UUID, qty int) (*View, error) {
	detail, err := s.catalog.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := c.AddItem(VariantInfo{
		VariantID: detail.ID,
		ProductID: detail.ProductID,
		SKU:       detail.SKU,
		Title:     detail.Title,
		UnitPrice: detail.Price,
		StockQty:  detail.StockQty,
	}, qty)

	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return buildView(c, &result), nil
}

// UpdateQuantity sets the quantity for a line already in the cart.
func (s *service) UpdateQuantity(ctx context.Context, sessionID string, variantID uuid.UUID, qty int) (*View, error) {
	if variantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}

	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := c.UpdateQuantity(variantID, qty)

	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return buildView(c, &result), nil
}

// RemoveItem drops a line from the cart. Unknown variants are a no-op.
func (s *service) RemoveItem(ctx context.Context, sessionID string, variantID uuid.UUID) (*View, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	c.RemoveItem(variantID)

	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return buildView(c, nil), nil
}

// Clear removes the session cart entirely.
func (s *service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Drop(ctx, sessionID)
}

func buildView(c *Cart, result *MutationResult) *View {
	return &View{Lines: c.Lines(), Subtotal: c.Subtotal(), Result: result}
}
