package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ruizcommerce/storefront-backend/internal/catalog"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
)

type stubStore struct {
	carts   map[string]*Cart
	saveErr error
	dropped []string
}

func newStubStore() *stubStore {
	return &stubStore{carts: map[string]*Cart{}}
}

func (s *stubStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	if c, ok := s.carts[sessionID]; ok {
		return c, nil
	}
	return New(), nil
}

func (s *stubStore) Save(ctx context.Context, sessionID string, c *Cart) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.carts[sessionID] = c
	return nil
}

func (s *stubStore) Drop(ctx context.Context, sessionID string) error {
	delete(s.carts, sessionID)
	s.dropped = append(s.dropped, sessionID)
	return nil
}

type stubCatalog struct {
	variants map[uuid.UUID]*catalog.VariantDetail
}

func (s *stubCatalog) GetVariant(ctx context.Context, id uuid.UUID) (*catalog.VariantDetail, error) {
	if detail, ok := s.variants[id]; ok {
		return detail, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
}

func TestServiceAddItemPersistsAndSignals(t *testing.T) {
	t.Parallel()

	variantID := uuid.New()
	store := newStubStore()
	svc, err := NewService(store, &stubCatalog{variants: map[uuid.UUID]*catalog.VariantDetail{
		variantID: {ID: variantID, ProductID: uuid.New(), SKU: "RZ-1", Title: "Datejust", Price: 180000, StockQty: 2},
	}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	view, err := svc.AddItem(context.Background(), "sess-1", variantID, 5)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if view.Result == nil || !view.Result.StockLimited || view.Result.Quantity != 2 {
		t.Fatalf("expected clamped result, got %+v", view.Result)
	}
	if view.Subtotal.Int64() != 360000 {
		t.Fatalf("subtotal = %d, want 360000", view.Subtotal.Int64())
	}
	if saved, ok := store.carts["sess-1"]; !ok || len(saved.Lines()) != 1 {
		t.Fatal("expected cart persisted to session store")
	}
}

func TestServiceAddItemUnknownVariant(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubStore(), &stubCatalog{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.AddItem(context.Background(), "sess-1", uuid.New(), 1)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}
}

func TestServiceRemoveItemAbsentIsNoop(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	svc, err := NewService(store, &stubCatalog{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	view, err := svc.RemoveItem(context.Background(), "sess-1", uuid.New())
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("expected empty view, got %+v", view.Lines)
	}
}

func TestServiceClearDropsSession(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	svc, err := NewService(store, &stubCatalog{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.Clear(context.Background(), "sess-9"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(store.dropped) != 1 || store.dropped[0] != "sess-9" {
		t.Fatalf("expected session dropped, got %v", store.dropped)
	}
}
