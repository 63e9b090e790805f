package checkout

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ruizcommerce/storefront-backend/internal/cart"
	"github.com/ruizcommerce/storefront-backend/internal/catalog"
	"github.com/ruizcommerce/storefront-backend/internal/coupons"
	"github.com/ruizcommerce/storefront-backend/internal/orders"
	"github.com/ruizcommerce/storefront-backend/pkg/config"
	"github.com/ruizcommerce/storefront-backend/pkg/db/models"
	"github.com/ruizcommerce/storefront-backend/pkg/enums"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
	"github.com/ruizcommerce/storefront-backend/pkg/logger"
	"github.com/ruizcommerce/storefront-backend/pkg/money"
)

var testShipping = config.ShippingConfig{
	InsideCityFee:         6000,
	OutsideCityFee:        12000,
	FreeDeliveryThreshold: 500000,
}

type stubCarts struct {
	carts   map[string]*cart.Cart
	saved   map[string]*cart.Cart
	dropped []string
}

func newStubCarts() *stubCarts {
	return &stubCarts{carts: map[string]*cart.Cart{}, saved: map[string]*cart.Cart{}}
}

func (s *stubCarts) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	if c, ok := s.carts[sessionID]; ok {
		return c, nil
	}
	return cart.New(), nil
}

func (s *stubCarts) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	s.saved[sessionID] = c
	return nil
}

func (s *stubCarts) Drop(ctx context.Context, sessionID string) error {
	s.dropped = append(s.dropped, sessionID)
	return nil
}

type stubCatalog struct {
	variants map[uuid.UUID]catalog.VariantDetail
}

func (s *stubCatalog) GetVariantsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.VariantDetail, error) {
	result := map[uuid.UUID]catalog.VariantDetail{}
	for _, id := range ids {
		if v, ok := s.variants[id]; ok {
			result[id] = v
		}
	}
	return result, nil
}

type stubCoupons struct {
	coupon        *models.Coupon
	totalUsage    int64
	customerUsage int64

	reads            int
	vanishAfterReads int // after this many successful reads the row is gone
}

func (s *stubCoupons) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	if s.coupon == nil || s.coupon.Code != code {
		return nil, gorm.ErrRecordNotFound
	}
	if s.vanishAfterReads > 0 && s.reads >= s.vanishAfterReads {
		return nil, gorm.ErrRecordNotFound
	}
	s.reads++
	return s.coupon, nil
}

func (s *stubCoupons) CountUsage(ctx context.Context, code string) (int64, error) {
	return s.totalUsage, nil
}

func (s *stubCoupons) CountUsageByCustomer(ctx context.Context, code string, customerID uuid.UUID) (int64, error) {
	return s.customerUsage, nil
}

type stubOrders struct {
	orders.Repository

	created    []*models.Order
	createErr  error
	couponUsed int64
	nextNumber int64
}

func (s *stubOrders) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrders) NextOrderNumber(ctx context.Context) (int64, error) {
	if s.nextNumber == 0 {
		s.nextNumber = 1001
	}
	return s.nextNumber, nil
}

func (s *stubOrders) CountByCouponCode(ctx context.Context, code string) (int64, error) {
	return s.couponUsed, nil
}

func (s *stubOrders) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	order.ID = uuid.New()
	s.created = append(s.created, order)
	return order, nil
}

type stubTx struct{ err error }

func (s *stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(nil)
}

type fixture struct {
	carts   *stubCarts
	catalog *stubCatalog
	coupons *stubCoupons
	orders  *stubOrders
	svc     Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		carts:   newStubCarts(),
		catalog: &stubCatalog{variants: map[uuid.UUID]catalog.VariantDetail{}},
		coupons: &stubCoupons{},
		orders:  &stubOrders{},
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(f.carts, f.catalog, f.coupons, f.orders, &stubTx{}, testShipping, logg, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

// seedLine puts a variant into the catalog and a matching cart line into
// the session.
func (f *fixture) seedLine(sessionID string, qty, liveStock int, price int64) uuid.UUID {
	variantID := uuid.New()
	f.catalog.variants[variantID] = catalog.VariantDetail{
		ID: variantID, ProductID: uuid.New(), SKU: "RZ-1", Price: 0, StockQty: liveStock,
	}

	c, ok := f.carts.carts[sessionID]
	if !ok {
		c = cart.New()
		f.carts.carts[sessionID] = c
	}
	c.AddItem(cart.VariantInfo{
		VariantID: variantID,
		ProductID: uuid.New(),
		SKU:       "RZ-1",
		Title:     "Explorer 36",
		UnitPrice: money.Money(price),
		StockQty:  qty, // browsing-time stock allows the requested qty
	}, qty)
	return variantID
}

func TestCheckoutEmptyCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Checkout(context.Background(), Input{SessionID: "sess-1", Zone: enums.ShippingZoneInsideDhaka})

	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected CodeValidation for empty cart, got %v", err)
	}
}

func TestCheckoutCompletesAndClearsCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedLine("sess-1", 2, 10, 250000)

	result, err := f.svc.Checkout(context.Background(), Input{SessionID: "sess-1", Zone: enums.ShippingZoneInsideDhaka})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if result.State != enums.CheckoutStateCompleted {
		t.Fatalf("expected completed, got %+v", result)
	}
	if result.OrderNumber != 1001 {
		t.Fatalf("expected order number 1001, got %d", result.OrderNumber)
	}
	if result.Pricing.Subtotal.Int64() != 500000 {
		t.Fatalf("subtotal = %d, want 500000", result.Pricing.Subtotal.Int64())
	}
	// At the free-delivery threshold: no shipping fee.
	if result.Pricing.ShippingFee != 0 || result.Pricing.Total.Int64() != 500000 {
		t.Fatalf("unexpected pricing: %+v", result.Pricing)
	}
	if len(f.orders.created) != 1 {
		t.Fatalf("expected one order persisted, got %d", len(f.orders.created))
	}
	if len(f.carts.dropped) != 1 || f.carts.dropped[0] != "sess-1" {
		t.Fatalf("expected cart cleared after completion, got %v", f.carts.dropped)
	}
}

func TestCheckoutRejectsOnStaleStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedLine("sess-1", 5, 2, 100000) // live stock dropped to 2

	result, err := f.svc.Checkout(context.Background(), Input{SessionID: "sess-1", Zone: enums.ShippingZoneInsideDhaka})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if result.State != enums.CheckoutStateRejected {
		t.Fatalf("expected rejection, got %+v", result)
	}
	if len(result.Rejection.Lines) != 1 {
		t.Fatalf("expected one adjusted line, got %+v", result.Rejection)
	}
	adj := result.Rejection.Lines[0]
	if adj.VariantID != variantID || adj.RequestedQty != 5 || adj.AvailableQty != 2 || adj.Removed {
		t.Fatalf("unexpected adjustment: %+v", adj)
	}
	if len(f.orders.created) != 0 {
		t.Fatal("nothing must be persisted on rejection")
	}
	// The corrected cart is saved back so the caller re-renders reality.
	saved, ok := f.carts.saved["sess-1"]
	if !ok || saved.Lines()[0].Quantity != 2 {
		t.Fatalf("expected corrected cart saved, got %+v", saved)
	}
}

func TestCheckoutRejectsRemovedVariant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	variantID := f.seedLine("sess-1", 1, 10, 100000)
	delete(f.catalog.variants, variantID) // variant disappeared from catalog

	result, err := f.svc.Checkout(context.Background(), Input{SessionID: "sess-1", Zone: enums.ShippingZoneInsideDhaka})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if result.State != enums.CheckoutStateRejected {
		t.Fatalf("expected rejection, got %+v", result)
	}
	if adj := result.Rejection.Lines[0]; !adj.Removed {
		t.Fatalf("expected removal adjustment, got %+v", adj)
	}
}

func TestCheckoutRejectionListsEveryAdjustedLine(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	removedID := f.seedLine("sess-1", 1, 10, 100000)
	clampedID := f.seedLine("sess-1", 5, 2, 100000) // live stock dropped to 2
	keptID := f.seedLine("sess-1", 1, 10, 100000)
	delete(f.catalog.variants, removedID) // first line vanished from catalog

	result, err := f.svc.Checkout(context.Background(), Input{SessionID: "sess-1", Zone: enums.ShippingZoneInsideDhaka})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if result.State != enums.CheckoutStateRejected {
		t.Fatalf("expected rejection, got %+v", result)
	}
	// Both stale lines must be reported, not just the first: removing a
	// line mid-pass must not hide the one after it.
	if len(result.Rejection.Lines) != 2 {
		t.Fatalf("expected two adjusted lines, got %+v", result.Rejection.Lines)
	}
	if adj := result.Rejection.Lines[0]; adj.VariantID != removedID || !adj.Removed {
		t.Fatalf("unexpected first adjustment: %+v", adj)
	}
	if adj := result.Rejection.Lines[1]; adj.VariantID != clampedID || adj.RequestedQty != 5 || adj.AvailableQty != 2 {
		t.Fatalf("unexpected second adjustment: %+v", adj)
	}

	saved, ok := f.carts.saved["sess-1"]
	if !ok {
		t.Fatal("expected corrected cart saved")
	}
	lines := saved.Lines()
	if len(lines) != 2 {
		t.Fatalf("corrected cart lines = %+v", lines)
	}
	if lines[0].VariantID != clampedID || lines[0].Quantity != 2 {
		t.Fatalf("expected clamped line at qty 2, got %+v", lines[0])
	}
	if lines[1].VariantID != keptID || lines[1].Quantity != 1 {
		t.Fatalf("expected untouched line preserved, got %+v", lines[1])
	}
}

func TestCheckoutAppliesCoupon(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedLine("sess-1", 1, 10, 100000)
	f.coupons.coupon = &models.Coupon{
		ID:           uuid.New(),
		Code:         "SPRING10",
		DiscountType: enums.DiscountTypePercent,
		Amount:       decimal.NewFromInt(10),
		IsActive:     true,
	}

	result, err := f.svc.Checkout(context.Background(), Input{
		SessionID:  "sess-1",
		CouponCode: " spring10 ",
		Zone:       enums.ShippingZoneOutsideDhaka,
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if result.State != enums.CheckoutStateCompleted {
		t.Fatalf("expected completed, got %+v", result)
	}
	if result.Pricing.Discount.Int64() != 10000 {
		t.Fatalf("discount = %d, want 10000", result.Pricing.Discount.Int64())
	}
	if result.Pricing.Total.Int64() != 100000-10000+12000 {
		t.Fatalf("total = %d", result.Pricing.Total.Int64())
	}

	order := f.orders.created[0]
	if order.CouponCode == nil || *order.CouponCode != "SPRING10" {
		t.Fatalf("expected coupon code recorded on order, got %+v", order.CouponCode)
	}
}

func TestCheckoutRejectsCouponAtUsageCap(t *testing.T) {
	t.Parallel()

	maxUses := 100
	f := newFixture(t)
	f.seedLine("sess-1", 1, 10, 100000)
	f.coupons.coupon = &models.Coupon{
		ID:           uuid.New(),
		Code:         "CAPPED",
		DiscountType: enums.DiscountTypeFixed,
		Amount:       decimal.NewFromInt(5000),
		IsActive:     true,
		MaxUses:      &maxUses,
	}
	f.coupons.totalUsage = 100 // another order just took the last use

	result, err := f.svc.Checkout(context.Background(), Input{
		SessionID:  "sess-1",
		CouponCode: "CAPPED",
		Zone:       enums.ShippingZoneInsideDhaka,
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if result.State != enums.CheckoutStateRejected {
		t.Fatalf("expected rejection, got %+v", result)
	}
	if result.Rejection.CouponReason != coupons.ReasonTotalUsesExceeded {
		t.Fatalf("expected TotalUsesExceeded, got %q", result.Rejection.CouponReason)
	}
	if len(f.orders.created) != 0 {
		t.Fatal("no order may be persisted when the cap is reached")
	}
}

func TestCheckoutCommitRecountCatchesRace(t *testing.T) {
	t.Parallel()

	maxUses := 10
	f := newFixture(t)
	f.seedLine("sess-1", 1, 10, 100000)
	f.coupons.coupon = &models.Coupon{
		ID:           uuid.New(),
		Code:         "RACY",
		DiscountType: enums.DiscountTypeFixed,
		Amount:       decimal.NewFromInt(5000),
		IsActive:     true,
		MaxUses:      &maxUses,
	}
	f.coupons.totalUsage = 9 // passes validation
	f.orders.couponUsed = 10 // but the transaction sees the cap reached

	result, err := f.svc.Checkout(context.Background(), Input{
		SessionID:  "sess-1",
		CouponCode: "RACY",
		Zone:       enums.ShippingZoneInsideDhaka,
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if result.State != enums.CheckoutStateRejected {
		t.Fatalf("expected rejection, got %+v", result)
	}
	if result.Rejection.CouponReason != coupons.ReasonTotalUsesExceeded {
		t.Fatalf("expected TotalUsesExceeded, got %q", result.Rejection.CouponReason)
	}
	if len(f.orders.created) != 0 {
		t.Fatal("no order may be persisted when the recount fails")
	}
}

func TestCheckoutRejectsWhenCouponVanishesBeforeCommit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedLine("sess-1", 1, 10, 100000)
	f.coupons.coupon = &models.Coupon{
		ID:           uuid.New(),
		Code:         "GONE",
		DiscountType: enums.DiscountTypeFixed,
		Amount:       decimal.NewFromInt(5000),
		IsActive:     true,
	}
	f.coupons.vanishAfterReads = 1 // row deleted after re-validation reads it

	result, err := f.svc.Checkout(context.Background(), Input{
		SessionID:  "sess-1",
		CouponCode: "GONE",
		Zone:       enums.ShippingZoneInsideDhaka,
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if result.State != enums.CheckoutStateRejected {
		t.Fatalf("expected rejection, got %+v", result)
	}
	if result.Rejection.CouponReason != coupons.ReasonNotFound {
		t.Fatalf("expected NotFound, got %q", result.Rejection.CouponReason)
	}
	if len(f.orders.created) != 0 {
		t.Fatal("no order may be persisted when the coupon vanished")
	}
	if len(f.carts.dropped) != 0 {
		t.Fatal("cart must survive the rejection")
	}
}

func TestCheckoutGuestPassesPerUserCap(t *testing.T) {
	t.Parallel()

	perUser := 1
	f := newFixture(t)
	f.seedLine("sess-1", 1, 10, 100000)
	f.coupons.coupon = &models.Coupon{
		ID:             uuid.New(),
		Code:           "ONEEACH",
		DiscountType:   enums.DiscountTypeFixed,
		Amount:         decimal.NewFromInt(5000),
		IsActive:       true,
		MaxUsesPerUser: &perUser,
	}
	f.coupons.customerUsage = 3 // irrelevant for guests

	result, err := f.svc.Checkout(context.Background(), Input{
		SessionID:  "sess-1",
		CouponCode: "ONEEACH",
		Zone:       enums.ShippingZoneInsideDhaka,
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if result.State != enums.CheckoutStateCompleted {
		t.Fatalf("guest checkout should pass per-user cap, got %+v", result)
	}
}

func TestCheckoutUnknownCouponRejects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedLine("sess-1", 1, 10, 100000)

	result, err := f.svc.Checkout(context.Background(), Input{
		SessionID:  "sess-1",
		CouponCode: "NOPE",
		Zone:       enums.ShippingZoneInsideDhaka,
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if result.State != enums.CheckoutStateRejected || result.Rejection.CouponReason != coupons.ReasonNotFound {
		t.Fatalf("expected NotFound rejection, got %+v", result)
	}
}

func TestCheckoutPersistFailureNeverCompletes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedLine("sess-1", 1, 10, 100000)
	f.orders.createErr = fmt.Errorf("connection reset")

	_, err := f.svc.Checkout(context.Background(), Input{SessionID: "sess-1", Zone: enums.ShippingZoneInsideDhaka})

	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected CodeDependency, got %v", err)
	}
	if len(f.carts.dropped) != 0 {
		t.Fatal("cart must survive a failed commit")
	}
}

func TestCheckoutRejectsUnknownZone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedLine("sess-1", 1, 10, 100000)

	_, err := f.svc.Checkout(context.Background(), Input{SessionID: "sess-1", Zone: "overseas"})

	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
}

func TestQuoteDoesNotCommit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedLine("sess-1", 1, 10, 100000)
	f.coupons.coupon = &models.Coupon{
		ID:           uuid.New(),
		Code:         "SPRING10",
		DiscountType: enums.DiscountTypePercent,
		Amount:       decimal.NewFromInt(10),
		IsActive:     true,
	}

	quote, err := f.svc.Quote(context.Background(), Input{
		SessionID:  "sess-1",
		CouponCode: "SPRING10",
		Zone:       enums.ShippingZoneInsideDhaka,
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if !quote.CouponValid || quote.Pricing.Discount.Int64() != 10000 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if len(f.orders.created) != 0 || len(f.carts.dropped) != 0 {
		t.Fatal("quote must not persist or clear anything")
	}
}

func TestQuoteReportsCouponReason(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedLine("sess-1", 1, 10, 100000)

	quote, err := f.svc.Quote(context.Background(), Input{
		SessionID:  "sess-1",
		CouponCode: "MISSING",
		Zone:       enums.ShippingZoneInsideDhaka,
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.CouponValid || quote.CouponReason != coupons.ReasonNotFound {
		t.Fatalf("expected NotFound reason, got %+v", quote)
	}
	// Totals still come back so the storefront can render them.
	if quote.Pricing.Total.Int64() != 100000+6000 {
		t.Fatalf("total = %d", quote.Pricing.Total.Int64())
	}
}
