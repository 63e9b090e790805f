package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruizcommerce/storefront-backend/internal/cart"
	"github.com/ruizcommerce/storefront-backend/internal/catalog"
	"github.com/ruizcommerce/storefront-backend/internal/coupons"
	"github.com/ruizcommerce/storefront-backend/internal/orders"
	"github.com/ruizcommerce/storefront-backend/internal/pricing"
	"github.com/ruizcommerce/storefront-backend/pkg/config"
	"github.com/ruizcommerce/storefront-backend/pkg/db/models"
	"github.com/ruizcommerce/storefront-backend/pkg/enums"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
	"github.com/ruizcommerce/storefront-backend/pkg/logger"
	"github.com/ruizcommerce/storefront-backend/pkg/metrics"
	"github.com/ruizcommerce/storefront-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartStore interface {
	Load(ctx context.Context, sessionID string) (*cart.Cart, error)
	Save(ctx context.Context, sessionID string, c *cart.Cart) error
	Drop(ctx context.Context, sessionID string) error
}

type variantReader interface {
	GetVariantsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.VariantDetail, error)
}

type couponReader interface {
	GetByCode(ctx context.Context, canonicalCode string) (*models.Coupon, error)
	CountUsage(ctx context.Context, canonicalCode string) (int64, error)
	CountUsageByCustomer(ctx context.Context, canonicalCode string, customerID uuid.UUID) (int64, error)
}

// Input identifies the session to commit and the tentative coupon/zone
// chosen during browsing.
type Input struct {
	SessionID  string
	CustomerID *uuid.UUID
	CouponCode string
	Zone       enums.ShippingZone
}

// LineAdjustment describes one cart line whose quantity no longer fits
// live stock at commit time.
type LineAdjustment struct {
	VariantID    uuid.UUID `json:"variant_id"`
	SKU          string    `json:"sku"`
	Title        string    `json:"title"`
	RequestedQty int       `json:"requested_qty"`
	AvailableQty int       `json:"available_qty"`
	Removed      bool      `json:"removed"`
}

// Rejection lists everything that changed between browsing and commit so
// the caller can re-render an accurate cart. Pricing is never silently
// substituted.
type Rejection struct {
	Lines        []LineAdjustment `json:"lines,omitempty"`
	CouponReason coupons.Reason   `json:"coupon_reason,omitempty"`
}

// Result is the terminal state of one checkout attempt.
type Result struct {
	State       enums.CheckoutState `json:"state"`
	OrderID     uuid.UUID           `json:"order_id,omitempty"`
	OrderNumber int64               `json:"order_number,omitempty"`
	Pricing     pricing.Result      `json:"pricing"`
	Rejection   *Rejection          `json:"rejection,omitempty"`
}

// Service drives a checkout attempt through draft, validation, commit.
type Service interface {
	Checkout(ctx context.Context, input Input) (*Result, error)
	Quote(ctx context.Context, input Input) (*QuoteResult, error)
}

type service struct {
	carts    cartStore
	catalog  variantReader
	coupons  couponReader
	orders   orders.Repository
	tx       txRunner
	shipping config.ShippingConfig
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
	now      func() time.Time
}

// NewService builds the checkout orchestrator. Metrics may be nil.
func NewService(
	carts cartStore,
	catalogSvc variantReader,
	couponRepo couponReader,
	orderRepo orders.Repository,
	tx txRunner,
	shipping config.ShippingConfig,
	logg *logger.Logger,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if couponRepo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:    carts,
		catalog:  catalogSvc,
		coupons:  couponRepo,
		orders:   orderRepo,
		tx:       tx,
		shipping: shipping,
		logg:     logg,
		metrics:  checkoutMetrics,
		now:      time.Now,
	}, nil
}

// Checkout re-validates the session cart and tentative coupon against
// live data, then commits the order atomically. A stale cart or coupon
// rejects the attempt with a structured reason instead of silently
// repricing; nothing is persisted on rejection.
func (s *service) Checkout(ctx context.Context, input Input) (*Result, error) {
	started := s.now()
	ctx = s.logg.WithSessionID(ctx, input.SessionID)
	if input.CouponCode != "" {
		ctx = s.logg.WithCouponCode(ctx, input.CouponCode)
	}

	result, err := s.checkout(ctx, input)

	outcome := "error"
	if err == nil {
		outcome = result.State.String()
	}
	s.metrics.ObserveAttempt(outcome, s.now().Sub(started))

	return result, err
}

func (s *service) checkout(ctx context.Context, input Input) (*Result, error) {
	if input.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if !input.Zone.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping zone")
	}

	// Draft: the session cart is the authoritative line state.
	sessionCart, err := s.carts.Load(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if sessionCart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	// Validating: re-read live stock and re-clamp every line.
	adjustments, err := s.reclampAgainstLiveStock(ctx, sessionCart)
	if err != nil {
		return nil, err
	}

	code := coupons.CanonicalCode(input.CouponCode)
	outcome, err := s.revalidateCoupon(ctx, code, sessionCart, input.CustomerID)
	if err != nil {
		return nil, err
	}

	if len(adjustments) > 0 || (code != "" && !outcome.Valid) {
		return s.reject(ctx, input, sessionCart, adjustments, outcome, code)
	}

	// Committing: one transaction for the order and its lines. Usage is
	// re-counted inside the transaction as a best-effort narrowing of the
	// documented race window; exact caps under concurrency would need a
	// conditional insert at the storage layer.
	rule := pricing.ZoneFlatRule(s.shipping, input.Zone)
	priced := pricing.ComputeTotals(sessionCart.Lines(), code, outcome.Discount, rule)

	order, rejectedReason, err := s.commit(ctx, input, sessionCart, priced)
	if err != nil {
		return nil, err
	}
	if order == nil {
		// The coupon lost a race between re-validation and commit.
		s.metrics.IncCouponRejection(string(rejectedReason))
		return &Result{
			State:     enums.CheckoutStateRejected,
			Rejection: &Rejection{CouponReason: rejectedReason},
		}, nil
	}

	// Completed: the cart is cleared only once the order write is
	// confirmed.
	if err := s.carts.Drop(ctx, input.SessionID); err != nil {
		s.logg.Warn(ctx, "order committed but cart session cleanup failed: "+err.Error())
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_number": order.OrderNumber,
		"total_minor":  priced.Total.Int64(),
	}), "checkout completed")

	return &Result{
		State:       enums.CheckoutStateCompleted,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Pricing:     priced,
	}, nil
}

func (s *service) reclampAgainstLiveStock(ctx context.Context, sessionCart *cart.Cart) ([]LineAdjustment, error) {
	// Snapshot the lines: removals below shift the cart's backing array,
	// so ranging over it directly would skip the line after every removal.
	lines := append([]cart.Line(nil), sessionCart.Lines()...)
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.VariantID)
	}

	fresh, err := s.catalog.GetVariantsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	var adjustments []LineAdjustment
	for _, line := range lines {
		variant, ok := fresh[line.VariantID]
		if !ok {
			adjustments = append(adjustments, LineAdjustment{
				VariantID:    line.VariantID,
				SKU:          line.SKU,
				Title:        line.Title,
				RequestedQty: line.Quantity,
				Removed:      true,
			})
			sessionCart.RemoveItem(line.VariantID)
			continue
		}

		clamped, limited := money.ClampQty(line.Quantity, variant.StockQty)
		if !limited {
			continue
		}
		adjustments = append(adjustments, LineAdjustment{
			VariantID:    line.VariantID,
			SKU:          line.SKU,
			Title:        line.Title,
			RequestedQty: line.Quantity,
			AvailableQty: clamped,
			Removed:      clamped == 0,
		})
		sessionCart.UpdateQuantity(line.VariantID, clamped)
	}
	return adjustments, nil
}

func (s *service) revalidateCoupon(ctx context.Context, code string, sessionCart *cart.Cart, customerID *uuid.UUID) (coupons.Outcome, error) {
	if code == "" {
		return coupons.Outcome{}, nil
	}

	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return coupons.Outcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	in := coupons.Input{
		Coupon:     coupon,
		CartLines:  len(sessionCart.Lines()),
		Subtotal:   sessionCart.Subtotal(),
		CustomerID: customerID,
		Now:        s.now(),
	}
	if coupon != nil {
		if in.TotalUsage, err = s.coupons.CountUsage(ctx, code); err != nil {
			return coupons.Outcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon usage")
		}
		if customerID != nil {
			if in.CustomerUsage, err = s.coupons.CountUsageByCustomer(ctx, code, *customerID); err != nil {
				return coupons.Outcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customer coupon usage")
			}
		}
	}
	return coupons.Validate(in), nil
}

func (s *service) reject(ctx context.Context, input Input, sessionCart *cart.Cart, adjustments []LineAdjustment, outcome coupons.Outcome, code string) (*Result, error) {
	// Persist the corrected cart so the caller re-renders reality, then
	// stop: nothing else is written.
	if len(adjustments) > 0 {
		if err := s.carts.Save(ctx, input.SessionID, sessionCart); err != nil {
			return nil, err
		}
	}

	rejection := &Rejection{Lines: adjustments}
	if code != "" && !outcome.Valid {
		rejection.CouponReason = outcome.Reason
		s.metrics.IncCouponRejection(string(outcome.Reason))
	}

	s.logg.Info(ctx, "checkout rejected during re-validation")
	return &Result{State: enums.CheckoutStateRejected, Rejection: rejection}, nil
}

// commit writes the order and its lines atomically. A nil order with a
// non-empty reason means the coupon lost a race after re-validation: the
// row vanished, or the in-transaction usage re-count found the cap
// already reached.
func (s *service) commit(ctx context.Context, input Input, sessionCart *cart.Cart, priced pricing.Result) (*models.Order, coupons.Reason, error) {
	var committed *models.Order
	var rejected coupons.Reason

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orders.WithTx(tx)

		if priced.AppliedCouponCode != "" {
			coupon, err := s.coupons.GetByCode(ctx, priced.AppliedCouponCode)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				rejected = coupons.ReasonNotFound
				return nil
			}
			if err != nil {
				return err
			}
			if coupon.MaxUses != nil {
				used, err := txOrders.CountByCouponCode(ctx, priced.AppliedCouponCode)
				if err != nil {
					return err
				}
				if used >= int64(*coupon.MaxUses) {
					rejected = coupons.ReasonTotalUsesExceeded
					return nil
				}
			}
		}

		number, err := txOrders.NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		order := buildOrder(input, sessionCart, priced, number)
		committed, err = txOrders.Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit order")
	}
	return committed, rejected, nil
}

func buildOrder(input Input, sessionCart *cart.Cart, priced pricing.Result, number int64) *models.Order {
	lines := sessionCart.Lines()
	items := make([]models.OrderLineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderLineItem{
			VariantID:      line.VariantID,
			ProductID:      line.ProductID,
			SKU:            line.SKU,
			Title:          line.Title,
			UnitPriceMinor: line.UnitPrice.Int64(),
			Quantity:       line.Quantity,
			LineTotalMinor: line.UnitPrice.MulQty(line.Quantity).Int64(),
		})
	}

	var couponCode *string
	if priced.AppliedCouponCode != "" {
		code := priced.AppliedCouponCode
		couponCode = &code
	}
	zone := input.Zone.String()

	return &models.Order{
		OrderNumber:   number,
		CustomerID:    input.CustomerID,
		Currency:      enums.CurrencyBDT,
		Status:        enums.OrderStatusPending,
		SubtotalMinor: priced.Subtotal.Int64(),
		DiscountMinor: priced.Discount.Int64(),
		ShippingMinor: priced.ShippingFee.Int64(),
		TotalMinor:    priced.Total.Int64(),
		CouponCode:    couponCode,
		ShippingZone:  &zone,
		Lines:         items,
	}
}

// QuoteResult previews pricing for the current cart and tentative coupon
// without committing anything.
type QuoteResult struct {
	Pricing      pricing.Result `json:"pricing"`
	CouponValid  bool           `json:"coupon_valid"`
	CouponReason coupons.Reason `json:"coupon_reason,omitempty"`
}

// Quote validates the tentative coupon against live usage counts and
// computes totals for the session cart. Nothing is persisted and the cart
// is left untouched.
func (s *service) Quote(ctx context.Context, input Input) (*QuoteResult, error) {
	if input.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if !input.Zone.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping zone")
	}

	sessionCart, err := s.carts.Load(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	code := coupons.CanonicalCode(input.CouponCode)
	outcome, err := s.revalidateCoupon(ctx, code, sessionCart, input.CustomerID)
	if err != nil {
		return nil, err
	}

	rule := pricing.ZoneFlatRule(s.shipping, input.Zone)
	priced := pricing.ComputeTotals(sessionCart.Lines(), code, outcome.Discount, rule)

	result := &QuoteResult{Pricing: priced, CouponValid: code != "" && outcome.Valid}
	if code != "" && !outcome.Valid {
		result.CouponReason = outcome.Reason
	}
	return result, nil
}
