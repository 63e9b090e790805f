// Package pricing composes cart lines, a validated discount, and a
// shipping rule into an order total. All arithmetic is over integral
// minor units.
package pricing

import (
	"github.com/ruizcommerce/storefront-backend/internal/cart"
	"github.com/ruizcommerce/storefront-backend/pkg/money"
)

// ShippingRule computes the delivery fee for a given subtotal. The rule
// is a pure input: the calculator never looks at destinations itself.
type ShippingRule func(subtotal money.Money) money.Money

// Result is the priced breakdown of a cart. It is derived state and is
// only ever persisted as part of the order it produced.
type Result struct {
	Subtotal          money.Money `json:"subtotal_minor"`
	Discount          money.Money `json:"discount_minor"`
	ShippingFee       money.Money `json:"shipping_minor"`
	Total             money.Money `json:"total_minor"`
	AppliedCouponCode string      `json:"applied_coupon_code,omitempty"`
}

// ComputeTotals derives subtotal, discount, shipping, and total. The
// discount is capped at the subtotal, so total >= shipping always holds.
// An empty cart yields subtotal 0 and total equal to the shipping fee.
func ComputeTotals(lines []cart.Line, couponCode string, discount money.Money, rule ShippingRule) Result {
	var subtotal money.Money
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.MulQty(line.Quantity))
	}

	applied := money.Min(discount, subtotal)
	if applied == 0 {
		couponCode = ""
	}

	var shipping money.Money
	if rule != nil {
		shipping = rule(subtotal)
	}

	return Result{
		Subtotal:          subtotal,
		Discount:          applied,
		ShippingFee:       shipping,
		Total:             subtotal.SubFloor(applied).Add(shipping),
		AppliedCouponCode: couponCode,
	}
}
