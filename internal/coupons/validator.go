package coupons

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ruizcommerce/storefront-backend/pkg/db/models"
	"github.com/ruizcommerce/storefront-backend/pkg/enums"
	"github.com/ruizcommerce/storefront-backend/pkg/money"
)

// Reason names why a coupon failed validation. Reasons are stable API
// strings surfaced to the storefront.
type Reason string

const (
	ReasonNotFound             Reason = "not_found"
	ReasonInactive             Reason = "inactive"
	ReasonNotStarted           Reason = "not_started"
	ReasonExpired              Reason = "expired"
	ReasonEmptyCart            Reason = "empty_cart"
	ReasonBelowMinimumSubtotal Reason = "below_minimum_subtotal"
	ReasonTotalUsesExceeded    Reason = "total_uses_exceeded"
	ReasonPerUserUsesExceeded  Reason = "per_user_uses_exceeded"
)

// Input gathers every fact Validate depends on. The validator reads no
// clocks and no stores itself, so the same input always yields the same
// outcome.
type Input struct {
	Coupon        *models.Coupon
	CartLines     int
	Subtotal      money.Money
	CustomerID    *uuid.UUID
	Now           time.Time
	TotalUsage    int64
	CustomerUsage int64
}

// Outcome is either a valid discount or the first failing reason.
type Outcome struct {
	Valid    bool
	Discount money.Money
	Reason   Reason
}

// Validate applies the redemption rules in a fixed short-circuit order:
// existence, active flag, start window, end window, non-empty cart,
// minimum subtotal, global usage cap, per-customer usage cap. Guests
// (nil customer id) always pass the per-customer check since the limit is
// unenforceable without identity.
func Validate(in Input) Outcome {
	c := in.Coupon
	if c == nil {
		return invalid(ReasonNotFound)
	}
	if !c.IsActive {
		return invalid(ReasonInactive)
	}
	if c.StartsAt != nil && in.Now.Before(*c.StartsAt) {
		return invalid(ReasonNotStarted)
	}
	if c.EndsAt != nil && in.Now.After(*c.EndsAt) {
		return invalid(ReasonExpired)
	}
	if in.CartLines <= 0 {
		return invalid(ReasonEmptyCart)
	}
	if in.Subtotal < money.Money(c.MinSubtotal) {
		return invalid(ReasonBelowMinimumSubtotal)
	}
	if c.MaxUses != nil && in.TotalUsage >= int64(*c.MaxUses) {
		return invalid(ReasonTotalUsesExceeded)
	}
	if c.MaxUsesPerUser != nil && in.CustomerID != nil && in.CustomerUsage >= int64(*c.MaxUsesPerUser) {
		return invalid(ReasonPerUserUsesExceeded)
	}

	return Outcome{Valid: true, Discount: Discount(c, in.Subtotal)}
}

// Discount computes the discount magnitude for a coupon that already
// passed validation. Percent discounts floor to whole minor units; both
// kinds are capped at the subtotal so the total never drops below the
// shipping fee.
func Discount(c *models.Coupon, subtotal money.Money) money.Money {
	switch c.DiscountType {
	case enums.DiscountTypePercent:
		return money.Min(subtotal.PercentOf(c.Amount), subtotal)
	case enums.DiscountTypeFixed:
		fixed := c.Amount.Floor().IntPart()
		if fixed < 0 {
			return money.Zero
		}
		return money.Min(money.Money(fixed), subtotal)
	default:
		return money.Zero
	}
}

// CanonicalCode normalizes user input to the stored form: uppercase with
// all whitespace stripped.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

func invalid(reason Reason) Outcome {
	return Outcome{Reason: reason}
}
