package pricing

import (
	"github.com/ruizcommerce/storefront-backend/pkg/config"
	"github.com/ruizcommerce/storefront-backend/pkg/enums"
	"github.com/ruizcommerce/storefront-backend/pkg/money"
)

// ZoneFlatRule returns the flat-fee shipping rule for a delivery zone.
// Orders at or above the free-delivery threshold ship free.
func ZoneFlatRule(cfg config.ShippingConfig, zone enums.ShippingZone) ShippingRule {
	fee := money.Money(cfg.OutsideCityFee)
	if zone == enums.ShippingZoneInsideDhaka {
		fee = money.Money(cfg.InsideCityFee)
	}
	threshold := money.Money(cfg.FreeDeliveryThreshold)

	return func(subtotal money.Money) money.Money {
		if threshold > 0 && subtotal >= threshold {
			return money.Zero
		}
		return fee
	}
}
