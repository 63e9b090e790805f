// Package money provides integer arithmetic over amounts expressed in the
// smallest currency unit (poisha for BDT). Floating point never enters any
// computation; fractional percentages go through shopspring/decimal and are
// floored back to an integral amount.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a non-negative count of minor currency units. Discounts are
// carried as a positive magnitude that gets subtracted, never as a negative
// amount.
type Money int64

// Zero is the additive identity.
const Zero Money = 0

// New validates that the given minor-unit amount is usable as Money.
func New(minorUnits int64) (Money, error) {
	if minorUnits < 0 {
		return Zero, fmt.Errorf("money cannot be negative: %d", minorUnits)
	}
	return Money(minorUnits), nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return m + other
}

// SubFloor returns m - other, clamped at zero.
func (m Money) SubFloor(other Money) Money {
	if other >= m {
		return Zero
	}
	return m - other
}

// MulQty returns the line total for qty units priced at m.
func (m Money) MulQty(qty int) Money {
	if qty <= 0 {
		return Zero
	}
	return m * Money(qty)
}

// PercentOf computes floor(m * pct / 100) without intermediate floats.
// Fractional percentages (e.g. 7.5) are supported.
func (m Money) PercentOf(pct decimal.Decimal) Money {
	if pct.Sign() <= 0 {
		return Zero
	}
	raw := decimal.NewFromInt(int64(m)).Mul(pct).Div(decimal.NewFromInt(100))
	return Money(raw.Floor().IntPart())
}

// Min returns the smaller of the two amounts.
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// Int64 exposes the raw minor-unit count.
func (m Money) Int64() int64 {
	return int64(m)
}

// ClampQty limits a requested quantity to the available stock. The second
// return reports whether clamping occurred. Stock below zero is treated as
// zero.
func ClampQty(requested, stock int) (int, bool) {
	if stock < 0 {
		stock = 0
	}
	if requested <= stock {
		return requested, false
	}
	return stock, true
}
