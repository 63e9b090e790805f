package cart

import (
	"github.com/google/uuid"

	"github.com/ruizcommerce/storefront-backend/pkg/money"
)

// Line is one selected variant in a cart. Lines are owned by the Cart and
// mutated only through its operations.
type Line struct {
	VariantID  uuid.UUID   `json:"variant_id"`
	ProductID  uuid.UUID   `json:"product_id"`
	SKU        string      `json:"sku"`
	Title      string      `json:"title"`
	UnitPrice  money.Money `json:"unit_price_minor"`
	Quantity   int         `json:"quantity"`
	StockAtAdd int         `json:"stock_at_add"`
}

// VariantInfo carries the catalog data needed to add a line.
type VariantInfo struct {
	VariantID uuid.UUID
	ProductID uuid.UUID
	SKU       string
	Title     string
	UnitPrice money.Money
	StockQty  int
}

// MutationResult reports what a cart operation actually did. Stock is a
// soft ceiling: requests above it are clamped, not rejected, and the
// StockLimited flag surfaces the clamp to the caller.
type MutationResult struct {
	VariantID    uuid.UUID `json:"variant_id"`
	Quantity     int       `json:"quantity"`
	StockLimited bool      `json:"stock_limited"`
	Removed      bool      `json:"removed"`
}

// Cart is an ordered sequence of lines, unique per variant id. It is
// single-owner state: one cart per session, no internal locking.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Restore rebuilds a cart from a persisted snapshot, preserving order.
func Restore(lines []Line) *Cart {
	c := &Cart{lines: make([]Line, 0, len(lines))}
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		c.lines = append(c.lines, line)
	}
	return c
}

// AddItem inserts the variant or merges quantity into an existing line.
// The resulting quantity is clamped to the variant's stock.
func (c *Cart) AddItem(info VariantInfo, qty int) MutationResult {
	if qty <= 0 {
		qty = 1
	}

	if idx := c.indexOf(info.VariantID); idx >= 0 {
		line := &c.lines[idx]
		line.StockAtAdd = info.StockQty
		clamped, limited := money.ClampQty(line.Quantity+qty, info.StockQty)
		line.Quantity = clamped
		if clamped == 0 {
			c.removeAt(idx)
			return MutationResult{VariantID: info.VariantID, StockLimited: limited, Removed: true}
		}
		return MutationResult{VariantID: info.VariantID, Quantity: clamped, StockLimited: limited}
	}

	clamped, limited := money.ClampQty(qty, info.StockQty)
	if clamped == 0 {
		return MutationResult{VariantID: info.VariantID, StockLimited: limited, Removed: true}
	}
	c.lines = append(c.lines, Line{
		VariantID:  info.VariantID,
		ProductID:  info.ProductID,
		SKU:        info.SKU,
		Title:      info.Title,
		UnitPrice:  info.UnitPrice,
		Quantity:   clamped,
		StockAtAdd: info.StockQty,
	})
	return MutationResult{VariantID: info.VariantID, Quantity: clamped, StockLimited: limited}
}

// UpdateQuantity sets a line's quantity. A quantity at or below zero
// removes the line; a quantity above the stock observed at add time is
// clamped and flagged.
func (c *Cart) UpdateQuantity(variantID uuid.UUID, qty int) MutationResult {
	idx := c.indexOf(variantID)
	if idx < 0 {
		return MutationResult{VariantID: variantID, Removed: true}
	}

	if qty <= 0 {
		c.removeAt(idx)
		return MutationResult{VariantID: variantID, Removed: true}
	}

	line := &c.lines[idx]
	clamped, limited := money.ClampQty(qty, line.StockAtAdd)
	if clamped == 0 {
		c.removeAt(idx)
		return MutationResult{VariantID: variantID, StockLimited: limited, Removed: true}
	}
	line.Quantity = clamped
	return MutationResult{VariantID: variantID, Quantity: clamped, StockLimited: limited}
}

// RemoveItem deletes the line if present. Removing an absent variant is a
// no-op.
func (c *Cart) RemoveItem(variantID uuid.UUID) {
	if idx := c.indexOf(variantID); idx >= 0 {
		c.removeAt(idx)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns the current ordered sequence. Callers must not mutate the
// returned slice.
func (c *Cart) Lines() []Line {
	return c.lines
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Subtotal sums line totals with integer arithmetic.
func (c *Cart) Subtotal() money.Money {
	var sum money.Money
	for _, line := range c.lines {
		sum = sum.Add(line.UnitPrice.MulQty(line.Quantity))
	}
	return sum
}

func (c *Cart) indexOf(variantID uuid.UUID) int {
	for i, line := range c.lines {
		if line.VariantID == variantID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
}
