package totals

import (
	"github.com/corray333/backend-labs/pos/internal/service/engine/builder"
	"github.com/corray333/backend-labs/pos/internal/service/models/money"
)

// Totals is the price breakdown of a sale.
type Totals struct {
	Subtotal money.Cents `json:"subtotal"`
	Tax      money.Cents `json:"tax"`
	Total    money.Cents `json:"total"`
}

// TaxPolicy computes the tax owed on a sale.
type TaxPolicy func(subtotal money.Cents, items []builder.Item) money.Cents

// NoTax charges no tax.
func NoTax(money.Cents, []builder.Item) money.Cents {
	return money.Zero
}

// FlatRate charges bps basis points of the subtotal, rounded half up to the cent.
func FlatRate(bps int64) TaxPolicy {
	if bps <= 0 {
		return NoTax
	}

	return func(subtotal money.Cents, _ []builder.Item) money.Cents {
		if subtotal <= 0 {
			return money.Zero
		}

		return money.Cents((int64(subtotal)*bps + 5000) / 10000)
	}
}

// Calculator computes totals with a pluggable tax policy.
type Calculator struct {
	tax TaxPolicy
}

// NewCalculator creates a calculator. A nil policy means NoTax.
func NewCalculator(tax TaxPolicy) Calculator {
	if tax == nil {
		tax = NoTax
	}

	return Calculator{tax: tax}
}

// Calculate sums the item subtotals and applies the tax policy.
func (c Calculator) Calculate(items []builder.Item) Totals {
	var subtotal money.Cents
	for _, it := range items {
		subtotal += it.Subtotal()
	}

	policy := c.tax
	if policy == nil {
		policy = NoTax
	}
	tax := policy(subtotal, items)

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}
