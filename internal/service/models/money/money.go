package money

import (
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/shopspring/decimal"
)

// Cents is an amount of money in minor units.
type Cents int64

// Zero is the zero amount.
const Zero Cents = 0

var hundred = decimal.NewFromInt(100)

// FromDecimal converts a decimal amount to cents, rounding half away from zero.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// Parse converts a decimal string such as "3.50" to cents.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}

	return FromDecimal(d), nil
}

// Decimal returns the amount as a decimal with two places.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Times multiplies the amount by an integer quantity.
func (c Cents) Times(qty int) Cents {
	return c * Cents(qty)
}

// String returns the amount with exactly two decimal places.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Format returns the amount prefixed with the currency symbol, e.g. "$7.00".
func (c Cents) Format(cur currency.Currency) string {
	if c < 0 {
		return "-" + cur.Symbol() + (-c).String()
	}

	return cur.Symbol() + c.String()
}
