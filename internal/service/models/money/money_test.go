package money

import (
	"testing"

	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want Cents
	}{
		{"3.50", 350},
		{"0", 0},
		{"2", 200},
		{"0.105", 11},
		{"0.104", 10},
		{"19.99", 1999},
	}
	for _, tt := range tests {
		got := FromDecimal(decimal.RequireFromString(tt.in))
		assert.Equal(t, tt.want, got, "FromDecimal(%s)", tt.in)
	}
}

func TestParse_InvalidInput(t *testing.T) {
	_, err := Parse("abc")
	require.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$7.00", Cents(700).Format(currency.CurrencyUSD))
	assert.Equal(t, "$0.05", Cents(5).Format(currency.CurrencyUSD))
	assert.Equal(t, "$1234.50", Cents(123450).Format(currency.CurrencyUSD))
	assert.Equal(t, "-$1.25", Cents(-125).Format(currency.CurrencyUSD))
}

func TestDecimalRoundTrip(t *testing.T) {
	c, err := Parse("9.00")
	require.NoError(t, err)
	assert.Equal(t, "9.00", c.String())
	assert.True(t, c.Decimal().Equal(decimal.RequireFromString("9")))
}

func TestNoDriftAfterManySmallAdditions(t *testing.T) {
	var sum Cents
	for i := 0; i < 1000; i++ {
		sum += Cents(10)
	}
	assert.Equal(t, "100.00", sum.String())
}
