package totals

import (
	"math/rand"
	"testing"

	"github.com/corray333/backend-labs/pos/internal/service/engine/builder"
	"github.com/corray333/backend-labs/pos/internal/service/models/money"
	"github.com/corray333/backend-labs/pos/internal/service/models/product"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCalculate_Scenario(t *testing.T) {
	items := []builder.Item{
		{ProductID: uuid.New(), ProductName: "Gelato Cup", UnitPrice: 350, Quantity: 2},
		{ProductID: uuid.New(), ProductName: "Cone", UnitPrice: 200, Quantity: 1},
	}

	got := NewCalculator(NoTax).Calculate(items)

	assert.Equal(t, Totals{Subtotal: 900, Tax: 0, Total: 900}, got)
	assert.Equal(t, "9.00", got.Total.String())
}

func TestCalculate_Empty(t *testing.T) {
	got := NewCalculator(nil).Calculate(nil)
	assert.Equal(t, Totals{}, got)
}

func TestCalculate_ZeroValueCalculatorUsesNoTax(t *testing.T) {
	var c Calculator
	got := c.Calculate([]builder.Item{{UnitPrice: 100, Quantity: 3}})
	assert.Equal(t, Totals{Subtotal: 300, Total: 300}, got)
}

func TestCalculate_PolicyReceivesSubtotalAndItems(t *testing.T) {
	items := []builder.Item{{UnitPrice: 1000, Quantity: 2}}

	var gotSubtotal money.Cents
	var gotItems int
	policy := func(subtotal money.Cents, items []builder.Item) money.Cents {
		gotSubtotal = subtotal
		gotItems = len(items)

		return 150
	}

	got := NewCalculator(policy).Calculate(items)

	assert.Equal(t, money.Cents(2000), gotSubtotal)
	assert.Equal(t, 1, gotItems)
	assert.Equal(t, Totals{Subtotal: 2000, Tax: 150, Total: 2150}, got)
}

func TestFlatRate(t *testing.T) {
	tests := []struct {
		bps      int64
		subtotal money.Cents
		want     money.Cents
	}{
		{0, 1000, 0},
		{825, 1000, 83},
		{1000, 999, 100},
		{825, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FlatRate(tt.bps)(tt.subtotal, nil), "bps=%d subtotal=%d", tt.bps, tt.subtotal)
	}
}

func TestCalculate_SubtotalMatchesItemsAfterRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	products := make([]product.Product, 5)
	for i := range products {
		products[i] = product.Product{ID: uuid.New(), Name: "p", Price: money.Cents(rng.Intn(1000) + 1)}
	}

	b := builder.New()
	calc := NewCalculator(NoTax)
	for i := 0; i < 2000; i++ {
		p := products[rng.Intn(len(products))]
		switch rng.Intn(3) {
		case 0:
			b.AddItem(p)
		case 1:
			b.SetQuantity(p.ID, rng.Intn(10)-2)
		case 2:
			b.RemoveItem(p.ID)
		}

		var want money.Cents
		for _, it := range b.Items() {
			want += it.UnitPrice * money.Cents(it.Quantity)
		}
		got := calc.Calculate(b.Items())
		assert.Equal(t, want, got.Subtotal)
		assert.Equal(t, got.Subtotal, got.Total)
	}
}

func TestCalculate_NoDriftOnSmallAmounts(t *testing.T) {
	items := make([]builder.Item, 0, 100)
	for i := 0; i < 100; i++ {
		items = append(items, builder.Item{ProductID: uuid.New(), UnitPrice: 10, Quantity: 1})
	}

	got := NewCalculator(NoTax).Calculate(items)
	assert.Equal(t, "10.00", got.Total.String())
}
