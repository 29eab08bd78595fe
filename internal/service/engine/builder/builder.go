// Package builder holds the in-progress sale of a single till session.
package builder

import (
	"math"
	"strconv"
	"strings"

	"github.com/corray333/backend-labs/pos/internal/service/models/money"
	"github.com/corray333/backend-labs/pos/internal/service/models/product"
	"github.com/google/uuid"
)

// Item is a line of the in-progress sale. Name and unit price are copied from the
// product when it is first added and never follow later catalog changes.
type Item struct {
	ProductID   uuid.UUID   `json:"productId"`
	ProductName string      `json:"productName"`
	UnitPrice   money.Cents `json:"unitPrice"`
	Quantity    int         `json:"quantity"`
}

// Subtotal is always derived from quantity and unit price.
func (i Item) Subtotal() money.Cents {
	return i.UnitPrice.Times(i.Quantity)
}

// Builder accumulates order items keyed by product, in first-added order.
// It is not safe for concurrent use.
type Builder struct {
	order []uuid.UUID
	items map[uuid.UUID]*Item
}

// New creates an empty builder.
func New() *Builder {
	return &Builder{
		items: make(map[uuid.UUID]*Item),
	}
}

// AddItem adds one unit of the product.
func (b *Builder) AddItem(p product.Product) {
	if it, ok := b.items[p.ID]; ok {
		it.Quantity++

		return
	}

	b.items[p.ID] = &Item{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    1,
	}
	b.order = append(b.order, p.ID)
}

// SetQuantity sets the quantity of a product already in the sale.
// A quantity of zero or less removes the item.
func (b *Builder) SetQuantity(productID uuid.UUID, qty int) {
	if qty <= 0 {
		b.RemoveItem(productID)

		return
	}

	if it, ok := b.items[productID]; ok {
		it.Quantity = qty
	}
}

// RemoveItem removes the product from the sale. Unknown ids are ignored.
func (b *Builder) RemoveItem(productID uuid.UUID) {
	if _, ok := b.items[productID]; !ok {
		return
	}

	delete(b.items, productID)
	for i, id := range b.order {
		if id == productID {
			b.order = append(b.order[:i], b.order[i+1:]...)

			break
		}
	}
}

// Clear empties the sale.
func (b *Builder) Clear() {
	b.order = nil
	b.items = make(map[uuid.UUID]*Item)
}

// Len returns the number of distinct items.
func (b *Builder) Len() int {
	return len(b.order)
}

// Items returns a copy of the items in first-added order.
func (b *Builder) Items() []Item {
	out := make([]Item, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.items[id])
	}

	return out
}

// ParseQuantity turns raw operator input into a quantity. Leading whitespace and
// one sign are accepted, then digits are read up to the first other character:
// "3abc" is 3, "2.9" is 2 and "1e3" is 1. Input without leading digits yields 0.
// Values beyond the int32 range are clamped.
func ParseQuantity(raw string) int {
	s := strings.TrimLeft(raw, " \t\r\n")

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		n = math.MaxInt32
	}
	if neg {
		return -int(n)
	}

	return int(n)
}
