// Package receipt renders printable receipts from settled sale data.
package receipt

import (
	"strconv"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/engine/builder"
	"github.com/corray333/backend-labs/pos/internal/service/engine/totals"
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/shopsettings"
)

const (
	TimeLayout   = "2006-01-02 15:04:05"
	ThankYou     = "Thank you!"
	SubtotalText = "Subtotal"
	TaxText      = "Tax"
	TotalText    = "Total"
)

type Kind int

const (
	KindHeader Kind = iota
	KindDivider
	KindItem
	KindSubtotal
	KindTax
	KindTotal
	KindFooter
)

// Line is one row of a receipt. Header and footer lines only use Left.
type Line struct {
	Kind       Kind   `json:"kind"`
	Left       string `json:"left,omitempty"`
	Right      string `json:"right,omitempty"`
	Emphasized bool   `json:"emphasized,omitempty"`
}

// String joins both sides of the line with two spaces.
func (l Line) String() string {
	switch {
	case l.Right == "":
		return l.Left
	case l.Left == "":
		return l.Right
	default:
		return l.Left + "  " + l.Right
	}
}

// Document is a rendered receipt.
type Document struct {
	Lines []Line `json:"lines"`
}

// Renderer renders receipts in a fixed currency. Timestamps are shown in
// Location, or as given when it is nil.
type Renderer struct {
	Currency currency.Currency
	Location *time.Location
}

// Render renders a receipt with the default renderer.
func Render(settings shopsettings.ShopSettings, items []builder.Item, t totals.Totals, at time.Time) Document {
	return Renderer{Currency: currency.CurrencyUSD}.Render(settings, items, t, at)
}

// Render builds the receipt. It does not keep or modify any of its arguments.
func (r Renderer) Render(
	settings shopsettings.ShopSettings,
	items []builder.Item,
	t totals.Totals,
	at time.Time,
) Document {
	cur := r.Currency
	if cur == "" {
		cur = currency.CurrencyUSD
	}

	if r.Location != nil {
		at = at.In(r.Location)
	}

	lines := make([]Line, 0, len(items)+10)

	lines = append(lines, Line{Kind: KindHeader, Left: settings.DisplayName(), Emphasized: true})
	if settings.Address != "" {
		lines = append(lines, Line{Kind: KindHeader, Left: settings.Address})
	}
	if settings.Phone != "" {
		lines = append(lines, Line{Kind: KindHeader, Left: settings.Phone})
	}
	lines = append(lines, Line{Kind: KindHeader, Left: at.Format(TimeLayout)})

	lines = append(lines, Line{Kind: KindDivider})
	for _, it := range items {
		lines = append(lines, Line{
			Kind:  KindItem,
			Left:  itemLabel(it),
			Right: it.Subtotal().Format(cur),
		})
	}
	lines = append(lines, Line{Kind: KindDivider})

	lines = append(lines, Line{Kind: KindSubtotal, Left: SubtotalText, Right: t.Subtotal.Format(cur)})
	if t.Tax > 0 {
		lines = append(lines, Line{Kind: KindTax, Left: TaxText, Right: t.Tax.Format(cur)})
	}
	lines = append(lines, Line{Kind: KindTotal, Left: TotalText, Right: t.Total.Format(cur), Emphasized: true})

	lines = append(lines, Line{Kind: KindFooter, Left: ThankYou})

	return Document{Lines: lines}
}

func itemLabel(it builder.Item) string {
	return strconv.Itoa(it.Quantity) + "x " + it.ProductName
}
