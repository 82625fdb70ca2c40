package quoting

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EmailItem is the shape quote lines take inside notification templates.
// Amounts are fixed two-decimal strings so rendering never goes through float.
type EmailItem struct {
	Kind      string `json:"kind"`
	Label     string `json:"label"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

func ToEmailItems(items []ItemDraft) []EmailItem {
	out := make([]EmailItem, len(items))
	for i, it := range items {
		out[i] = EmailItem{
			Kind:      string(it.Kind),
			Label:     it.Label,
			Quantity:  it.Quantity.String(),
			UnitPrice: it.UnitPrice.StringFixed(2),
			LineTotal: it.LineTotal.StringFixed(2),
		}
	}
	return out
}

func FromEmailItems(items []EmailItem) ([]ItemDraft, error) {
	out := make([]ItemDraft, len(items))
	for i, it := range items {
		qty, err := decimal.NewFromString(it.Quantity)
		if err != nil {
			return nil, fmt.Errorf("item %d quantity: %w", i, err)
		}
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("item %d unit price: %w", i, err)
		}
		total, err := decimal.NewFromString(it.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("item %d line total: %w", i, err)
		}
		out[i] = ItemDraft{
			Kind:      ItemKind(it.Kind),
			Label:     it.Label,
			Quantity:  qty,
			UnitPrice: price,
			LineTotal: total,
			Position:  i,
		}
	}
	return out, nil
}
