// Package quoting holds the pure quote rules: pricing, numbering, status
// transitions and the CRM stage each transition implies. Nothing here touches
// the database or the network.
package quoting

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Belgian defaults, used when a quote carries no explicit rate.
var (
	DefaultHourlyRate = decimal.NewFromInt(65)
	DefaultTaxRate    = decimal.NewFromInt(21)
)

var hundred = decimal.NewFromInt(100)

// ErrNoItems is returned when a quote would be created without any line.
var ErrNoItems = errors.New("quote must contain at least one labor or part line")

// ItemKind distinguishes the synthetic labor line from inventory parts.
type ItemKind string

const (
	KindLabor ItemKind = "labor"
	KindPart  ItemKind = "part"
)

func (k ItemKind) Valid() bool {
	return k == KindLabor || k == KindPart
}

// Line is a priced quantity. Only part lines count towards the parts total;
// labor is always derived from hours and rate.
type Line struct {
	Kind      ItemKind
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// LineTotal returns quantity*unit price rounded to cents.
func (l Line) LineTotal() decimal.Decimal {
	return Round2(l.Quantity.Mul(l.UnitPrice))
}

type Input struct {
	EstimatedHours decimal.Decimal
	HourlyRate     *decimal.Decimal
	TaxRate        *decimal.Decimal
	Lines          []Line
}

type Breakdown struct {
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	LaborTotal decimal.Decimal `json:"labor_total"`
	PartsTotal decimal.Decimal `json:"parts_total"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	Total      decimal.Decimal `json:"total"`
}

// Calculate prices a quote. Every figure is rounded half away from zero to two
// decimals; the tax is computed on the rounded subtotal so that
// total == subtotal + tax holds exactly on the stored values.
func Calculate(in Input) Breakdown {
	rate := DefaultHourlyRate
	if in.HourlyRate != nil {
		rate = *in.HourlyRate
	}
	taxRate := DefaultTaxRate
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}

	labor := Round2(in.EstimatedHours.Mul(rate))

	parts := decimal.Zero
	for _, l := range in.Lines {
		if l.Kind != KindPart {
			continue
		}
		parts = parts.Add(l.LineTotal())
	}
	parts = Round2(parts)

	subtotal := labor.Add(parts)
	tax := Round2(subtotal.Mul(taxRate).Div(hundred))

	return Breakdown{
		HourlyRate: rate,
		TaxRate:    taxRate,
		LaborTotal: labor,
		PartsTotal: parts,
		Subtotal:   subtotal,
		TaxAmount:  tax,
		Total:      subtotal.Add(tax),
	}
}

// Round2 rounds to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ErrTooPrecise flags an amount with more than two decimals. Stored amounts
// are NUMERIC(x,2), so accepting one would price a value the row cannot hold.
var ErrTooPrecise = errors.New("must have at most 2 decimals")

// Cents returns d rounded to cents, or ErrTooPrecise when that rounding would
// change its value. Trailing zeros are fine: "1.500" comes back as 1.50.
func Cents(field string, d decimal.Decimal) (decimal.Decimal, error) {
	r := Round2(d)
	if !r.Equal(d) {
		return d, fmt.Errorf("%s %w", field, ErrTooPrecise)
	}
	return r, nil
}

// PartLine is a resolved inventory part ready to become a quote item.
type PartLine struct {
	InventoryItemID *string
	Label           string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
}

// ItemDraft is a quote item before it has been persisted.
type ItemDraft struct {
	Kind            ItemKind
	Label           string
	InventoryItemID *string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	LineTotal       decimal.Decimal
	Position        int
}

// LaborLabel is the label of the synthetic labor line.
const LaborLabel = "Main d'oeuvre"

// BuildItems produces the full item set for a quote: a labor line when hours
// are positive, then one line per part, in order. It returns ErrNoItems when
// the result would be empty.
func BuildItems(hours, rate decimal.Decimal, parts []PartLine) ([]ItemDraft, error) {
	items := make([]ItemDraft, 0, len(parts)+1)
	if hours.IsPositive() {
		items = append(items, ItemDraft{
			Kind:      KindLabor,
			Label:     LaborLabel,
			Quantity:  hours,
			UnitPrice: rate,
			LineTotal: Round2(hours.Mul(rate)),
		})
	}
	for _, p := range parts {
		if !p.Quantity.IsPositive() {
			continue
		}
		items = append(items, ItemDraft{
			Kind:            KindPart,
			Label:           p.Label,
			InventoryItemID: p.InventoryItemID,
			Quantity:        p.Quantity,
			UnitPrice:       p.UnitPrice,
			LineTotal:       Round2(p.Quantity.Mul(p.UnitPrice)),
		})
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for i := range items {
		items[i].Position = i
	}
	return items, nil
}

// Lines converts drafts into pricing lines.
func Lines(items []ItemDraft) []Line {
	out := make([]Line, len(items))
	for i, it := range items {
		out[i] = Line{Kind: it.Kind, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return out
}
