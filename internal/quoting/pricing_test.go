package quoting

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }

func TestCalculate_Defaults(t *testing.T) {
	b := Calculate(Input{
		EstimatedHours: d("2"),
		Lines:          []Line{{Kind: KindPart, Quantity: d("1"), UnitPrice: d("100")}},
	})

	assert.Equal(t, "65.00", b.HourlyRate.StringFixed(2))
	assert.Equal(t, "21.00", b.TaxRate.StringFixed(2))
	assert.Equal(t, "130.00", b.LaborTotal.StringFixed(2))
	assert.Equal(t, "100.00", b.PartsTotal.StringFixed(2))
	assert.Equal(t, "230.00", b.Subtotal.StringFixed(2))
	assert.Equal(t, "48.30", b.TaxAmount.StringFixed(2))
	assert.Equal(t, "278.30", b.Total.StringFixed(2))
}

func TestCalculate_IgnoresLaborLinesInPartsTotal(t *testing.T) {
	b := Calculate(Input{
		EstimatedHours: d("1.5"),
		HourlyRate:     ptr(d("80")),
		TaxRate:        ptr(d("6")),
		Lines: []Line{
			{Kind: KindLabor, Quantity: d("1.5"), UnitPrice: d("80")},
			{Kind: KindPart, Quantity: d("3"), UnitPrice: d("12.99")},
		},
	})

	assert.Equal(t, "120.00", b.LaborTotal.StringFixed(2))
	assert.Equal(t, "38.97", b.PartsTotal.StringFixed(2))
	assert.Equal(t, "158.97", b.Subtotal.StringFixed(2))
	assert.Equal(t, "9.54", b.TaxAmount.StringFixed(2))
	assert.Equal(t, "168.51", b.Total.StringFixed(2))
}

func TestCalculate_EmptyInput(t *testing.T) {
	b := Calculate(Input{})
	assert.True(t, b.LaborTotal.IsZero())
	assert.True(t, b.PartsTotal.IsZero())
	assert.True(t, b.Total.IsZero())
}

func TestCalculate_TotalInvariant(t *testing.T) {
	cases := []Input{
		{EstimatedHours: d("0.25"), Lines: []Line{{Kind: KindPart, Quantity: d("7"), UnitPrice: d("3.333")}}},
		{EstimatedHours: d("3"), HourlyRate: ptr(d("72.5")), TaxRate: ptr(d("0"))},
		{EstimatedHours: d("4"), Lines: []Line{
			{Kind: KindPart, Quantity: d("2"), UnitPrice: d("19.995")},
			{Kind: KindPart, Quantity: d("1"), UnitPrice: d("0.01")},
		}},
	}
	for _, in := range cases {
		b := Calculate(in)
		factor := decimal.NewFromInt(1).Add(b.TaxRate.Div(decimal.NewFromInt(100)))
		want := b.LaborTotal.Add(b.PartsTotal).Mul(factor).Round(2)
		assert.True(t, want.Equal(b.Total), "want %s got %s", want, b.Total)
		assert.True(t, b.Subtotal.Add(b.TaxAmount).Equal(b.Total))
	}
}

func TestBuildItems(t *testing.T) {
	id := "inv-1"
	items, err := BuildItems(d("2"), d("65"), []PartLine{
		{InventoryItemID: &id, Label: "Filtre", Quantity: d("2"), UnitPrice: d("15.5")},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, KindLabor, items[0].Kind)
	assert.Equal(t, "130.00", items[0].LineTotal.StringFixed(2))
	assert.Equal(t, 0, items[0].Position)

	assert.Equal(t, KindPart, items[1].Kind)
	assert.Equal(t, &id, items[1].InventoryItemID)
	assert.Equal(t, "31.00", items[1].LineTotal.StringFixed(2))
	assert.Equal(t, 1, items[1].Position)
}

func TestBuildItems_PartsOnly(t *testing.T) {
	items, err := BuildItems(decimal.Zero, d("65"), []PartLine{{Label: "Joint", Quantity: d("1"), UnitPrice: d("4")}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, KindPart, items[0].Kind)
	assert.Equal(t, 0, items[0].Position)
}

func TestBuildItems_Empty(t *testing.T) {
	_, err := BuildItems(decimal.Zero, d("65"), nil)
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = BuildItems(decimal.Zero, d("65"), []PartLine{{Label: "x", Quantity: decimal.Zero, UnitPrice: d("1")}})
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestCents(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2", "2", false},
		{"1.5", "1.5", false},
		{"1.500", "1.5", false},
		{"62.12", "62.12", false},
		{"-3.10", "-3.1", false},
		{"1.005", "", true},
		{"62.125", "", true},
		{"0.001", "", true},
		{"10.999", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Cents("amount", d(tt.in))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrTooPrecise)
				assert.Contains(t, err.Error(), "amount")
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
			assert.LessOrEqual(t, -got.Exponent(), int32(2))
		})
	}
}
