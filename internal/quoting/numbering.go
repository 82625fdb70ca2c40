package quoting

import "fmt"

// FormatQuoteNumber renders a per-year sequence as "{year}{seq:03d}". Sequences
// past 999 simply widen.
func FormatQuoteNumber(year, seq int) string {
	return fmt.Sprintf("%d%03d", year, seq)
}
