package quoting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatQuoteNumber(t *testing.T) {
	assert.Equal(t, "2026001", FormatQuoteNumber(2026, 1))
	assert.Equal(t, "2026005", FormatQuoteNumber(2026, 5))
	assert.Equal(t, "2025100", FormatQuoteNumber(2025, 100))
	assert.Equal(t, "20261000", FormatQuoteNumber(2026, 1000))
}
