package postgres

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NUMERIC columns cross the wire as text so amounts never pass through
// float64.
func parseNumeric(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse numeric %q: %w", raw, err)
	}
	return value, nil
}

func numericArg(value decimal.Decimal) string {
	return value.StringFixed(2)
}
