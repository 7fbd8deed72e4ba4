package exporter

import (
	"github.com/shopspring/decimal"
)

// formatDecimal renders a value with a fixed number of places, or an empty
// cell when absent
func formatDecimal(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(places)
}

// toFloat converts for spreadsheet cells, the only place results leave
// exact decimal arithmetic
func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
