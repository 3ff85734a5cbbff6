package sales

import "github.com/shopspring/decimal"

// CurrencyPlaces is the number of decimal places every stored or displayed
// currency amount is rounded to.
const CurrencyPlaces = 2

// RoundCurrency rounds half away from zero to CurrencyPlaces.
// Aggregates accumulate at full precision and call this once per metric.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// CurrencyFloat converts a rounded amount to float64 for JSON responses.
func CurrencyFloat(d decimal.Decimal) float64 {
	v, _ := RoundCurrency(d).Float64()
	return v
}

// SumTotals adds up TotalAmount of the given orders without rounding.
func SumTotals(orders []Order) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(o.TotalAmount)
	}
	return sum
}
