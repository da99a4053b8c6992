package shared

import "github.com/shopspring/decimal"

// LineTotal computes quantity × rate rounded to 2 decimal places of currency.
func LineTotal(quantity int, rate float64) float64 {
	total := decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(int64(quantity)))
	return total.Round(2).InexactFloat64()
}

// SumAmounts adds currency amounts without accumulating float drift.
func SumAmounts(amounts ...float64) float64 {
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(decimal.NewFromFloat(a))
	}
	return sum.Round(2).InexactFloat64()
}

// Round2 normalises an amount to 2 decimal places.
func Round2(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}
