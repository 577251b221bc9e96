package models

import "github.com/shopspring/decimal"

// ComputeTotals returns a copy of items with TotalAmount set to
// round(quantity * pricePerItem, 2), and the sum of those rounded totals.
// Any incoming TotalAmount is overwritten.
func ComputeTotals(items []AssetItem) ([]AssetItem, float64) {
	out := make([]AssetItem, len(items))
	sum := decimal.Zero
	for i, it := range items {
		total := LineTotal(it.Quantity, it.PricePerItem)
		it.TotalAmount = total.InexactFloat64()
		out[i] = it
		sum = sum.Add(total)
	}
	return out, sum.Round(2).InexactFloat64()
}

// LineTotal is quantity * price rounded half away from zero to 2 places.
func LineTotal(quantity int, price float64) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity)).Mul(decimal.NewFromFloat(price)).Round(2)
}

// RoundMoney rounds a float amount to 2 decimal places.
func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
