package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotals_SingleItem(t *testing.T) {
	items, grand := ComputeTotals([]AssetItem{{ItemName: "Projector", Quantity: 2, PricePerItem: 100}})

	assert.Equal(t, 200.0, items[0].TotalAmount)
	assert.Equal(t, 200.0, grand)
}

func TestComputeTotals_IgnoresClientTotals(t *testing.T) {
	in := []AssetItem{
		{ItemName: "Chair", Quantity: 3, PricePerItem: 0.1, TotalAmount: 999},
		{ItemName: "Desk", Quantity: 1, PricePerItem: 1250.5, TotalAmount: -1},
	}
	items, grand := ComputeTotals(in)

	assert.Equal(t, 0.3, items[0].TotalAmount)
	assert.Equal(t, 1250.5, items[1].TotalAmount)
	assert.Equal(t, 1250.8, grand)

	// input untouched
	assert.Equal(t, 999.0, in[0].TotalAmount)
}

func TestComputeTotals_RoundsHalfAwayFromZero(t *testing.T) {
	items, grand := ComputeTotals([]AssetItem{
		{Quantity: 3, PricePerItem: 33.335},
		{Quantity: 7, PricePerItem: 0.333},
	})

	assert.Equal(t, 100.01, items[0].TotalAmount)
	assert.Equal(t, 2.33, items[1].TotalAmount)
	assert.Equal(t, 102.34, grand)
}

func TestComputeTotals_GrandTotalIsSumOfItemTotals(t *testing.T) {
	prices := []float64{19.99, 0.01, 1234.567, 45.455, 3.3333, 1e6 / 3}
	var items []AssetItem
	for i, p := range prices {
		items = append(items, AssetItem{Quantity: i + 1, PricePerItem: p})
	}
	out, grand := ComputeTotals(items)

	sum := decimal.Zero
	for i, it := range out {
		want := decimal.NewFromInt(int64(i + 1)).Mul(decimal.NewFromFloat(prices[i])).Round(2)
		assert.Equal(t, want.InexactFloat64(), it.TotalAmount, "item %d", i)
		sum = sum.Add(decimal.NewFromFloat(it.TotalAmount))
	}
	assert.Equal(t, sum.Round(2).InexactFloat64(), grand)
}

func TestComputeTotals_Empty(t *testing.T) {
	items, grand := ComputeTotals(nil)
	assert.Empty(t, items)
	assert.Zero(t, grand)
}

func TestAssetApplyTotals(t *testing.T) {
	a := Asset{Items: []AssetItem{{Quantity: 2, PricePerItem: 150}, {Quantity: 1, PricePerItem: 400}}, GrandTotal: 1}
	a.ApplyTotals()
	assert.Equal(t, 700.0, a.GrandTotal)
	assert.Equal(t, 300.0, a.Items[0].TotalAmount)
}

func TestAssetPatchEmpty(t *testing.T) {
	assert.True(t, AssetPatch{}.Empty())
	sub := "lab"
	assert.False(t, AssetPatch{Subcategory: &sub}.Empty())
	assert.False(t, AssetPatch{Items: []AssetItem{}}.Empty())
}
