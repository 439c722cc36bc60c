package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/egyw/proyek-fpw-sub002/models"
)

func float64Ptr(v float64) *float64 { return &v }

func cartItem(category, productUnit, selectedUnit string, qty float64, weightKg *float64) models.CartItem {
	return models.CartItem{
		Unit:     selectedUnit,
		Quantity: qty,
		Product: models.Product{
			Unit:     productUnit,
			WeightKg: weightKg,
			Category: models.ProductCategory{Name: category},
		},
	}
}

func TestWeightKgPerUnit(t *testing.T) {
	tests := []struct {
		name         string
		category     string
		selectedUnit string
		productUnit  string
		weightKg     *float64
		want         float64
	}{
		{"satuan beda pakai tabel", "semen", "kg", "sak", float64Ptr(50), 1},
		{"satuan sama pakai atribut produk", "semen", "sak", "sak", float64Ptr(42.5), 42.5},
		{"satuan sama tanpa atribut pakai tabel", "besi", "batang", "batang", nil, 7.4},
		{"kategori tak dikenal pakai atribut", "elektronik", "pcs", "pcs", float64Ptr(2.5), 2.5},
		{"kategori tak dikenal tanpa atribut", "elektronik", "pcs", "pcs", nil, 1},
		{"atribut nol diabaikan", "besi", "batang", "batang", float64Ptr(0), 7.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightKgPerUnit(tt.category, tt.selectedUnit, tt.productUnit, tt.weightKg)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestItemWeightGrams(t *testing.T) {
	// 3 batang besi tanpa atribut berat -> 3 * 7.4 kg = 22200 gram
	besi := cartItem("besi", "batang", "batang", 3, nil)
	assert.Equal(t, 22200, ItemWeightGrams(besi))

	// 2 sak semen dibeli dalam kg: 100 kg = 100000 gram
	semen := cartItem("semen", "sak", "kg", 100, float64Ptr(50))
	assert.Equal(t, 100000, ItemWeightGrams(semen))

	// qty negatif tidak boleh menghasilkan berat negatif
	minus := cartItem("besi", "batang", "batang", -2, nil)
	assert.Equal(t, 0, ItemWeightGrams(minus))

	// pembulatan ke gram terdekat
	pecahan := cartItem("elektronik", "pcs", "pcs", 1, float64Ptr(0.0015))
	assert.Equal(t, 2, ItemWeightGrams(pecahan))
}

func TestAggregateWeightGrams(t *testing.T) {
	items := []models.CartItem{
		cartItem("besi", "batang", "batang", 3, nil),
		cartItem("semen", "sak", "sak", 2, nil),
	}
	// 22200 + 2*50000
	assert.Equal(t, 122200, AggregateWeightGrams(items))

	// urutan tidak mempengaruhi total
	reversed := []models.CartItem{items[1], items[0]}
	assert.Equal(t, AggregateWeightGrams(items), AggregateWeightGrams(reversed))

	assert.Equal(t, 0, AggregateWeightGrams(nil))
}
