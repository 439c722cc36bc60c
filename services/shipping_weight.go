package services

import (
	"math"
	"strings"

	"github.com/egyw/proyek-fpw-sub002/models"
)

// Berat default kalau kategori sama sekali tidak dikenal. Tidak boleh nol
// supaya kurir tidak pernah mendapat quote pengiriman 0 gram.
const fallbackWeightKgPerUnit = 1.0

// WeightKgPerUnit menentukan berat (kg) untuk 1 satuan yang dipilih pembeli.
// Urutan resolusi:
//  1. satuan beli != satuan asli produk -> pakai berat satuan dari tabel
//     kategori (pembeli memilih satuan dengan berat tetap, mis. kg/ton);
//  2. satuan beli == satuan asli -> prioritaskan atribut weight_kg produk,
//     baru fallback ke berat satuan di tabel;
//  3. satuan/kategori tidak dikenal -> atribut produk, terakhir 1 kg.
func WeightKgPerUnit(category, selectedUnit, productUnit string, productWeightKg *float64) float64 {
	table, ok := LookupCategoryTable(category)
	if ok {
		if def, found := table.findUnit(selectedUnit); found {
			if !strings.EqualFold(selectedUnit, productUnit) {
				return def.WeightKg
			}
			if productWeightKg != nil && *productWeightKg > 0 {
				return *productWeightKg
			}
			return def.WeightKg
		}
	}

	if productWeightKg != nil && *productWeightKg > 0 {
		return *productWeightKg
	}
	return fallbackWeightKgPerUnit
}

// ItemWeightGrams menghitung berat satu baris keranjang dalam gram.
// Hasil selalu integer non-negatif.
func ItemWeightGrams(item models.CartItem) int {
	kgPerUnit := WeightKgPerUnit(item.Product.Category.Name, item.Unit, item.Product.Unit, item.Product.WeightKg)
	grams := math.Round(item.Quantity * kgPerUnit * 1000)
	if grams < 0 {
		return 0
	}
	return int(grams)
}

// AggregateWeightGrams menjumlahkan berat seluruh isi keranjang. Penjumlahan
// komutatif, urutan item tidak berpengaruh; hasil dipakai sebagai input
// lookup tarif ongkir.
func AggregateWeightGrams(items []models.CartItem) int {
	total := 0
	for _, item := range items {
		total += ItemWeightGrams(item)
	}
	return total
}
