package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnsupportedCategory -> kategori tidak punya tabel konversi satuan
	ErrUnsupportedCategory = errors.New("unsupported category: no unit table registered")
	// ErrUnsupportedUnit -> satuan tidak terdaftar di tabel kategori
	ErrUnsupportedUnit = errors.New("unsupported unit for category")
)

// UnitDefinition mendefinisikan satu satuan jual dalam sebuah kategori.
// ToBase adalah faktor konversi nilai ke satuan dasar kategori, WeightKg
// adalah berat (kg) untuk 1 satuan ini. Dua field eksplisit supaya tabel
// konversi nilai dan tabel berat tidak bisa saling drift.
type UnitDefinition struct {
	Unit     string  `json:"unit"`
	Label    string  `json:"label"`
	ToBase   float64 `json:"to_base"`
	WeightKg float64 `json:"weight_kg"`
}

// CategoryUnitTable adalah tabel satuan per kategori. Invarian: setiap tabel
// punya tepat satu satuan dengan ToBase == 1 yaitu BaseUnit.
type CategoryUnitTable struct {
	BaseUnit    string           `json:"base_unit"`
	Conversions []UnitDefinition `json:"conversions"`
}

// Tabel satuan bawaan per kategori material. Key disimpan lowercase,
// pencarian kategori dan satuan case-insensitive.
var categoryUnits = map[string]CategoryUnitTable{
	"semen": {
		BaseUnit: "kg",
		Conversions: []UnitDefinition{
			{Unit: "kg", Label: "Kilogram", ToBase: 1, WeightKg: 1},
			{Unit: "sak", Label: "Sak (50 kg)", ToBase: 50, WeightKg: 50},
			{Unit: "zak", Label: "Zak (40 kg)", ToBase: 40, WeightKg: 40},
			{Unit: "ton", Label: "Ton", ToBase: 1000, WeightKg: 1000},
		},
	},
	"besi": {
		BaseUnit: "kg",
		Conversions: []UnitDefinition{
			{Unit: "kg", Label: "Kilogram", ToBase: 1, WeightKg: 1},
			{Unit: "batang", Label: "Batang (12 m)", ToBase: 7.4, WeightKg: 7.4},
			{Unit: "ton", Label: "Ton", ToBase: 1000, WeightKg: 1000},
		},
	},
	"pasir": {
		BaseUnit: "m3",
		Conversions: []UnitDefinition{
			{Unit: "m3", Label: "Meter kubik", ToBase: 1, WeightKg: 1400},
			{Unit: "karung", Label: "Karung (25 kg)", ToBase: 0.018, WeightKg: 25},
			{Unit: "truk", Label: "Truk (7 m3)", ToBase: 7, WeightKg: 9800},
		},
	},
	"cat": {
		BaseUnit: "kaleng",
		Conversions: []UnitDefinition{
			{Unit: "kaleng", Label: "Kaleng (5 kg)", ToBase: 1, WeightKg: 5},
			{Unit: "galon", Label: "Galon (20 kg)", ToBase: 4, WeightKg: 20},
			{Unit: "pail", Label: "Pail (25 kg)", ToBase: 5, WeightKg: 25},
		},
	},
	"keramik": {
		BaseUnit: "dus",
		Conversions: []UnitDefinition{
			{Unit: "dus", Label: "Dus (1.44 m2)", ToBase: 1, WeightKg: 23},
			{Unit: "pcs", Label: "Pcs", ToBase: 0.0625, WeightKg: 1.44},
		},
	},
	"paku": {
		BaseUnit: "kg",
		Conversions: []UnitDefinition{
			{Unit: "kg", Label: "Kilogram", ToBase: 1, WeightKg: 1},
			{Unit: "dus", Label: "Dus (25 kg)", ToBase: 25, WeightKg: 25},
		},
	},
	"pipa": {
		BaseUnit: "batang",
		Conversions: []UnitDefinition{
			{Unit: "batang", Label: "Batang (4 m)", ToBase: 1, WeightKg: 6},
		},
	},
	"triplek": {
		BaseUnit: "lembar",
		Conversions: []UnitDefinition{
			{Unit: "lembar", Label: "Lembar (122x244 cm)", ToBase: 1, WeightKg: 12},
		},
	},
}

// LookupCategoryTable mengembalikan tabel satuan untuk sebuah kategori.
func LookupCategoryTable(category string) (CategoryUnitTable, bool) {
	table, ok := categoryUnits[strings.ToLower(strings.TrimSpace(category))]
	return table, ok
}

// SupportedUnits mengembalikan daftar satuan yang bisa dipakai untuk kategori,
// atau nil kalau kategori tidak terdaftar (converter dimatikan di storefront).
func SupportedUnits(category string) []UnitDefinition {
	table, ok := LookupCategoryTable(category)
	if !ok {
		return nil
	}
	return table.Conversions
}

// SupportedCategories mengembalikan nama kategori yang punya tabel konversi,
// urut alfabetis. Dipakai seeding dan endpoint katalog.
func SupportedCategories() []string {
	names := make([]string, 0, len(categoryUnits))
	for name := range categoryUnits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t CategoryUnitTable) findUnit(unit string) (UnitDefinition, bool) {
	for _, def := range t.Conversions {
		if strings.EqualFold(def.Unit, strings.TrimSpace(unit)) {
			return def, true
		}
	}
	return UnitDefinition{}, false
}

// Convert mengkonversi qty dari fromUnit ke toUnit lewat satuan dasar kategori
// (dua hop: sumber -> dasar -> target) sehingga tabel per kategori cukup
// linear terhadap jumlah satuan. Qty nol/negatif diperbolehkan secara
// aritmatika; pemanggil yang memvalidasi positivity sebelum pembelian.
func Convert(category string, qty float64, fromUnit, toUnit string) (float64, error) {
	table, ok := LookupCategoryTable(category)
	if !ok {
		return 0, ErrUnsupportedCategory
	}

	from, ok := table.findUnit(fromUnit)
	if !ok {
		return 0, ErrUnsupportedUnit
	}
	to, ok := table.findUnit(toUnit)
	if !ok {
		return 0, ErrUnsupportedUnit
	}

	baseValue := qty * from.ToBase
	return baseValue / to.ToBase, nil
}

// PriceFor menghitung harga total: qty dikonversi dulu ke satuan jual asli
// produk (satuan tempat harga disimpan) baru dikalikan harga per satuan.
func PriceFor(category string, qty float64, fromUnit, productUnit string, unitPrice float64) (float64, error) {
	inProductUnit, err := Convert(category, qty, fromUnit, productUnit)
	if err != nil {
		return 0, err
	}
	return inProductUnit * unitPrice, nil
}

// StockAvailable mengkonversi stok (dalam satuan jual asli produk) ke satuan
// yang dipilih pembeli, dipakai untuk mencegah overselling saat satuan beli
// berbeda dengan satuan stok.
func StockAvailable(category string, stockInProductUnit float64, productUnit, targetUnit string) (float64, error) {
	return Convert(category, stockInProductUnit, productUnit, targetUnit)
}
