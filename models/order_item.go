package models

import (
	"time"
)

// OrderItem menyimpan snapshot produk saat checkout. Nama, harga dan satuan
// dibekukan di sini dan tidak pernah dibaca ulang dari tabel products.
type OrderItem struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	OrderID uint  `gorm:"not null;index" json:"order_id"`
	Order   Order `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	ProductID   uint    `gorm:"not null" json:"product_id"`
	ProductName string  `gorm:"type:varchar(150);not null" json:"product_name"`
	Category    string  `gorm:"type:varchar(50);not null" json:"category"`
	Unit        string  `gorm:"type:varchar(20);not null" json:"unit"`         // satuan yang dipilih pembeli
	ProductUnit string  `gorm:"type:varchar(20);not null" json:"product_unit"` // satuan jual asli produk
	Quantity    float64 `gorm:"not null" json:"quantity"`
	Price       float64 `gorm:"type:decimal(12,2);not null" json:"price"` // harga per satuan jual asli saat checkout
	Subtotal    float64 `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	WeightGrams int     `gorm:"not null;default:0" json:"weight_grams"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
