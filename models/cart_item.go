package models

import (
	"time"
)

// CartItem adalah baris keranjang milik satu user. Produk yang sama dengan
// satuan berbeda dihitung sebagai baris terpisah (unique per user+product+unit).
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product_unit" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product_unit" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"product"`
	Unit      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_cart_user_product_unit" json:"unit"`
	Quantity  float64   `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
