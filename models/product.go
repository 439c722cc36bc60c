package models

import (
	"time"
)

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	Category    ProductCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category"`
	Name        string          `gorm:"type:varchar(150);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Unit        string          `gorm:"type:varchar(20);not null" json:"unit"` // satuan jual asli produk (sak, batang, dus, ...)
	Price       float64         `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock       float64         `gorm:"not null;default:0" json:"stock"` // stok dalam satuan jual asli
	WeightKg    *float64        `json:"weight_kg,omitempty"`             // berat per satuan jual; nil = pakai default kategori
	ImageURL    string          `gorm:"type:varchar(255)" json:"image_url"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}
