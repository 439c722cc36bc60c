package models

import (
	"time"
)

// ProductCategory adalah kategori material bangunan (Semen, Besi, Pasir, dst).
// BaseUnit adalah satuan dasar kategori yang dipakai oleh unit converter.
type ProductCategory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	BaseUnit  string    `gorm:"type:varchar(20);not null" json:"base_unit"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
