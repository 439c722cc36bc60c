package models

import (
	"time"
)

type ProductReturn struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	OrderID    uint       `gorm:"not null;index" json:"order_id"`
	Order      Order      `gorm:"foreignKey:OrderID;references:ID" json:"order"`
	UserID     uint       `gorm:"not null" json:"user_id"`
	Reason     string     `gorm:"type:text;not null" json:"reason"`
	PhotoURL   string     `gorm:"type:varchar(255)" json:"photo_url"`
	Status     string     `gorm:"type:varchar(20);not null;default:'requested'" json:"status"` // requested, approved, rejected
	ReviewedBy *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}
