package models

import (
	"time"
)

// WebhookEvent adalah ledger idempotensi untuk notifikasi webhook Midtrans.
// Satu baris per (order, edge transisi); unique index menjamin side effect
// (notifikasi customer/staff) hanya dikirim sekali walau webhook dikirim ulang.
type WebhookEvent struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	OrderRef          string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_webhook_order_edge" json:"order_ref"`
	Edge              string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_webhook_order_edge" json:"edge"` // paid, failed, expired, cancelled
	TransactionStatus string    `gorm:"type:varchar(30);not null" json:"transaction_status"`
	PaymentType       string    `gorm:"type:varchar(30)" json:"payment_type"`
	CreatedAt         time.Time `gorm:"not null" json:"created_at"`
}
