package models

import (
	"time"
)

type Order struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	OrderID string `gorm:"type:varchar(40);uniqueIndex;not null" json:"order_id"` // id publik (ORD-...), dipakai Midtrans
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID;references:ID" json:"user"`

	Items        []OrderItem `gorm:"foreignKey:OrderID;references:ID" json:"items"`
	Subtotal     float64     `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ShippingCost float64     `gorm:"type:decimal(12,2);not null;default:0" json:"shipping_cost"`
	Total        float64     `gorm:"type:decimal(12,2);not null" json:"total"`

	PaymentStatus string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	OrderStatus   string     `gorm:"type:varchar(20);not null;default:'awaiting_payment';index" json:"order_status"`
	PaymentType   string     `gorm:"type:varchar(30)" json:"payment_type"`
	PaidAt        *time.Time `json:"paid_at,omitempty"` // diisi sekali saat pending -> paid, tidak pernah dihapus
	SnapToken     string     `gorm:"type:varchar(100)" json:"snap_token"`
	TransactionID string     `gorm:"type:varchar(100)" json:"transaction_id"`

	// Pengiriman
	ShippingAddress string     `gorm:"type:text" json:"shipping_address"`
	DestinationCity string     `gorm:"type:varchar(10)" json:"destination_city"`
	Courier         string     `gorm:"type:varchar(20)" json:"courier"`
	CourierService  string     `gorm:"type:varchar(30)" json:"courier_service"`
	TrackingNumber  string     `gorm:"type:varchar(50)" json:"tracking_number"`
	ShippedAt       *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`

	CancelReason string     `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// IsPaid -> true kalau order sudah pernah dibayar (paid_at terisi)
func (o *Order) IsPaid() bool {
	return o.PaidAt != nil && !o.PaidAt.IsZero()
}
