package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/realtime"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

// Tipe notifikasi
const (
	NotifTypeOrderConfirmed = "order_confirmed"
	NotifTypeNewPaidOrder   = "new_paid_order"
	NotifTypeShippingUpdate = "shipping_update"
	NotifTypeReturnUpdate   = "return_update"
)

// NotificationService menangani pembuatan notifikasi customer/staff dan
// broadcast ke dashboard hub. Semua operasi di sini best-effort: kegagalan
// dicatat di log dan tidak boleh menggagalkan transisi status order.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService membuat instance baru NotificationService
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotifyOrderPaid mengirim notifikasi satu kali untuk edge pending -> paid:
// satu untuk customer (order_confirmed) dan satu per akun staff/admin
// (new_paid_order).
func (ns *NotificationService) NotifyOrderPaid(order *models.Order) {
	userID := order.UserID
	customerNotif := models.Notification{
		UserID:   &userID,
		Title:    "Pembayaran diterima",
		Message:  fmt.Sprintf("Pembayaran order %s sebesar %s sudah kami terima. Pesanan sedang diproses.", order.OrderID, utils.FormatCurrencyIDR(order.Total)),
		Type:     NotifTypeOrderConfirmed,
		OrderRef: order.OrderID,
	}
	if err := ns.db.Create(&customerNotif).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to create customer notification for order %s: %v", order.OrderID, err)
	}

	// Fan-out ke semua akun staff dan admin
	var staff []models.User
	if err := ns.db.Where("role IN ?", []string{"staff", "admin"}).Find(&staff).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to load staff accounts for order %s: %v", order.OrderID, err)
	} else {
		for _, s := range staff {
			staffID := s.ID
			notif := models.Notification{
				UserID:   &staffID,
				Title:    "Order baru dibayar",
				Message:  fmt.Sprintf("Order %s (%s) sudah dibayar dan menunggu diproses.", order.OrderID, utils.FormatCurrencyIDR(order.Total)),
				Type:     NotifTypeNewPaidOrder,
				OrderRef: order.OrderID,
			}
			if err := ns.db.Create(&notif).Error; err != nil {
				utils.ErrorLogger.Printf("Failed to create staff notification for order %s: %v", order.OrderID, err)
			}
		}
	}

	realtime.BroadcastToRoles(realtime.EventPaymentSuccess, map[string]interface{}{
		"order_id":       order.OrderID,
		"payment_status": order.PaymentStatus,
		"order_status":   order.OrderStatus,
		"total":          order.Total,
	}, []string{"staff", "admin"})
}

// NotifyShippingUpdate memberi tahu customer saat order dikirim/diterima.
func (ns *NotificationService) NotifyShippingUpdate(order *models.Order, message string) {
	userID := order.UserID
	notif := models.Notification{
		UserID:   &userID,
		Title:    "Update pengiriman",
		Message:  message,
		Type:     NotifTypeShippingUpdate,
		OrderRef: order.OrderID,
	}
	if err := ns.db.Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to create shipping notification for order %s: %v", order.OrderID, err)
	}

	realtime.Broadcast(realtime.EventShippingUpdate, map[string]interface{}{
		"order_id":     order.OrderID,
		"order_status": order.OrderStatus,
	})
}

// NotifyReturnUpdate memberi tahu customer hasil review retur.
func (ns *NotificationService) NotifyReturnUpdate(ret *models.ProductReturn, orderRef, message string) {
	userID := ret.UserID
	notif := models.Notification{
		UserID:   &userID,
		Title:    "Update retur",
		Message:  message,
		Type:     NotifTypeReturnUpdate,
		OrderRef: orderRef,
	}
	if err := ns.db.Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to create return notification for order %s: %v", orderRef, err)
	}

	realtime.BroadcastToRoles(realtime.EventReturnUpdate, map[string]interface{}{
		"order_id": orderRef,
		"status":   ret.Status,
	}, []string{"staff", "admin"})
}
