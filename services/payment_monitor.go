package services

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

// PaymentMonitor menyisir order pending secara periodik: status dicek ulang
// ke Midtrans (webhook bisa hilang/telat) lalu direkonsiliasi lewat tabel
// transisi yang sama dengan webhook handler, dan order yang melewati jendela
// pembayaran ditandai expired.
type PaymentMonitor struct {
	db       *gorm.DB
	payments *PaymentService
	midtrans *MidtransService

	Interval      time.Duration
	PendingMaxAge time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewPaymentMonitor membuat instance baru PaymentMonitor
func NewPaymentMonitor(db *gorm.DB, payments *PaymentService, midtrans *MidtransService) *PaymentMonitor {
	return &PaymentMonitor{
		db:            db,
		payments:      payments,
		midtrans:      midtrans,
		Interval:      5 * time.Minute,
		PendingMaxAge: 24 * time.Hour,
		stop:          make(chan struct{}),
	}
}

// Start memulai goroutine monitoring
func (pm *PaymentMonitor) Start() {
	go pm.run()
	utils.InfoLogger.Println("Payment monitor started")
}

// Stop menghentikan monitoring
func (pm *PaymentMonitor) Stop() {
	pm.stopOnce.Do(func() {
		close(pm.stop)
	})
}

func (pm *PaymentMonitor) run() {
	ticker := time.NewTicker(pm.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pm.checkPendingOrders()
		case <-pm.stop:
			return
		}
	}
}

// checkPendingOrders merekonsiliasi order pending dengan status di gateway,
// lalu meng-expire yang sudah melewati batas waktu pembayaran.
func (pm *PaymentMonitor) checkPendingOrders() {
	var orders []models.Order
	err := pm.db.Where("payment_status = ? AND snap_token <> ''", PaymentStatusPending).
		Limit(100).Find(&orders).Error
	if err != nil {
		utils.ErrorLogger.Printf("Payment monitor failed to load pending orders: %v", err)
		return
	}

	for _, order := range orders {
		resp, err := pm.midtrans.CheckTransactionStatus(order.OrderID)
		if err != nil {
			// 404 dari Midtrans berarti customer belum membuka Snap, biarkan
			utils.InfoLogger.Printf("Status check skipped for order %s: %v", order.OrderID, err)
			continue
		}

		if resp.TransactionStatus == "pending" || resp.TransactionStatus == "" {
			continue
		}

		result, err := pm.payments.applyTransition(WebhookNotification{
			OrderID:           resp.OrderID,
			TransactionStatus: resp.TransactionStatus,
			FraudStatus:       resp.FraudStatus,
			PaymentType:       resp.PaymentType,
			TransactionID:     resp.TransactionID,
		})
		if err != nil {
			utils.ErrorLogger.Printf("Payment monitor failed to reconcile order %s: %v", order.OrderID, err)
			continue
		}
		if result.PaymentStatus != PaymentStatusPending {
			utils.InfoLogger.Printf("Payment monitor reconciled order %s to %s/%s",
				result.OrderRef, result.PaymentStatus, result.OrderStatus)
		}
	}

	expired, err := pm.payments.ExpirePendingOrders(pm.PendingMaxAge)
	if err != nil {
		utils.ErrorLogger.Printf("Payment monitor expire pass failed: %v", err)
		return
	}
	if expired > 0 {
		utils.InfoLogger.Printf("Payment monitor expired %d stale pending orders", expired)
	}
}
