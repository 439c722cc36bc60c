package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

// Status pembayaran
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusExpired   = "expired"
	PaymentStatusCancelled = "cancelled"
)

// Status order
const (
	OrderStatusAwaitingPayment = "awaiting_payment"
	OrderStatusProcessing      = "processing"
	OrderStatusShipped         = "shipped"
	OrderStatusDelivered       = "delivered"
	OrderStatusCompleted       = "completed"
	OrderStatusCancelled       = "cancelled"
	OrderStatusReturned        = "returned"
)

var (
	// ErrInvalidSignature -> signature webhook tidak cocok, notifikasi ditolak
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrOrderNotFound -> order_id di notifikasi tidak dikenal
	ErrOrderNotFound = errors.New("order not found")
)

// WebhookNotification adalah payload notifikasi HTTP dari Midtrans. Event
// sekali pakai: divalidasi, diterapkan, lalu dibuang (tidak dipersist utuh).
type WebhookNotification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	PaymentType       string `json:"payment_type"`
	TransactionID     string `json:"transaction_id"`
}

// ReconcileResult adalah status akhir order setelah notifikasi diterapkan.
type ReconcileResult struct {
	OrderRef      string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	OrderStatus   string `json:"order_status"`
	PaidNow       bool   `json:"-"` // true hanya saat edge pending -> paid terjadi di panggilan ini
}

// MapTransactionStatus memetakan transaction_status (+fraud_status untuk
// capture) Midtrans ke pasangan (paymentStatus, orderStatus) internal.
// orderStatus "" berarti status order tidak diubah. Status yang tidak
// dikenal di-default ke pending, bukan ditebak.
func MapTransactionStatus(transactionStatus, fraudStatus string) (string, string) {
	switch transactionStatus {
	case "capture":
		switch fraudStatus {
		case "accept":
			return PaymentStatusPaid, OrderStatusProcessing
		case "challenge":
			// menunggu review manual di dashboard Midtrans
			return PaymentStatusPending, ""
		default:
			return PaymentStatusFailed, OrderStatusCancelled
		}
	case "settlement":
		return PaymentStatusPaid, OrderStatusProcessing
	case "pending":
		return PaymentStatusPending, ""
	case "deny":
		return PaymentStatusFailed, OrderStatusCancelled
	case "cancel", "expire":
		return PaymentStatusCancelled, OrderStatusCancelled
	case "refund", "partial_refund":
		return PaymentStatusCancelled, OrderStatusCancelled
	default:
		return PaymentStatusPending, ""
	}
}

// PaymentService adalah satu-satunya pihak yang boleh mentransisikan
// payment_status/order_status dari event gateway. Semua transisi hanya keluar
// dari pending (paid/failed/expired/cancelled terminal), dan persist memakai
// conditional update satu baris supaya delivery ganda atau paralel dari
// Midtrans commute (apply-twice == apply-once).
type PaymentService struct {
	db       *gorm.DB
	midtrans *MidtransService
	notifier *NotificationService
}

// NewPaymentService membuat instance baru PaymentService
func NewPaymentService(db *gorm.DB, midtrans *MidtransService) *PaymentService {
	return &PaymentService{
		db:       db,
		midtrans: midtrans,
		notifier: NewNotificationService(db),
	}
}

// Reconcile memproses satu notifikasi webhook: cek keaslian, cari order,
// terapkan tabel transisi, lalu kirim side effect (notifikasi) untuk edge
// pending -> paid saja. Aman dipanggil dua kali dengan payload identik.
func (s *PaymentService) Reconcile(n WebhookNotification) (*ReconcileResult, error) {
	if !s.midtrans.ValidateSignature(n.OrderID, n.StatusCode, n.GrossAmount, n.SignatureKey) {
		// satu-satunya pertahanan terhadap notifikasi palsu, catat selalu
		utils.ErrorLogger.Printf("Webhook signature mismatch for order %s (status=%s)", n.OrderID, n.TransactionStatus)
		return nil, ErrInvalidSignature
	}

	var order models.Order
	if err := s.db.Where("order_id = ?", n.OrderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order %s: %w", n.OrderID, err)
	}

	return s.applyTransition(n)
}

// ApplyGatewayStatus menerapkan hasil polling Core API ke tabel transisi yang
// sama dengan webhook. Tidak ada signature yang perlu dicek karena status
// diambil langsung dari Midtrans, bukan dikirim pihak luar.
func (s *PaymentService) ApplyGatewayStatus(orderRef, transactionStatus, fraudStatus, paymentType, transactionID string) (*ReconcileResult, error) {
	return s.applyTransition(WebhookNotification{
		OrderID:           orderRef,
		TransactionStatus: transactionStatus,
		FraudStatus:       fraudStatus,
		PaymentType:       paymentType,
		TransactionID:     transactionID,
	})
}

// applyTransition menerapkan tabel transisi dan mem-persist hasilnya secara
// idempoten. Dipakai Reconcile (webhook) dan payment monitor (polling status).
func (s *PaymentService) applyTransition(n WebhookNotification) (*ReconcileResult, error) {
	newPayment, newOrder := MapTransactionStatus(n.TransactionStatus, n.FraudStatus)

	paidNow := false
	switch newPayment {
	case PaymentStatusPaid:
		now := time.Now()
		updates := map[string]interface{}{
			"payment_status": PaymentStatusPaid,
			"order_status":   OrderStatusProcessing,
			"paid_at":        now,
			"updated_at":     now,
		}
		if n.PaymentType != "" {
			updates["payment_type"] = n.PaymentType
		}
		if n.TransactionID != "" {
			updates["transaction_id"] = n.TransactionID
		}
		// paid_at IS NULL menjamin timestamp hanya distempel sekali; replay
		// settlement jadi no-op di level SQL.
		res := s.db.Model(&models.Order{}).
			Where("order_id = ? AND payment_status = ? AND paid_at IS NULL", n.OrderID, PaymentStatusPending).
			Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to mark order %s paid: %w", n.OrderID, res.Error)
		}
		paidNow = res.RowsAffected == 1

	case PaymentStatusPending:
		// pending / capture+challenge / status tak dikenal: jangan paksa
		// transisi, cukup simpan payment_type & transaction_id terbaru.
		if n.PaymentType != "" || n.TransactionID != "" {
			updates := map[string]interface{}{"updated_at": time.Now()}
			if n.PaymentType != "" {
				updates["payment_type"] = n.PaymentType
			}
			if n.TransactionID != "" {
				updates["transaction_id"] = n.TransactionID
			}
			res := s.db.Model(&models.Order{}).
				Where("order_id = ? AND payment_status = ?", n.OrderID, PaymentStatusPending).
				Updates(updates)
			if res.Error != nil {
				return nil, fmt.Errorf("failed to update pending order %s: %w", n.OrderID, res.Error)
			}
		}

	default: // failed / cancelled / expired
		now := time.Now()
		updates := map[string]interface{}{
			"payment_status": newPayment,
			"updated_at":     now,
		}
		if newOrder != "" {
			updates["order_status"] = newOrder
		}
		if n.TransactionStatus == "refund" || n.TransactionStatus == "partial_refund" {
			updates["cancel_reason"] = fmt.Sprintf("refund dari gateway (%s)", n.TransactionStatus)
			updates["cancelled_at"] = now
		}
		// order yang sudah terbayar/terminal tidak boleh diturunkan oleh
		// notifikasi yang datang terlambat atau out-of-order
		res := s.db.Model(&models.Order{}).
			Where("order_id = ? AND payment_status = ?", n.OrderID, PaymentStatusPending).
			Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update order %s to %s: %w", n.OrderID, newPayment, res.Error)
		}
		if res.RowsAffected == 1 {
			// order batal sebelum dibayar, stok snapshot dikembalikan
			s.restockOrder(n.OrderID)
		}
	}

	// Baca ulang resting state untuk respons
	var order models.Order
	if err := s.db.Where("order_id = ?", n.OrderID).First(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order %s: %w", n.OrderID, err)
	}

	if paidNow {
		s.dispatchPaidSideEffects(&order, n)
	}

	return &ReconcileResult{
		OrderRef:      order.OrderID,
		PaymentStatus: order.PaymentStatus,
		OrderStatus:   order.OrderStatus,
		PaidNow:       paidNow,
	}, nil
}

// dispatchPaidSideEffects mengirim notifikasi customer + staff satu kali per
// order. Ledger webhook_events (unique order+edge) dicek sebelum dispatch
// supaya redelivery webhook tidak menghasilkan notifikasi dobel. Kegagalan di
// sini hanya dicatat; transisi status sudah final dan gateway tetap dapat 200.
func (s *PaymentService) dispatchPaidSideEffects(order *models.Order, n WebhookNotification) {
	var count int64
	if err := s.db.Model(&models.WebhookEvent{}).
		Where("order_ref = ? AND edge = ?", order.OrderID, PaymentStatusPaid).
		Count(&count).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to check webhook ledger for order %s: %v", order.OrderID, err)
		return
	}
	if count > 0 {
		utils.InfoLogger.Printf("Paid notifications for order %s already dispatched, skipping", order.OrderID)
		return
	}

	event := models.WebhookEvent{
		OrderRef:          order.OrderID,
		Edge:              PaymentStatusPaid,
		TransactionStatus: n.TransactionStatus,
		PaymentType:       n.PaymentType,
	}
	if err := s.db.Create(&event).Error; err != nil {
		// unique index menahan race antar delivery; jangan kirim dobel
		utils.ErrorLogger.Printf("Failed to record webhook event for order %s: %v", order.OrderID, err)
		return
	}

	s.notifier.NotifyOrderPaid(order)
}

// restockOrder mengembalikan stok dari snapshot order item, dikonversi balik
// ke satuan jual asli produk. Dipanggil setelah transisi ke terminal batal
// berhasil, jadi maksimal sekali per order.
func (s *PaymentService) restockOrder(orderRef string) {
	var order models.Order
	if err := s.db.Preload("Items").Where("order_id = ?", orderRef).First(&order).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to load order %s for restock: %v", orderRef, err)
		return
	}

	for _, item := range order.Items {
		qtyInProductUnit := item.Quantity
		if !strings.EqualFold(item.Unit, item.ProductUnit) {
			if converted, err := Convert(item.Category, item.Quantity, item.Unit, item.ProductUnit); err == nil {
				qtyInProductUnit = converted
			}
		}
		if err := s.db.Model(&models.Product{}).Where("id = ?", item.ProductID).
			Update("stock", gorm.Expr("stock + ?", qtyInProductUnit)).Error; err != nil {
			utils.ErrorLogger.Printf("Failed to restock product %d for order %s: %v", item.ProductID, orderRef, err)
		}
	}
}

// ExpirePendingOrders menandai order pending yang sudah melewati jendela
// pembayaran sebagai expired + cancelled, lalu mengembalikan stoknya.
// Dipanggil periodik oleh monitor; update per order tetap conditional supaya
// tidak balapan dengan webhook yang datang di detik terakhir.
func (s *PaymentService) ExpirePendingOrders(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)

	var stale []models.Order
	if err := s.db.Where("payment_status = ? AND created_at < ?", PaymentStatusPending, cutoff).
		Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("failed to load stale pending orders: %w", err)
	}

	var expired int64
	for _, order := range stale {
		now := time.Now()
		res := s.db.Model(&models.Order{}).
			Where("order_id = ? AND payment_status = ?", order.OrderID, PaymentStatusPending).
			Updates(map[string]interface{}{
				"payment_status": PaymentStatusExpired,
				"order_status":   OrderStatusCancelled,
				"cancel_reason":  "pembayaran melewati batas waktu",
				"cancelled_at":   now,
				"updated_at":     now,
			})
		if res.Error != nil {
			utils.ErrorLogger.Printf("Failed to expire order %s: %v", order.OrderID, res.Error)
			continue
		}
		if res.RowsAffected == 1 {
			s.restockOrder(order.OrderID)
			expired++
		}
	}
	return expired, nil
}
