package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

func TestMapTransactionStatus(t *testing.T) {
	tests := []struct {
		name              string
		transactionStatus string
		fraudStatus       string
		wantPayment       string
		wantOrder         string
	}{
		{"capture accept", "capture", "accept", PaymentStatusPaid, OrderStatusProcessing},
		{"capture challenge tetap pending", "capture", "challenge", PaymentStatusPending, ""},
		{"capture deny", "capture", "deny", PaymentStatusFailed, OrderStatusCancelled},
		{"settlement", "settlement", "", PaymentStatusPaid, OrderStatusProcessing},
		{"pending", "pending", "", PaymentStatusPending, ""},
		{"deny", "deny", "", PaymentStatusFailed, OrderStatusCancelled},
		{"cancel", "cancel", "", PaymentStatusCancelled, OrderStatusCancelled},
		{"expire", "expire", "", PaymentStatusCancelled, OrderStatusCancelled},
		{"refund", "refund", "", PaymentStatusCancelled, OrderStatusCancelled},
		{"partial refund", "partial_refund", "", PaymentStatusCancelled, OrderStatusCancelled},
		{"status tak dikenal", "authorize", "", PaymentStatusPending, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment, order := MapTransactionStatus(tt.transactionStatus, tt.fraudStatus)
			assert.Equal(t, tt.wantPayment, payment)
			assert.Equal(t, tt.wantOrder, order)
		})
	}
}

func setupPaymentTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.ProductCategory{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
		&models.WebhookEvent{},
	)
	assert.NoError(t, err)

	db.Create(&models.User{Name: "Budi", Email: "budi@example.com", Password: "x", Role: "customer"})
	db.Create(&models.User{Name: "Staff", Email: "staff@example.com", Password: "x", Role: "staff"})

	category := models.ProductCategory{Name: "semen", BaseUnit: "kg"}
	db.Create(&category)
	db.Create(&models.Product{CategoryID: category.ID, Name: "Semen Abu", Unit: "sak", Price: 65000, Stock: 48, IsActive: true})

	return db
}

func seedPendingOrder(db *gorm.DB, ref string, total float64) models.Order {
	order := models.Order{
		OrderID:       ref,
		UserID:        1,
		Subtotal:      total,
		Total:         total,
		PaymentStatus: PaymentStatusPending,
		OrderStatus:   OrderStatusAwaitingPayment,
		SnapToken:     "snap-token",
		Items: []models.OrderItem{{
			ProductID:   1,
			ProductName: "Semen Abu",
			Category:    "semen",
			Unit:        "sak",
			ProductUnit: "sak",
			Quantity:    2,
			Price:       65000,
			Subtotal:    130000,
			WeightGrams: 100000,
		}},
	}
	db.Create(&order)
	return order
}

func settlementNotification(ref string, serverKey string) WebhookNotification {
	return WebhookNotification{
		OrderID:           ref,
		TransactionStatus: "settlement",
		StatusCode:        "200",
		GrossAmount:       "130000.00",
		SignatureKey:      signFor(ref, "200", "130000.00", serverKey),
		PaymentType:       "bank_transfer",
		TransactionID:     "trx-123",
	}
}

func TestReconcileSettlementMarksPaidOnce(t *testing.T) {
	db := setupPaymentTestDB(t)
	svc := NewPaymentService(db, testMidtransService())
	seedPendingOrder(db, "ORD-20250101-AAAA1111", 130000)

	n := settlementNotification("ORD-20250101-AAAA1111", "test-server-key")

	result, err := svc.Reconcile(n)
	assert.NoError(t, err)
	assert.True(t, result.PaidNow)
	assert.Equal(t, PaymentStatusPaid, result.PaymentStatus)
	assert.Equal(t, OrderStatusProcessing, result.OrderStatus)

	var order models.Order
	db.Where("order_id = ?", n.OrderID).First(&order)
	assert.NotNil(t, order.PaidAt)
	assert.Equal(t, "bank_transfer", order.PaymentType)
	assert.Equal(t, "trx-123", order.TransactionID)
	firstPaidAt := *order.PaidAt

	// notifikasi customer + 1 staff
	var notifCount int64
	db.Model(&models.Notification{}).Count(&notifCount)
	assert.Equal(t, int64(2), notifCount)

	// Midtrans mengirim ulang notifikasi yang sama
	replay, err := svc.Reconcile(n)
	assert.NoError(t, err)
	assert.False(t, replay.PaidNow)
	assert.Equal(t, PaymentStatusPaid, replay.PaymentStatus)

	db.Where("order_id = ?", n.OrderID).First(&order)
	assert.True(t, firstPaidAt.Equal(*order.PaidAt), "paid_at tidak boleh berubah saat replay")

	db.Model(&models.Notification{}).Count(&notifCount)
	assert.Equal(t, int64(2), notifCount, "replay tidak boleh mengirim notifikasi dobel")

	var ledgerCount int64
	db.Model(&models.WebhookEvent{}).Where("order_ref = ?", n.OrderID).Count(&ledgerCount)
	assert.Equal(t, int64(1), ledgerCount)
}

func TestReconcileRejectsBadSignature(t *testing.T) {
	db := setupPaymentTestDB(t)
	svc := NewPaymentService(db, testMidtransService())
	seedPendingOrder(db, "ORD-20250101-BBBB2222", 130000)

	n := settlementNotification("ORD-20250101-BBBB2222", "attacker-key")
	_, err := svc.Reconcile(n)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// status order tidak boleh tersentuh
	var order models.Order
	db.Where("order_id = ?", n.OrderID).First(&order)
	assert.Equal(t, PaymentStatusPending, order.PaymentStatus)
	assert.Nil(t, order.PaidAt)
}

func TestReconcileUnknownOrder(t *testing.T) {
	db := setupPaymentTestDB(t)
	svc := NewPaymentService(db, testMidtransService())

	n := settlementNotification("ORD-TIDAK-ADA", "test-server-key")
	_, err := svc.Reconcile(n)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestReconcileLateCancelDoesNotDowngradePaid(t *testing.T) {
	db := setupPaymentTestDB(t)
	svc := NewPaymentService(db, testMidtransService())
	seedPendingOrder(db, "ORD-20250101-CCCC3333", 130000)

	ref := "ORD-20250101-CCCC3333"
	_, err := svc.Reconcile(settlementNotification(ref, "test-server-key"))
	assert.NoError(t, err)

	// notifikasi expire yang datang out-of-order setelah settlement
	late := WebhookNotification{
		OrderID:           ref,
		TransactionStatus: "expire",
		StatusCode:        "407",
		GrossAmount:       "130000.00",
		SignatureKey:      signFor(ref, "407", "130000.00", "test-server-key"),
	}
	result, err := svc.Reconcile(late)
	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, result.PaymentStatus)
	assert.Equal(t, OrderStatusProcessing, result.OrderStatus)
}

func TestReconcileCapture(t *testing.T) {
	db := setupPaymentTestDB(t)
	svc := NewPaymentService(db, testMidtransService())
	seedPendingOrder(db, "ORD-20250101-DDDD4444", 130000)

	ref := "ORD-20250101-DDDD4444"
	base := WebhookNotification{
		OrderID:           ref,
		TransactionStatus: "capture",
		FraudStatus:       "challenge",
		StatusCode:        "201",
		GrossAmount:       "130000.00",
		SignatureKey:      signFor(ref, "201", "130000.00", "test-server-key"),
		PaymentType:       "credit_card",
	}

	// challenge: tetap pending, payment_type tersimpan
	result, err := svc.Reconcile(base)
	assert.NoError(t, err)
	assert.False(t, result.PaidNow)
	assert.Equal(t, PaymentStatusPending, result.PaymentStatus)
	assert.Equal(t, OrderStatusAwaitingPayment, result.OrderStatus)

	var order models.Order
	db.Where("order_id = ?", ref).First(&order)
	assert.Equal(t, "credit_card", order.PaymentType)

	// review selesai, fraud_status berubah jadi accept
	base.FraudStatus = "accept"
	base.StatusCode = "200"
	base.SignatureKey = signFor(ref, "200", "130000.00", "test-server-key")
	result, err = svc.Reconcile(base)
	assert.NoError(t, err)
	assert.True(t, result.PaidNow)
	assert.Equal(t, PaymentStatusPaid, result.PaymentStatus)
}

func TestReconcileExpireRestocks(t *testing.T) {
	db := setupPaymentTestDB(t)
	svc := NewPaymentService(db, testMidtransService())
	seedPendingOrder(db, "ORD-20250101-EEEE5555", 130000)

	// stok sudah dipotong 2 sak saat checkout
	db.Model(&models.Product{}).Where("id = ?", 1).Update("stock", 46)

	ref := "ORD-20250101-EEEE5555"
	expire := WebhookNotification{
		OrderID:           ref,
		TransactionStatus: "expire",
		StatusCode:        "407",
		GrossAmount:       "130000.00",
		SignatureKey:      signFor(ref, "407", "130000.00", "test-server-key"),
	}
	result, err := svc.Reconcile(expire)
	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusCancelled, result.PaymentStatus)
	assert.Equal(t, OrderStatusCancelled, result.OrderStatus)

	var product models.Product
	db.First(&product, 1)
	assert.InDelta(t, 48, product.Stock, 1e-9)

	// replay expire tidak menambah stok lagi
	_, err = svc.Reconcile(expire)
	assert.NoError(t, err)
	db.First(&product, 1)
	assert.InDelta(t, 48, product.Stock, 1e-9)
}

func TestExpirePendingOrders(t *testing.T) {
	db := setupPaymentTestDB(t)
	svc := NewPaymentService(db, testMidtransService())

	stale := seedPendingOrder(db, "ORD-20250101-FFFF6666", 130000)
	db.Model(&models.Order{}).Where("id = ?", stale.ID).
		Update("created_at", time.Now().Add(-48*time.Hour))

	fresh := seedPendingOrder(db, "ORD-20250101-GGGG7777", 130000)

	expired, err := svc.ExpirePendingOrders(24 * time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	var order models.Order
	db.First(&order, stale.ID)
	assert.Equal(t, PaymentStatusExpired, order.PaymentStatus)
	assert.Equal(t, OrderStatusCancelled, order.OrderStatus)

	order = models.Order{}
	db.First(&order, fresh.ID)
	assert.Equal(t, PaymentStatusPending, order.PaymentStatus)
}
