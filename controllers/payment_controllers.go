package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/services"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

type PaymentController struct {
	DB       *gorm.DB
	Payments *services.PaymentService
	Midtrans *services.MidtransService
}

func NewPaymentController(db *gorm.DB, payments *services.PaymentService, midtrans *services.MidtransService) *PaymentController {
	return &PaymentController{
		DB:       db,
		Payments: payments,
		Midtrans: midtrans,
	}
}

// HandleMidtransWebhook adalah SATU-SATUNYA endpoint notifikasi Midtrans.
// Endpoint ini public (tanpa JWT) karena dipanggil server Midtrans; autentikasi
// memakai signature_key sha512 di body. Midtrans melakukan retry kalau tidak
// menerima 2xx, jadi jawaban harus idempotent: notifikasi yang sama dikirim
// dua kali tetap dijawab 200 tanpa efek samping ganda.
func (pc *PaymentController) HandleMidtransWebhook(c *gin.Context) {
	var notification services.WebhookNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		utils.ErrorLogger.Printf("Invalid webhook payload: %v", err)
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid notification payload"))
		return
	}

	result, err := pc.Payments.Reconcile(notification)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSignature):
			utils.ErrorLogger.Printf("Webhook signature mismatch for order %s", notification.OrderID)
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid signature"))
		case errors.Is(err, services.ErrOrderNotFound):
			utils.ErrorLogger.Printf("Webhook for unknown order %s", notification.OrderID)
			utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		default:
			utils.ErrorLogger.Printf("Failed to reconcile webhook for order %s: %v", notification.OrderID, err)
			utils.RespondError(c, http.StatusInternalServerError, errors.New("failed to process notification"))
		}
		return
	}

	utils.InfoLogger.Printf("Webhook processed: order=%s payment_status=%s order_status=%s paid_now=%t",
		result.OrderRef, result.PaymentStatus, result.OrderStatus, result.PaidNow)

	utils.RespondJSON(c, http.StatusOK, "Notification processed", gin.H{
		"order_id":       result.OrderRef,
		"payment_status": result.PaymentStatus,
		"order_status":   result.OrderStatus,
	})
}

// CheckPaymentStatus menanyakan status transaksi langsung ke Core API lalu
// menjalankan transisi yang sama dengan webhook. Dipakai frontend sebagai
// fallback kalau notifikasi Midtrans terlambat sampai.
func (pc *PaymentController) CheckPaymentStatus(c *gin.Context) {
	ref := c.Param("order_id")

	var order models.Order
	if err := pc.DB.Where("order_id = ?", ref).First(&order).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}

	role := c.GetString("role")
	if role == "customer" && order.UserID != c.GetUint("user_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("not your order"))
		return
	}

	status, err := pc.Midtrans.CheckTransactionStatus(ref)
	if err != nil {
		utils.ErrorLogger.Printf("Failed to check transaction status for order %s: %v", ref, err)
		utils.RespondError(c, http.StatusBadGateway, errors.New("failed to reach payment gateway"))
		return
	}

	result, err := pc.Payments.ApplyGatewayStatus(ref, status.TransactionStatus, status.FraudStatus, status.PaymentType, status.TransactionID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Payment status", gin.H{
		"order_id":           result.OrderRef,
		"payment_status":     result.PaymentStatus,
		"order_status":       result.OrderStatus,
		"transaction_status": status.TransactionStatus,
	})
}

// GetMidtransClientConfig memberikan client key + mode untuk inisialisasi
// Snap.js di frontend. Server key tidak pernah keluar dari sini.
func (pc *PaymentController) GetMidtransClientConfig(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Midtrans client config", gin.H{
		"client_key":    pc.Midtrans.ClientKey(),
		"is_production": pc.Midtrans.IsProduction(),
	})
}
