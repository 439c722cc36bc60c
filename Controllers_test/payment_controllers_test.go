package Controllers_test

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/controllers"
	"github.com/egyw/proyek-fpw-sub002/middlewares"
	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/services"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

const testServerKey = "SB-Mid-server-test-key"

func webhookSignature(orderID, statusCode, grossAmount string) string {
	hash := sha512.New()
	hash.Write([]byte(orderID + statusCode + grossAmount + testServerKey))
	return hex.EncodeToString(hash.Sum(nil))
}

func setupTestDBForWebhook() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.ProductCategory{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
		&models.WebhookEvent{},
	)
	if err != nil {
		panic(err)
	}

	db.Create(&models.User{Name: "Budi", Email: "budi@example.com", Password: "x", Role: "customer"})
	db.Create(&models.User{Name: "Admin", Email: "admin@example.com", Password: "x", Role: "admin"})

	category := models.ProductCategory{Name: "semen", BaseUnit: "kg"}
	db.Create(&category)
	db.Create(&models.Product{CategoryID: category.ID, Name: "Semen Abu", Unit: "sak", Price: 65000, Stock: 8, IsActive: true})

	// order pending hasil checkout 2 sak (stok sudah dipotong dari 10 ke 8)
	db.Create(&models.Order{
		OrderID:       "ORD-20250101-AAAA1111",
		UserID:        1,
		Subtotal:      130000,
		Total:         130000,
		PaymentStatus: services.PaymentStatusPending,
		OrderStatus:   services.OrderStatusAwaitingPayment,
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
	})

	return db
}

func setupWebhookRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	midtransSvc := services.NewMidtransService(&services.MidtransConfig{
		ServerKey: testServerKey,
		ClientKey: "SB-Mid-client-test-key",
	})
	paymentSvc := services.NewPaymentService(db, midtransSvc)
	paymentCtrl := controllers.NewPaymentController(db, paymentSvc, midtransSvc)

	webhook := router.Group("/payments")
	webhook.Use(middlewares.WebhookLogger())
	webhook.POST("/webhook", paymentCtrl.HandleMidtransWebhook)

	router.GET("/payments/config", paymentCtrl.GetMidtransClientConfig)
	return router
}

func postWebhook(router *gin.Engine, payload map[string]interface{}) *httptest.ResponseRecorder {
	payloadBytes, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func settlementPayload(orderID string) map[string]interface{} {
	return map[string]interface{}{
		"order_id":           orderID,
		"transaction_status": "settlement",
		"status_code":        "200",
		"gross_amount":       "130000.00",
		"signature_key":      webhookSignature(orderID, "200", "130000.00"),
		"payment_type":       "gopay",
		"transaction_id":     "trx-abc-123",
	}
}

func TestWebhookSettlementFlow(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForWebhook()
	router := setupWebhookRouter(db)

	w := postWebhook(router, settlementPayload("ORD-20250101-AAAA1111"))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, services.PaymentStatusPaid, data["payment_status"])
	assert.Equal(t, services.OrderStatusProcessing, data["order_status"])

	var order models.Order
	db.Where("order_id = ?", "ORD-20250101-AAAA1111").First(&order)
	assert.NotNil(t, order.PaidAt)
	assert.Equal(t, "gopay", order.PaymentType)
	assert.Equal(t, "trx-abc-123", order.TransactionID)
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForWebhook()
	router := setupWebhookRouter(db)

	payload := settlementPayload("ORD-20250101-AAAA1111")

	w := postWebhook(router, payload)
	assert.Equal(t, http.StatusOK, w.Code)

	var order models.Order
	db.Where("order_id = ?", "ORD-20250101-AAAA1111").First(&order)
	firstPaidAt := *order.PaidAt

	var notifBefore int64
	db.Model(&models.Notification{}).Count(&notifBefore)

	// Midtrans retry: payload identik dikirim ulang, tetap dijawab 200
	w = postWebhook(router, payload)
	assert.Equal(t, http.StatusOK, w.Code)

	db.Where("order_id = ?", "ORD-20250101-AAAA1111").First(&order)
	assert.True(t, firstPaidAt.Equal(*order.PaidAt))

	var notifAfter int64
	db.Model(&models.Notification{}).Count(&notifAfter)
	assert.Equal(t, notifBefore, notifAfter, "replay tidak boleh menambah notifikasi")
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForWebhook()
	router := setupWebhookRouter(db)

	payload := settlementPayload("ORD-20250101-AAAA1111")
	payload["signature_key"] = "bukan-signature-valid"

	w := postWebhook(router, payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var order models.Order
	db.Where("order_id = ?", "ORD-20250101-AAAA1111").First(&order)
	assert.Equal(t, services.PaymentStatusPending, order.PaymentStatus)
	assert.Nil(t, order.PaidAt)
}

func TestWebhookUnknownOrder(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForWebhook()
	router := setupWebhookRouter(db)

	w := postWebhook(router, settlementPayload("ORD-TIDAK-TERDAFTAR"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhookExpireRestocksOrder(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForWebhook()
	router := setupWebhookRouter(db)

	orderID := "ORD-20250101-AAAA1111"
	payload := map[string]interface{}{
		"order_id":           orderID,
		"transaction_status": "expire",
		"status_code":        "407",
		"gross_amount":       "130000.00",
		"signature_key":      webhookSignature(orderID, "407", "130000.00"),
	}

	w := postWebhook(router, payload)
	assert.Equal(t, http.StatusOK, w.Code)

	var order models.Order
	db.Where("order_id = ?", orderID).First(&order)
	assert.Equal(t, services.PaymentStatusCancelled, order.PaymentStatus)
	assert.Equal(t, services.OrderStatusCancelled, order.OrderStatus)

	// 2 sak kembali ke stok
	var product models.Product
	db.First(&product, 1)
	assert.InDelta(t, 10, product.Stock, 1e-9)
}

func TestGetMidtransClientConfig(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForWebhook()
	router := setupWebhookRouter(db)

	req := httptest.NewRequest(http.MethodGet, "/payments/config", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "SB-Mid-client-test-key", data["client_key"])
	assert.Equal(t, false, data["is_production"])
	// server key tidak pernah bocor lewat endpoint ini
	_, exists := data["server_key"]
	assert.False(t, exists)
}
