package services

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

// MidtransConfig holds Midtrans configuration
type MidtransConfig struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
	MerchantName string
}

// MidtransService membungkus Snap (buat transaksi) dan Core API (cek status)
// plus validasi signature webhook.
type MidtransService struct {
	config  *MidtransConfig
	snap    snap.Client
	coreAPI coreapi.Client
}

var (
	midtransService *MidtransService
	midtransOnce    sync.Once
)

// GetMidtransService returns singleton instance of MidtransService
func GetMidtransService() *MidtransService {
	midtransOnce.Do(func() {
		config := &MidtransConfig{
			ServerKey:    os.Getenv("MIDTRANS_SERVER_KEY"),
			ClientKey:    os.Getenv("MIDTRANS_CLIENT_KEY"),
			IsProduction: os.Getenv("MIDTRANS_ENV") == "production",
			MerchantName: os.Getenv("MIDTRANS_MERCHANT_NAME"),
		}
		if config.MerchantName == "" {
			config.MerchantName = "Toko Bangunan Online"
		}
		midtransService = NewMidtransService(config)
	})
	return midtransService
}

// NewMidtransService creates a new instance of MidtransService
func NewMidtransService(config *MidtransConfig) *MidtransService {
	env := midtrans.Sandbox
	if config.IsProduction {
		env = midtrans.Production
	}

	ms := &MidtransService{config: config}
	ms.snap.New(config.ServerKey, env)
	ms.coreAPI.New(config.ServerKey, env)
	return ms
}

// ValidateConfig validates Midtrans configuration
func (ms *MidtransService) ValidateConfig() error {
	if ms.config.ServerKey == "" {
		return fmt.Errorf("MIDTRANS_SERVER_KEY is not set")
	}
	if ms.config.ClientKey == "" {
		return fmt.Errorf("MIDTRANS_CLIENT_KEY is not set")
	}
	return nil
}

// ClientKey dipakai frontend untuk inisialisasi Snap.js.
func (ms *MidtransService) ClientKey() string {
	return ms.config.ClientKey
}

// IsProduction reports which Midtrans environment is in use.
func (ms *MidtransService) IsProduction() bool {
	return ms.config.IsProduction
}

// CreateSnapTransaction meminta Snap token untuk sebuah order. Item detail
// diambil dari snapshot order item, bukan dari tabel products.
func (ms *MidtransService) CreateSnapTransaction(order *models.Order) (*snap.Response, error) {
	items := make([]midtrans.ItemDetails, 0, len(order.Items)+1)
	for _, item := range order.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    fmt.Sprintf("%d-%s", item.ProductID, item.Unit),
			Name:  fmt.Sprintf("%s (%s)", item.ProductName, item.Unit),
			Price: int64(item.Subtotal),
			Qty:   1,
		})
	}
	if order.ShippingCost > 0 {
		items = append(items, midtrans.ItemDetails{
			ID:    "SHIPPING",
			Name:  fmt.Sprintf("Ongkir %s %s", order.Courier, order.CourierService),
			Price: int64(order.ShippingCost),
			Qty:   1,
		})
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  order.OrderID,
			GrossAmt: int64(order.Total),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: order.User.Name,
			Email: order.User.Email,
			Phone: order.User.Phone,
		},
		Items: &items,
	}

	resp, err := ms.snap.CreateTransaction(req)
	if err != nil {
		return nil, fmt.Errorf("midtrans snap error: %w", err)
	}

	utils.InfoLogger.Printf("Snap token created for order %s", order.OrderID)
	return resp, nil
}

// CheckTransactionStatus menarik status transaksi terbaru dari Midtrans,
// dipakai payment monitor untuk rekonsiliasi order pending.
func (ms *MidtransService) CheckTransactionStatus(orderID string) (*coreapi.TransactionStatusResponse, error) {
	resp, err := ms.coreAPI.CheckTransaction(orderID)
	if err != nil {
		return nil, fmt.Errorf("midtrans status check error: %w", err)
	}
	return resp, nil
}

// ValidateSignature memverifikasi keaslian notifikasi webhook. Skema sesuai
// dokumentasi Midtrans: hex(sha512(order_id + status_code + gross_amount +
// server_key)), concat polos tanpa delimiter.
func (ms *MidtransService) ValidateSignature(orderID, statusCode, grossAmount, signature string) bool {
	signatureString := fmt.Sprintf("%s%s%s%s", orderID, statusCode, grossAmount, ms.config.ServerKey)
	hash := sha512.New()
	hash.Write([]byte(signatureString))
	calculatedSignature := hex.EncodeToString(hash.Sum(nil))
	return calculatedSignature == signature
}
