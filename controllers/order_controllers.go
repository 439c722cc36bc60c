package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/realtime"
	"github.com/egyw/proyek-fpw-sub002/services"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

type OrderController struct {
	DB       *gorm.DB
	Midtrans *services.MidtransService
	Shipping *services.RajaOngkirService
	notifier *services.NotificationService
}

func NewOrderController(db *gorm.DB, midtrans *services.MidtransService, shipping *services.RajaOngkirService) *OrderController {
	return &OrderController{
		DB:       db,
		Midtrans: midtrans,
		Shipping: shipping,
		notifier: services.NewNotificationService(db),
	}
}

// newOrderRef menghasilkan id publik order yang dipakai sebagai order_id
// Midtrans. Harus unik dan human-readable.
func newOrderRef() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}

// Checkout membuat order dari isi keranjang. Harga dan stok divalidasi ulang
// dari tabel products (bukan dari angka yang dipegang client), snapshot item
// dibekukan, stok dikurangi, lalu Snap token diminta ke Midtrans. Kalau
// gateway gagal, seluruh transaksi dibatalkan dan stok kembali utuh.
func (oc *OrderController) Checkout(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		Courier         string `json:"courier"`          // jne/pos/tiki, kosong = ambil di toko
		CourierService  string `json:"courier_service"`  // REG, YES, ...
		DestinationCity string `json:"destination_city"` // kode kota, default dari profil
		ShippingAddress string `json:"shipping_address"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := oc.DB.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user not found"))
		return
	}
	if input.DestinationCity == "" {
		input.DestinationCity = user.CityID
	}
	if input.ShippingAddress == "" {
		input.ShippingAddress = user.Address
	}

	var cartItems []models.CartItem
	if err := oc.DB.Preload("Product").Preload("Product.Category").
		Where("user_id = ?", userID).Find(&cartItems).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if len(cartItems) == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("cart is empty"))
		return
	}

	tx := oc.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var orderItems []models.OrderItem
	var subtotal float64
	totalWeight := 0

	for _, item := range cartItems {
		// baca ulang produk dengan lock supaya dua checkout paralel tidak
		// sama-sama lolos validasi stok
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Category").First(&product, item.ProductID).Error; err != nil {
			tx.Rollback()
			utils.RespondError(c, http.StatusUnprocessableEntity,
				fmt.Errorf("product %d is no longer available", item.ProductID))
			return
		}
		if !product.IsActive {
			tx.Rollback()
			utils.RespondError(c, http.StatusUnprocessableEntity,
				fmt.Errorf("%s is no longer available", product.Name))
			return
		}

		// konversi kuantitas beli ke satuan jual asli produk
		qtyInProductUnit := item.Quantity
		if !strings.EqualFold(item.Unit, product.Unit) {
			converted, err := services.Convert(product.Category.Name, item.Quantity, item.Unit, product.Unit)
			if err != nil {
				tx.Rollback()
				utils.RespondError(c, http.StatusUnprocessableEntity,
					fmt.Errorf("unit %s is not supported for %s", item.Unit, product.Name))
				return
			}
			qtyInProductUnit = converted
		}

		if qtyInProductUnit > product.Stock {
			tx.Rollback()
			utils.RespondError(c, http.StatusUnprocessableEntity,
				fmt.Errorf("insufficient stock for %s", product.Name))
			return
		}

		lineSubtotal := qtyInProductUnit * product.Price
		weight := services.ItemWeightGrams(models.CartItem{
			Product:  product,
			Unit:     item.Unit,
			Quantity: item.Quantity,
		})

		orderItems = append(orderItems, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Category:    product.Category.Name,
			Unit:        item.Unit,
			ProductUnit: product.Unit,
			Quantity:    item.Quantity,
			Price:       product.Price,
			Subtotal:    lineSubtotal,
			WeightGrams: weight,
		})
		subtotal += lineSubtotal
		totalWeight += weight

		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
			Update("stock", gorm.Expr("stock - ?", qtyInProductUnit)).Error; err != nil {
			tx.Rollback()
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	// Ongkir dihitung server-side dari berat agregat keranjang
	var shippingCost float64
	if input.Courier != "" {
		if input.DestinationCity == "" {
			tx.Rollback()
			utils.RespondError(c, http.StatusBadRequest, errors.New("destination city is required for shipping"))
			return
		}
		rates, err := oc.Shipping.GetCost(c.Request.Context(), input.DestinationCity, totalWeight, input.Courier)
		if err != nil {
			tx.Rollback()
			utils.RespondError(c, http.StatusBadGateway, fmt.Errorf("shipping rate lookup failed: %w", err))
			return
		}
		matched := false
		for _, rate := range rates {
			if strings.EqualFold(rate.Service, input.CourierService) {
				shippingCost = float64(rate.Cost)
				matched = true
				break
			}
		}
		if !matched {
			tx.Rollback()
			utils.RespondError(c, http.StatusUnprocessableEntity,
				fmt.Errorf("courier service %s is not available for this destination", input.CourierService))
			return
		}
	}

	order := models.Order{
		OrderID:         newOrderRef(),
		UserID:          userID,
		User:            user,
		Items:           orderItems,
		Subtotal:        subtotal,
		ShippingCost:    shippingCost,
		Total:           subtotal + shippingCost,
		PaymentStatus:   services.PaymentStatusPending,
		OrderStatus:     services.OrderStatusAwaitingPayment,
		ShippingAddress: input.ShippingAddress,
		DestinationCity: input.DestinationCity,
		Courier:         input.Courier,
		CourierService:  input.CourierService,
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	snapResp, err := oc.Midtrans.CreateSnapTransaction(&order)
	if err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusBadGateway, fmt.Errorf("payment gateway error: %w", err))
		return
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("snap_token", snapResp.Token).Error; err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	// keranjang dikosongkan setelah order resmi dibuat
	if err := oc.DB.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to clear cart for user %d after checkout: %v", userID, err)
	}

	realtime.BroadcastToRoles(realtime.EventOrderUpdate, gin.H{
		"order_id":     order.OrderID,
		"order_status": order.OrderStatus,
		"total":        order.Total,
	}, []string{"staff", "admin"})

	utils.InfoLogger.Printf("Order %s created for user %d (total=%s)", order.OrderID, userID, utils.FormatCurrencyIDR(order.Total))

	utils.RespondJSON(c, http.StatusCreated, "Order created", gin.H{
		"order_id":      order.OrderID,
		"snap_token":    snapResp.Token,
		"redirect_url":  snapResp.RedirectURL,
		"subtotal":      order.Subtotal,
		"shipping_cost": order.ShippingCost,
		"total":         order.Total,
		"weight_grams":  totalWeight,
	})
}

// GetMyOrders -> riwayat order customer
func (oc *OrderController) GetMyOrders(c *gin.Context) {
	userID := c.GetUint("user_id")

	var orders []models.Order
	if err := oc.DB.Preload("Items").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order history", orders)
}

// GetOrderByRef -> detail 1 order; customer hanya boleh melihat miliknya
func (oc *OrderController) GetOrderByRef(c *gin.Context) {
	ref := c.Param("order_id")

	var order models.Order
	if err := oc.DB.Preload("Items").Preload("User").
		Where("order_id = ?", ref).First(&order).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}

	role := c.GetString("role")
	if role == "customer" && order.UserID != c.GetUint("user_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("not your order"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetAllOrders (staff/admin) dengan filter status
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	query := oc.DB.Preload("Items").Preload("User")

	if status := c.Query("order_status"); status != "" {
		query = query.Where("order_status = ?", status)
	}
	if status := c.Query("payment_status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// ShipOrder (staff/admin): processing -> shipped + resi kurir
func (oc *OrderController) ShipOrder(c *gin.Context) {
	var input struct {
		TrackingNumber string `json:"tracking_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, ok := oc.transition(c, services.OrderStatusProcessing, services.OrderStatusShipped, map[string]interface{}{
		"tracking_number": input.TrackingNumber,
		"shipped_at":      time.Now(),
	})
	if !ok {
		return
	}

	oc.notifier.NotifyShippingUpdate(order,
		fmt.Sprintf("Order %s sudah dikirim dengan %s %s, resi %s.", order.OrderID, order.Courier, order.CourierService, input.TrackingNumber))
	utils.RespondJSON(c, http.StatusOK, "Order shipped", order)
}

// DeliverOrder (staff/admin): shipped -> delivered
func (oc *OrderController) DeliverOrder(c *gin.Context) {
	order, ok := oc.transition(c, services.OrderStatusShipped, services.OrderStatusDelivered, map[string]interface{}{
		"delivered_at": time.Now(),
	})
	if !ok {
		return
	}

	oc.notifier.NotifyShippingUpdate(order,
		fmt.Sprintf("Order %s sudah sampai di alamat tujuan.", order.OrderID))
	utils.RespondJSON(c, http.StatusOK, "Order delivered", order)
}

// CompleteOrder (staff/admin): delivered -> completed
func (oc *OrderController) CompleteOrder(c *gin.Context) {
	order, ok := oc.transition(c, services.OrderStatusDelivered, services.OrderStatusCompleted, map[string]interface{}{
		"completed_at": time.Now(),
	})
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order completed", order)
}

// CancelOrder membatalkan order yang belum dibayar dan mengembalikan stok.
// Customer hanya boleh membatalkan miliknya; order yang sudah dibayar harus
// lewat proses retur.
func (oc *OrderController) CancelOrder(c *gin.Context) {
	ref := c.Param("order_id")

	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)
	if input.Reason == "" {
		input.Reason = "dibatalkan manual"
	}

	var order models.Order
	if err := oc.DB.Preload("Items").Where("order_id = ?", ref).First(&order).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}

	role := c.GetString("role")
	if role == "customer" && order.UserID != c.GetUint("user_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("not your order"))
		return
	}
	if order.PaymentStatus != services.PaymentStatusPending {
		utils.RespondError(c, http.StatusConflict, errors.New("only unpaid orders can be cancelled"))
		return
	}

	tx := oc.DB.Begin()
	res := tx.Model(&models.Order{}).
		Where("order_id = ? AND payment_status = ?", ref, services.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": services.PaymentStatusCancelled,
			"order_status":   services.OrderStatusCancelled,
			"cancel_reason":  input.Reason,
			"cancelled_at":   time.Now(),
		})
	if res.Error != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		// balapan dengan webhook: status berubah di tengah jalan
		tx.Rollback()
		utils.RespondError(c, http.StatusConflict, errors.New("order status changed, refresh and try again"))
		return
	}

	// kembalikan stok snapshot item
	for _, item := range order.Items {
		qtyInProductUnit := item.Quantity
		if !strings.EqualFold(item.Unit, item.ProductUnit) {
			if converted, err := services.Convert(item.Category, item.Quantity, item.Unit, item.ProductUnit); err == nil {
				qtyInProductUnit = converted
			}
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
			Update("stock", gorm.Expr("stock + ?", qtyInProductUnit)).Error; err != nil {
			tx.Rollback()
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Order %s cancelled (%s)", ref, input.Reason)
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", gin.H{"order_id": ref})
}

// transition menerapkan perpindahan order_status admin dengan guard status
// asal, lalu mengembalikan order terbaru.
func (oc *OrderController) transition(c *gin.Context, from, to string, extra map[string]interface{}) (*models.Order, bool) {
	ref := c.Param("order_id")

	updates := map[string]interface{}{"order_status": to, "updated_at": time.Now()}
	for k, v := range extra {
		updates[k] = v
	}

	res := oc.DB.Model(&models.Order{}).
		Where("order_id = ? AND order_status = ?", ref, from).
		Updates(updates)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return nil, false
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusConflict,
			fmt.Errorf("order is not in %s status", from))
		return nil, false
	}

	var order models.Order
	if err := oc.DB.Where("order_id = ?", ref).First(&order).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return nil, false
	}

	realtime.BroadcastToRoles(realtime.EventOrderUpdate, gin.H{
		"order_id":     order.OrderID,
		"order_status": order.OrderStatus,
	}, []string{"staff", "admin"})

	return &order, true
}
