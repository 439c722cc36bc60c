package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/services"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

type CartController struct {
	DB *gorm.DB
}

func NewCartController(db *gorm.DB) *CartController {
	return &CartController{DB: db}
}

type cartLineView struct {
	models.CartItem
	Subtotal    float64 `json:"subtotal"`
	WeightGrams int     `json:"weight_grams"`
}

// GetCart -> isi keranjang user dengan subtotal dan berat per baris
func (cc *CartController) GetCart(c *gin.Context) {
	userID := c.GetUint("user_id")

	var items []models.CartItem
	if err := cc.DB.Preload("Product").Preload("Product.Category").
		Where("user_id = ?", userID).Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	lines := make([]cartLineView, 0, len(items))
	var subtotal float64
	totalWeight := 0
	for _, item := range items {
		lineSubtotal, err := lineSubtotalFor(item)
		if err != nil {
			// baris dengan satuan yang tidak lagi valid ditampilkan tanpa harga
			utils.ErrorLogger.Printf("Cart line %d has invalid unit %s: %v", item.ID, item.Unit, err)
		}
		weight := services.ItemWeightGrams(item)
		subtotal += lineSubtotal
		totalWeight += weight
		lines = append(lines, cartLineView{CartItem: item, Subtotal: lineSubtotal, WeightGrams: weight})
	}

	utils.RespondJSON(c, http.StatusOK, "Cart contents", gin.H{
		"items":        lines,
		"subtotal":     subtotal,
		"weight_grams": totalWeight,
	})
}

// AddItem menambahkan produk ke keranjang. Produk yang sama dengan satuan
// berbeda menjadi baris terpisah; baris yang sudah ada di-merge kuantitasnya.
// Validasi stok dilakukan dalam satuan yang dipilih pembeli.
func (cc *CartController) AddItem(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		ProductID uint    `json:"product_id" binding:"required"`
		Unit      string  `json:"unit" binding:"required"`
		Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	input.Unit = strings.ToLower(strings.TrimSpace(input.Unit))

	var product models.Product
	if err := cc.DB.Preload("Category").First(&product, input.ProductID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("product not found"))
		return
	}
	if !product.IsActive {
		utils.RespondError(c, http.StatusUnprocessableEntity, errors.New("product is no longer available"))
		return
	}

	// kuantitas akhir setelah merge dengan baris yang sudah ada
	var existing models.CartItem
	newQuantity := input.Quantity
	found := cc.DB.Where("user_id = ? AND product_id = ? AND unit = ?", userID, input.ProductID, input.Unit).
		First(&existing).Error == nil
	if found {
		newQuantity += existing.Quantity
	}

	if err := cc.validateStock(product, input.Unit, newQuantity); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}

	if found {
		existing.Quantity = newQuantity
		if err := cc.DB.Save(&existing).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Cart item updated", existing)
		return
	}

	item := models.CartItem{
		UserID:    userID,
		ProductID: input.ProductID,
		Unit:      input.Unit,
		Quantity:  input.Quantity,
	}
	if err := cc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Item added to cart", item)
}

// SetQuantity mengganti kuantitas satu baris keranjang.
func (cc *CartController) SetQuantity(c *gin.Context) {
	userID := c.GetUint("user_id")
	itemID, _ := strconv.Atoi(c.Param("item_id"))

	var input struct {
		Quantity float64 `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.CartItem
	if err := cc.DB.Preload("Product").Preload("Product.Category").
		Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("cart item not found"))
		return
	}

	if err := cc.validateStock(item.Product, item.Unit, input.Quantity); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}

	item.Quantity = input.Quantity
	if err := cc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Quantity updated", item)
}

// RemoveItem menghapus satu baris keranjang.
func (cc *CartController) RemoveItem(c *gin.Context) {
	userID := c.GetUint("user_id")
	itemID, _ := strconv.Atoi(c.Param("item_id"))

	res := cc.DB.Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("cart item not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Item removed", gin.H{"item_id": itemID})
}

// ClearCart mengosongkan keranjang user.
func (cc *CartController) ClearCart(c *gin.Context) {
	userID := c.GetUint("user_id")

	if err := cc.DB.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Cart cleared", nil)
}

// validateStock memastikan quantity <= stok yang dinyatakan dalam satuan
// yang sama dengan baris keranjang.
func (cc *CartController) validateStock(product models.Product, unit string, quantity float64) error {
	if strings.EqualFold(unit, product.Unit) {
		if quantity > product.Stock {
			return errors.New("insufficient stock")
		}
		return nil
	}

	available, err := services.StockAvailable(product.Category.Name, product.Stock, product.Unit, unit)
	if err != nil {
		return errors.New("unit is not supported for this product")
	}
	if quantity > available {
		return errors.New("insufficient stock")
	}
	return nil
}

func lineSubtotalFor(item models.CartItem) (float64, error) {
	if strings.EqualFold(item.Unit, item.Product.Unit) {
		return item.Quantity * item.Product.Price, nil
	}
	return services.PriceFor(item.Product.Category.Name, item.Quantity, item.Unit, item.Product.Unit, item.Product.Price)
}
