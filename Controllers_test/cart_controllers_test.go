package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/controllers"
	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

func setupTestDBForCart() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	err = db.AutoMigrate(&models.User{}, &models.ProductCategory{}, &models.Product{}, &models.CartItem{})
	if err != nil {
		panic(err)
	}

	db.Create(&models.User{Name: "Budi", Email: "budi@example.com", Password: "x", Role: "customer"})

	semen := models.ProductCategory{Name: "semen", BaseUnit: "kg"}
	db.Create(&semen)
	besi := models.ProductCategory{Name: "besi", BaseUnit: "kg"}
	db.Create(&besi)

	// stok 10 sak = 500 kg
	db.Create(&models.Product{CategoryID: semen.ID, Name: "Semen Abu 50kg", Unit: "sak", Price: 65000, Stock: 10, IsActive: true})
	db.Create(&models.Product{CategoryID: besi.ID, Name: "Besi Beton 10mm", Unit: "batang", Price: 85000, Stock: 100, IsActive: true})

	return db
}

// stubAuth menanam identitas customer seperti yang dilakukan AuthMiddleware.
func stubAuth(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

func setupCartRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	cartCtrl := controllers.NewCartController(db)

	authed := router.Group("/", stubAuth(1, "customer"))
	authed.GET("/cart", cartCtrl.GetCart)
	authed.POST("/cart", cartCtrl.AddItem)
	authed.PATCH("/cart/:item_id", cartCtrl.SetQuantity)
	authed.DELETE("/cart/:item_id", cartCtrl.RemoveItem)
	return router
}

func postCart(router *gin.Engine, payload map[string]interface{}) *httptest.ResponseRecorder {
	payloadBytes, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAddItemWithConvertedUnit(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForCart()
	router := setupCartRouter(db)

	// beli 100 kg dari produk yang dijual per sak (stok 10 sak = 500 kg)
	w := postCart(router, map[string]interface{}{
		"product_id": 1,
		"unit":       "KG",
		"quantity":   100,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var item models.CartItem
	assert.NoError(t, db.First(&item).Error)
	assert.Equal(t, "kg", item.Unit, "satuan dinormalisasi lowercase")
	assert.InDelta(t, 100, item.Quantity, 1e-9)

	// isi cart: subtotal 100 kg = 2 sak = 130000, berat 100000 gram
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.InDelta(t, 130000, data["subtotal"].(float64), 1e-6)
	assert.InDelta(t, 100000, data["weight_grams"].(float64), 1e-6)
}

func TestAddItemInsufficientStockInSelectedUnit(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForCart()
	router := setupCartRouter(db)

	// stok 10 sak = 500 kg, minta 501 kg
	w := postCart(router, map[string]interface{}{
		"product_id": 1,
		"unit":       "kg",
		"quantity":   501,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var count int64
	db.Model(&models.CartItem{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestAddItemUnsupportedUnit(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForCart()
	router := setupCartRouter(db)

	w := postCart(router, map[string]interface{}{
		"product_id": 1,
		"unit":       "liter",
		"quantity":   2,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAddItemMergesExistingLine(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForCart()
	router := setupCartRouter(db)

	w := postCart(router, map[string]interface{}{"product_id": 2, "unit": "batang", "quantity": 3})
	assert.Equal(t, http.StatusCreated, w.Code)

	// baris yang sama di-merge, bukan jadi baris baru
	w = postCart(router, map[string]interface{}{"product_id": 2, "unit": "batang", "quantity": 2})
	assert.Equal(t, http.StatusOK, w.Code)

	var items []models.CartItem
	db.Find(&items)
	assert.Len(t, items, 1)
	assert.InDelta(t, 5, items[0].Quantity, 1e-9)

	// satuan berbeda untuk produk yang sama = baris terpisah
	w = postCart(router, map[string]interface{}{"product_id": 2, "unit": "kg", "quantity": 10})
	assert.Equal(t, http.StatusCreated, w.Code)
	db.Find(&items)
	assert.Len(t, items, 2)
}

func TestSetQuantityValidatesStock(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForCart()
	router := setupCartRouter(db)

	w := postCart(router, map[string]interface{}{"product_id": 1, "unit": "sak", "quantity": 2})
	assert.Equal(t, http.StatusCreated, w.Code)

	body, _ := json.Marshal(map[string]interface{}{"quantity": 11})
	req := httptest.NewRequest(http.MethodPatch, "/cart/1", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w2.Code)

	body, _ = json.Marshal(map[string]interface{}{"quantity": 5})
	req = httptest.NewRequest(http.MethodPatch, "/cart/1", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w2 = httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusOK, w2.Code)
}
