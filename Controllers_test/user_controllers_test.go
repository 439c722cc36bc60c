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

func setupTestDBForUsers() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		panic(err)
	}
	return db
}

func setupUserRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	userCtrl := controllers.NewUserController(db)
	router.POST("/register", userCtrl.Register)
	router.POST("/login", userCtrl.Login)
	router.GET("/profile", func(c *gin.Context) {
		// auth middleware diganti stub yang menanam identitas langsung
		c.Set("user_id", uint(1))
		c.Set("role", "customer")
		userCtrl.GetProfile(c)
	})
	return router
}

func TestRegisterAndLogin(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForUsers()
	router := setupUserRouter(db)

	payload := map[string]interface{}{
		"name":     "Budi Santoso",
		"email":    "Budi@Example.com",
		"password": "rahasia123",
		"phone":    "081234567890",
		"address":  "Jl. Raya Darmo 1",
		"city_id":  "444",
	}
	payloadBytes, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	// email disimpan lowercase dan role dipaksa customer
	var user models.User
	assert.NoError(t, db.First(&user, 1).Error)
	assert.Equal(t, "budi@example.com", user.Email)
	assert.Equal(t, "customer", user.Role)
	assert.NotEqual(t, "rahasia123", user.Password)

	// login dengan kredensial benar
	login := map[string]string{"email": "budi@example.com", "password": "rahasia123"}
	loginBytes, _ := json.Marshal(login)
	req = httptest.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(loginBytes))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "customer", data["user_role"])

	// password salah
	login["password"] = "salah-total"
	loginBytes, _ = json.Marshal(login)
	req = httptest.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(loginBytes))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForUsers()
	router := setupUserRouter(db)

	payload := map[string]string{
		"name":     "Budi",
		"email":    "budi@example.com",
		"password": "pendek",
	}
	payloadBytes, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
