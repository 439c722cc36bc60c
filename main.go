package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/config"
	"github.com/egyw/proyek-fpw-sub002/middlewares"
	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/router"
	"github.com/egyw/proyek-fpw-sub002/services"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

func init() {
	// Load .env file di awal sebelum apapun
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()
}

func main() {
	// Initialize DB
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	// Simpan koneksi database ke utils untuk digunakan di controller
	utils.InitDB(db)

	// Set gin mode
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)
	seedCategories(db)

	// Konfigurasi Midtrans wajib ada, tanpa server key webhook tidak bisa
	// divalidasi sama sekali
	midtransSvc := services.GetMidtransService()
	if err := midtransSvc.ValidateConfig(); err != nil {
		utils.ErrorLogger.Fatalf("Midtrans configuration error: %v", err)
	}

	// Payment monitor: polling status order pending + expire otomatis
	paymentSvc := services.NewPaymentService(db, midtransSvc)
	paymentMonitor := services.NewPaymentMonitor(db, paymentSvc, midtransSvc)
	paymentMonitor.Start()
	defer paymentMonitor.Stop()

	// Setup router + rate limiter global (50 request/detik per IP)
	r := router.SetupRouter(db)
	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	// Run server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.ProductCategory{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
		&models.WebhookEvent{},
		&models.ProductReturn{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}

// seedCategories mengisi kategori bawaan yang punya tabel konversi satuan,
// hanya saat tabel masih kosong.
func seedCategories(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.ProductCategory{}).Count(&count).Error; err != nil || count > 0 {
		return
	}

	for _, name := range services.SupportedCategories() {
		table, _ := services.LookupCategoryTable(name)
		category := models.ProductCategory{Name: name, BaseUnit: table.BaseUnit}
		if err := db.Create(&category).Error; err != nil {
			utils.ErrorLogger.Printf("Failed to seed category %s: %v", name, err)
		}
	}
	utils.InfoLogger.Printf("Seeded %d default categories", len(services.SupportedCategories()))
}
