package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/controllers"
	"github.com/egyw/proyek-fpw-sub002/middlewares"
	"github.com/egyw/proyek-fpw-sub002/services"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// Inisialisasi service bersama
	midtransSvc := services.GetMidtransService()
	shippingSvc := services.GetRajaOngkirService()
	paymentSvc := services.NewPaymentService(db, midtransSvc)

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(db)
	categoryCtrl := controllers.NewCategoryController(db)
	productCtrl := controllers.NewProductController(db)
	cartCtrl := controllers.NewCartController(db)
	orderCtrl := controllers.NewOrderController(db, midtransSvc, shippingSvc)
	paymentCtrl := controllers.NewPaymentController(db, paymentSvc, midtransSvc)
	shippingCtrl := controllers.NewShippingController(shippingSvc)
	returnCtrl := controllers.NewReturnController(db)
	notificationCtrl := controllers.NewNotificationController(db)
	adminCtrl := controllers.NewAdminController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter ketat untuk login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Katalog bisa dilihat tanpa login
	r.GET("/categories", categoryCtrl.GetAllCategories)
	r.GET("/categories/:name/units", categoryCtrl.GetCategoryUnits)
	r.GET("/products", productCtrl.GetAllProducts)
	r.GET("/products/:product_id", productCtrl.GetProductByID)
	r.GET("/products/:product_id/units", productCtrl.GetProductUnits)

	// Cek ongkir untuk kalkulasi di halaman produk/checkout
	r.GET("/shipping/provinces", shippingCtrl.GetProvinces)
	r.GET("/shipping/cities", shippingCtrl.GetCities)
	r.GET("/shipping/cost", shippingCtrl.GetShippingCost)

	// Config client Midtrans untuk Snap.js
	r.GET("/payments/config", paymentCtrl.GetMidtransClientConfig)

	// Webhook Midtrans: tanpa JWT, autentikasi via signature di body.
	// Rate limiter longgar + logger khusus supaya redelivery tetap masuk.
	webhook := r.Group("/payments")
	webhook.Use(middlewares.WebhookRateLimiter(), middlewares.WebhookLogger())
	{
		webhook.POST("/webhook", paymentCtrl.HandleMidtransWebhook)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.POST("/logout", userCtrl.Logout)
		auth.GET("/profile", userCtrl.GetProfile)
		auth.PATCH("/profile", userCtrl.UpdateProfile)

		// CART
		auth.GET("/cart", cartCtrl.GetCart)
		auth.POST("/cart", cartCtrl.AddItem)
		auth.PATCH("/cart/:item_id", cartCtrl.SetQuantity)
		auth.DELETE("/cart/:item_id", cartCtrl.RemoveItem)
		auth.DELETE("/cart", cartCtrl.ClearCart)

		// CHECKOUT & ORDERS
		auth.POST("/checkout", orderCtrl.Checkout)
		auth.GET("/orders", orderCtrl.GetMyOrders)
		auth.GET("/orders/:order_id", orderCtrl.GetOrderByRef)
		auth.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)
		auth.GET("/orders/:order_id/payment-status", paymentCtrl.CheckPaymentStatus)

		// RETUR
		auth.POST("/returns", returnCtrl.RequestReturn)
		auth.GET("/returns", returnCtrl.GetMyReturns)

		// NOTIFIKASI
		auth.GET("/notifications", notificationCtrl.GetMyNotifications)
		auth.PATCH("/notifications/read-all", notificationCtrl.MarkAllAsRead)
		auth.PATCH("/notifications/:id/read", notificationCtrl.MarkAsRead)
		auth.DELETE("/notifications/:id", notificationCtrl.DeleteNotification)
	}

	// ----------------------------------------------------------------
	//                      STAFF / ADMIN ROUTES
	// ----------------------------------------------------------------
	staff := r.Group("/admin")
	staff.Use(middlewares.AuthMiddleware(), middlewares.RequireRole("staff", "admin"))
	{
		staff.GET("/orders", orderCtrl.GetAllOrders)
		staff.GET("/orders/:order_id", orderCtrl.GetOrderByRef)
		staff.POST("/orders/:order_id/ship", orderCtrl.ShipOrder)
		staff.POST("/orders/:order_id/deliver", orderCtrl.DeliverOrder)
		staff.POST("/orders/:order_id/complete", orderCtrl.CompleteOrder)
		staff.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)

		staff.GET("/returns", returnCtrl.GetAllReturns)
		staff.POST("/returns/:id/review", returnCtrl.ReviewReturn)

		staff.GET("/dashboard/stats", adminCtrl.GetDashboardStats)
		staff.GET("/reports/sales", adminCtrl.GetSalesReport)
		staff.GET("/reports/sales/export-pdf", adminCtrl.ExportSalesReportPDF)
	}

	// Hanya admin: kelola katalog dan akun
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.RequireRole("admin"))
	{
		admin.GET("/users", userCtrl.GetAllUsers)

		admin.POST("/categories", categoryCtrl.CreateCategory)
		admin.PATCH("/categories/:cat_id", categoryCtrl.UpdateCategory)
		admin.DELETE("/categories/:cat_id", categoryCtrl.DeleteCategory)

		admin.POST("/products", productCtrl.CreateProduct)
		admin.PATCH("/products/:product_id", productCtrl.UpdateProduct)
		admin.DELETE("/products/:product_id", productCtrl.DeleteProduct)
	}

	// WebSocket dashboard dengan middleware auth khusus (token via query)
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/dashboard", controllers.DashboardWSHandler)
	}

	return r
}
