package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/realtime"
	"github.com/egyw/proyek-fpw-sub002/services"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

var dashboardUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// origin sudah disaring CORS middleware, token dicek sebelum upgrade
		return true
	},
}

// DashboardWSHandler meng-upgrade koneksi staff/admin ke hub realtime untuk
// update order, pembayaran, dan retur. Client cukup membaca event; pesan
// masuk diabaikan dan loop read hanya dipakai mendeteksi koneksi putus.
func DashboardWSHandler(c *gin.Context) {
	role := c.GetString("role")
	if role != "staff" && role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "staff or admin role required"})
		return
	}

	conn, err := dashboardUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("Failed to upgrade dashboard websocket: %v", err)
		return
	}

	realtime.RegisterClient(conn, role)
	utils.InfoLogger.Printf("Dashboard websocket connected (role=%s, total=%d)", role, realtime.ClientCount())

	// snapshot awal supaya dashboard langsung terisi tanpa menunggu event
	if db := utils.GetDB(); db != nil {
		var awaitingPayment, toShip int64
		db.Model(&models.Order{}).Where("payment_status = ?", services.PaymentStatusPending).Count(&awaitingPayment)
		db.Model(&models.Order{}).Where("order_status = ?", services.OrderStatusProcessing).Count(&toShip)
		if err := conn.WriteJSON(gin.H{
			"event": "dashboard_snapshot",
			"data": gin.H{
				"awaiting_payment": awaitingPayment,
				"to_ship":          toShip,
			},
		}); err != nil {
			utils.ErrorLogger.Printf("Failed to send dashboard snapshot: %v", err)
		}
	}

	defer func() {
		realtime.UnregisterClient(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
