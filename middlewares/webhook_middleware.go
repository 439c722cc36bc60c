package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/egyw/proyek-fpw-sub002/utils"
)

// WebhookRateLimiter melindungi endpoint webhook dari flood. Batas longgar
// karena Midtrans melakukan retry saat non-2xx.
func WebhookRateLimiter() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Every(time.Second), 20)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

// WebhookLogger mencatat setiap notifikasi gateway untuk audit operasional.
func WebhookLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		utils.InfoLogger.Printf("Webhook %s %s -> %d (%v)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
