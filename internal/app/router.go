package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"agrimarket/internal/microservices/http-api/handler"
	"agrimarket/internal/microservices/http-api/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const mailCheckTTL = 30 * time.Second

// Router builds the HTTP surface: the vendor inbox, /healthz and /metrics
func (a *App) Router() *gin.Engine {
	if !a.Config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(a.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     a.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", a.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	notifications := r.Group("/api/vendor/notifications", middleware.VendorAuth(a.Config.JWTSecret))
	handler.NewNotificationHandler(a.Service).RegisterRoutes(notifications)

	return r
}

// health fails only when the store is unreachable. Mail is best effort,
// so an unreachable SMTP server is reported but keeps the status 200.
func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok", "store": "up", "mail": "up"}

	if err := a.Repo.Ping(ctx); err != nil {
		a.Logger.Error("health_store_down", "error", err)
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
		body["store"] = "down"
	}
	if !a.Mailer.Reachable(ctx, mailCheckTTL) {
		body["mail"] = "down"
		if status == http.StatusOK {
			body["status"] = "degraded"
		}
	}

	c.JSON(status, body)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http_request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"vendor_id", c.GetString(middleware.VendorIDKey),
		)
	}
}
