package api

import (
	"net/http"

	"bobalove-backend/internal/push/delivery"
	"bobalove-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, pushHandler *delivery.PushHandler, cfg *config.Config) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Push registration routes (protected)
		push := api.Group("/push")
		push.Use(delivery.AuthMiddleware(cfg.JWTSecret))
		{
			push.GET("/vapid-key", pushHandler.GetVAPIDKey)
			push.POST("/subscribe", pushHandler.Subscribe)
			push.POST("/unsubscribe", pushHandler.Unsubscribe)
			push.POST("/devices", pushHandler.RegisterDevice)
			push.DELETE("/devices/:token", pushHandler.UnregisterDevice)
		}

		// Notification dispatch (protected; used by the main backend
		// and by operators for test sends)
		notifications := api.Group("/notifications")
		notifications.Use(delivery.AuthMiddleware(cfg.JWTSecret))
		{
			notifications.POST("/send", pushHandler.SendNotification)
		}

		// Maintenance routes (protected)
		maintenance := api.Group("/admin/maintenance")
		maintenance.Use(delivery.AuthMiddleware(cfg.JWTSecret))
		{
			maintenance.POST("/fix-subscriptions", pushHandler.FixSubscriptions)
			maintenance.POST("/sync-devices", pushHandler.SyncDevices)
			maintenance.POST("/cleanup-devices", pushHandler.CleanupDevices)
		}
	}
}
