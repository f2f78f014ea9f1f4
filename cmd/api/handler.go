package api

import (
	"bobalove-backend/internal/push/delivery"
	"bobalove-backend/internal/push/usecase"
	"bobalove-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	pushHandler *delivery.PushHandler
	config      *config.Config
}

func NewHandler(
	subUsecase usecase.SubscriptionUsecase,
	deviceUsecase usecase.DeviceUsecase,
	webPush usecase.WebPushUsecase,
	fcm usecase.FCMUsecase,
	maintenance usecase.MaintenanceUsecase,
	cfg *config.Config,
) *Handler {
	pushHandler := delivery.NewPushHandler(subUsecase, deviceUsecase, webPush, fcm, maintenance, cfg.VAPIDPublicKey)

	return &Handler{
		pushHandler: pushHandler,
		config:      cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.pushHandler, h.config)

	return r.Run(addr)
}
