package delivery

import (
	"errors"
	"net/http"

	pushdomain "bobalove-backend/internal/push/domain"
	"bobalove-backend/internal/push/dto"
	"bobalove-backend/internal/push/usecase"

	"github.com/gin-gonic/gin"
)

// PushHandler handles push-related HTTP requests
type PushHandler struct {
	subUsecase    usecase.SubscriptionUsecase
	deviceUsecase usecase.DeviceUsecase
	webPush       usecase.WebPushUsecase
	fcm           usecase.FCMUsecase
	maintenance   usecase.MaintenanceUsecase
	vapidKey      string
}

// NewPushHandler creates a new PushHandler
func NewPushHandler(
	subUsecase usecase.SubscriptionUsecase,
	deviceUsecase usecase.DeviceUsecase,
	webPush usecase.WebPushUsecase,
	fcm usecase.FCMUsecase,
	maintenance usecase.MaintenanceUsecase,
	vapidKey string,
) *PushHandler {
	return &PushHandler{
		subUsecase:    subUsecase,
		deviceUsecase: deviceUsecase,
		webPush:       webPush,
		fcm:           fcm,
		maintenance:   maintenance,
		vapidKey:      vapidKey,
	}
}

// GetVAPIDKey returns the public key clients subscribe with
// GET /api/push/vapid-key
func (h *PushHandler) GetVAPIDKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publicKey": h.vapidKey})
}

// Subscribe registers or refreshes a Web Push subscription
// POST /api/push/subscribe
func (h *PushHandler) Subscribe(c *gin.Context) {
	userID := c.GetString("userID")

	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info := dto.DeviceInfo{Platform: req.Platform, DeviceName: req.DeviceName}
	sub, err := h.subUsecase.Register(userID, req.Subscription, info)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidSubscription) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription payload"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save subscription"})
		return
	}

	c.JSON(http.StatusOK, sub)
}

// Unsubscribe removes a Web Push subscription
// POST /api/push/unsubscribe
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	userID := c.GetString("userID")

	var req dto.UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	removed, err := h.subUsecase.Unregister(userID, req.Subscription)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidSubscription) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription payload"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// RegisterDevice stores an FCM device token
// POST /api/push/devices
func (h *PushHandler) RegisterDevice(c *gin.Context) {
	userID := c.GetString("userID")

	var req dto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := h.deviceUsecase.Register(userID, req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidDeviceToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device token"})
		case errors.Is(err, usecase.ErrTokenInUse):
			c.JSON(http.StatusConflict, gin.H{"error": "token registered to another active account"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save device"})
		}
		return
	}

	c.JSON(http.StatusOK, device)
}

// UnregisterDevice removes an FCM device token
// DELETE /api/push/devices/:token
func (h *PushHandler) UnregisterDevice(c *gin.Context) {
	userID := c.GetString("userID")
	token := c.Param("token")

	removed, err := h.deviceUsecase.Unregister(userID, token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// SendNotification dispatches a notification over both channels
// POST /api/notifications/send
func (h *PushHandler) SendNotification(c *gin.Context) {
	var req dto.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload := req.Notification.ToPayload()
	ctx := c.Request.Context()

	var web, native pushdomain.DispatchResult
	switch {
	case req.Broadcast:
		native = h.fcm.SendToAll(ctx, payload)
	case len(req.UserIDs) > 0:
		web = h.webPush.SendToUsers(ctx, req.UserIDs, payload)
		native = h.fcm.SendToUsers(ctx, req.UserIDs, payload)
	case req.UserID != "":
		web = h.webPush.SendToUser(ctx, req.UserID, payload)
		native = h.fcm.SendToUser(ctx, req.UserID, payload)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, user_ids or broadcast required"})
		return
	}

	var combined pushdomain.DispatchResult
	combined.Add(web)
	combined.Add(native)

	if !combined.Accepted() {
		// Distinguish nobody-to-send-to from everything-failed so the
		// client can render a useful message.
		if combined.Failed == 0 {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "no subscriptions or devices found - enable notifications first",
				"web":   web, "fcm": native,
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "send failed - check push configuration",
			"web":   web, "fcm": native,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"web": web, "fcm": native})
}

// FixSubscriptions runs the key-hygiene repair job
// POST /api/admin/maintenance/fix-subscriptions
func (h *PushHandler) FixSubscriptions(c *gin.Context) {
	writeMaintenanceResult(c, h.maintenance.FixSubscriptions())
}

// SyncDevices runs the device/subscription reconciliation job
// POST /api/admin/maintenance/sync-devices
func (h *PushHandler) SyncDevices(c *gin.Context) {
	writeMaintenanceResult(c, h.maintenance.SyncDevicesWithSubscriptions())
}

// CleanupDevices runs the device TTL cleanup job
// POST /api/admin/maintenance/cleanup-devices
func (h *PushHandler) CleanupDevices(c *gin.Context) {
	writeMaintenanceResult(c, h.maintenance.CleanupExpiredDevices())
}

func writeMaintenanceResult(c *gin.Context, result pushdomain.MaintenanceResult) {
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, result)
}
