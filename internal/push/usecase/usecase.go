package usecase

import (
	"context"
	"encoding/json"
	"errors"

	pushdomain "bobalove-backend/internal/push/domain"
	"bobalove-backend/internal/push/dto"
	"bobalove-backend/pkg/fcm"
)

var (
	// ErrInvalidSubscription is returned when a registration body cannot
	// be parsed or its key material is malformed. Nothing is persisted.
	ErrInvalidSubscription = errors.New("invalid subscription")

	// ErrInvalidDeviceToken is returned for empty or synthetic tokens.
	ErrInvalidDeviceToken = errors.New("invalid device token")

	// ErrTokenInUse is returned when a token is registered to another
	// user who has been active within the transfer window.
	ErrTokenInUse = errors.New("token registered to an active device")
)

// SubscriptionUsecase reconciles incoming Web Push registrations with
// the store.
type SubscriptionUsecase interface {
	Register(userID string, raw json.RawMessage, info dto.DeviceInfo) (*pushdomain.Subscription, error)
	Unregister(userID string, raw json.RawMessage) (bool, error)
}

// DeviceUsecase manages native FCM device tokens.
type DeviceUsecase interface {
	Register(userID string, req dto.RegisterDeviceRequest) (*pushdomain.Device, error)
	Unregister(userID, token string) (bool, error)
}

// WebPushUsecase dispatches notifications over the Web Push protocol.
type WebPushUsecase interface {
	SendToUser(ctx context.Context, userID string, payload pushdomain.NotificationPayload) pushdomain.DispatchResult
	SendToUsers(ctx context.Context, userIDs []string, payload pushdomain.NotificationPayload) pushdomain.DispatchResult
}

// FCMUsecase dispatches notifications to native device tokens.
type FCMUsecase interface {
	SendToUser(ctx context.Context, userID string, payload pushdomain.NotificationPayload) pushdomain.DispatchResult
	SendToUsers(ctx context.Context, userIDs []string, payload pushdomain.NotificationPayload) pushdomain.DispatchResult
	SendToAll(ctx context.Context, payload pushdomain.NotificationPayload) pushdomain.DispatchResult
}

// MaintenanceUsecase holds the idempotent repair/sync jobs. They never
// return an error; failures are carried in the result so an admin
// endpoint and a scheduler can invoke them uniformly.
type MaintenanceUsecase interface {
	FixSubscriptions() pushdomain.MaintenanceResult
	SyncDevicesWithSubscriptions() pushdomain.MaintenanceResult
	CleanupExpiredDevices() pushdomain.MaintenanceResult
}

// WebPushSender is the transport the Web Push dispatcher talks to.
// *webpush.Client satisfies it.
type WebPushSender interface {
	Send(ctx context.Context, endpoint, p256dh, auth string, payload []byte) (statusCode int, err error)
}

// FCMSender is the transport the FCM dispatcher talks to. *fcm.Client
// satisfies it.
type FCMSender interface {
	SendToDevice(ctx context.Context, token string, notification fcm.NotificationData) error
}
