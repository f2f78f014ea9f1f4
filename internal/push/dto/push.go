package dto

import (
	"encoding/json"
	"errors"
	"time"

	pushdomain "bobalove-backend/internal/push/domain"
)

// ErrMalformedSubscription is returned when a subscription body cannot
// be parsed at all.
var ErrMalformedSubscription = errors.New("malformed subscription payload")

// SubscriptionKeys mirrors the keys object of the PushSubscription API.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// SubscriptionPayload is the wire shape browsers produce from
// PushSubscription.toJSON().
type SubscriptionPayload struct {
	Endpoint       string           `json:"endpoint"`
	ExpirationTime *float64         `json:"expirationTime"` // epoch milliseconds or null
	Keys           SubscriptionKeys `json:"keys"`
}

// Expiration converts the push-service expiration timestamp, if any.
func (p *SubscriptionPayload) Expiration() *time.Time {
	if p.ExpirationTime == nil {
		return nil
	}
	t := time.UnixMilli(int64(*p.ExpirationTime))
	return &t
}

// ParseSubscription accepts either a subscription object or the same
// object double-encoded as a JSON string, which some clients send.
func ParseSubscription(raw json.RawMessage) (*SubscriptionPayload, error) {
	if len(raw) == 0 {
		return nil, ErrMalformedSubscription
	}

	var payload SubscriptionPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Endpoint != "" {
		return &payload, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, ErrMalformedSubscription
	}
	if err := json.Unmarshal([]byte(encoded), &payload); err != nil {
		return nil, ErrMalformedSubscription
	}
	return &payload, nil
}

// DeviceInfo carries descriptive, non-authoritative metadata sent along
// with a registration.
type DeviceInfo struct {
	Platform   string `json:"platform"`
	DeviceName string `json:"device_name"`
}

// SubscribeRequest is the body of POST /api/push/subscribe.
type SubscribeRequest struct {
	Subscription json.RawMessage `json:"subscription" binding:"required"`
	Platform     string          `json:"platform"`
	DeviceName   string          `json:"device_name"`
}

// UnsubscribeRequest is the body of POST /api/push/unsubscribe.
type UnsubscribeRequest struct {
	Subscription json.RawMessage `json:"subscription" binding:"required"`
}

// RegisterDeviceRequest is the body of POST /api/push/devices.
type RegisterDeviceRequest struct {
	Token      string `json:"token" binding:"required"`
	Platform   string `json:"platform"`
	DeviceName string `json:"device_name"`
}

// NotificationRequest is the legacy-tolerant notification shape callers
// put on the wire. Older BobaLove callers populated text, message or
// content instead of body; the fallback chain is resolved here, at the
// boundary, so the dispatchers only ever see a normalized payload.
type NotificationRequest struct {
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Text    string            `json:"text"`
	Message string            `json:"message"`
	Content string            `json:"content"`
	Icon    string            `json:"icon"`
	LinkTo  string            `json:"linkTo"`
	Type    string            `json:"type"`
	Data    map[string]string `json:"data"`
}

// ToPayload normalizes the request into the single payload shape.
func (r *NotificationRequest) ToPayload() pushdomain.NotificationPayload {
	body := r.Body
	if body == "" {
		body = r.Text
	}
	if body == "" {
		body = r.Message
	}
	if body == "" {
		body = r.Content
	}

	return pushdomain.NotificationPayload{
		Title: r.Title,
		Body:  body,
		Icon:  r.Icon,
		URL:   r.LinkTo,
		Type:  r.Type,
		Data:  r.Data,
	}.Normalized()
}

// SendNotificationRequest is the body of POST /api/notifications/send.
type SendNotificationRequest struct {
	UserID       string              `json:"user_id"`
	UserIDs      []string            `json:"user_ids"`
	Broadcast    bool                `json:"broadcast"`
	Notification NotificationRequest `json:"notification" binding:"required"`
}
