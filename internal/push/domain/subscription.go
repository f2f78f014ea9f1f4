package domain

import (
	"strings"
	"time"
)

// LegacyEndpointMarker identifies push endpoints that were synthesized by
// the old auto-provisioning logic. Rows created today carry IsPlaceholder
// instead; the marker only exists so old rows are still recognized.
const LegacyEndpointMarker = "auto-generated-endpoint"

// PlaceholderEndpointPrefix is used for placeholder subscriptions created
// by maintenance jobs. Placeholders are never delivery targets.
const PlaceholderEndpointPrefix = "placeholder://subscription/"

// Subscription is a Web Push registration for one browser of one user.
// A user may hold several subscriptions, one per browser/device.
type Subscription struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	UserID         string     `json:"user_id" gorm:"index:idx_subscriptions_user_endpoint,unique;not null"`
	Endpoint       string     `json:"endpoint" gorm:"index:idx_subscriptions_user_endpoint,unique;type:text;not null"`
	ExpirationTime *time.Time `json:"expiration_time,omitempty"`
	P256dh         string     `json:"-" gorm:"column:p256dh;type:text"` // base64url, 65 bytes decoded
	Auth           string     `json:"-" gorm:"type:text"`               // base64url, 16 bytes decoded
	Platform       string     `json:"platform"`
	DeviceName     string     `json:"device_name"`
	IsPlaceholder  bool       `json:"is_placeholder" gorm:"default:false"`
	LastActive     time.Time  `json:"last_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "push_subscriptions"
}

// Placeholder reports whether this row must never be dispatched to,
// covering both the explicit flag and rows written before it existed.
func (s *Subscription) Placeholder() bool {
	return s.IsPlaceholder || strings.Contains(s.Endpoint, LegacyEndpointMarker)
}

// SameRegistration reports whether an incoming registration is
// byte-identical to the stored one, in which case only LastActive is
// worth touching.
func (s *Subscription) SameRegistration(endpoint, p256dh, auth string) bool {
	return s.Endpoint == endpoint && s.P256dh == p256dh && s.Auth == auth
}
