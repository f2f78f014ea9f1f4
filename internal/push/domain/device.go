package domain

import (
	"strings"
	"time"
)

// LegacyTokenPrefix marks FCM tokens synthesized by the old
// auto-provisioning logic. See LegacyEndpointMarker.
const LegacyTokenPrefix = "auto_"

// DeviceTokenTTL is how long a device may stay inactive before
// maintenance deletes it.
const DeviceTokenTTL = 90 * 24 * time.Hour

// TokenTransferAfter is the inactivity window after which a duplicate
// token registration by a different user takes ownership of the token.
const TokenTransferAfter = 14 * 24 * time.Hour

const (
	PlatformWeb     = "web"
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformDesktop = "desktop"
)

// Device is a native FCM registration. Tokens are globally unique: the
// same physical device re-registering under a new account conflicts on
// token, which the repository resolves via the transfer rule above.
type Device struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"index;not null"`
	Token         string    `json:"-" gorm:"uniqueIndex;not null"`
	Platform      string    `json:"platform"`
	DeviceName    string    `json:"device_name"`
	IsPlaceholder bool      `json:"is_placeholder" gorm:"default:false"`
	LastActive    time.Time `json:"last_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Device) TableName() string {
	return "devices"
}

// Placeholder reports whether this device must never be dispatched to.
func (d *Device) Placeholder() bool {
	return d.IsPlaceholder || strings.HasPrefix(d.Token, LegacyTokenPrefix)
}

// Dispatchable reports whether the device is a real delivery target.
func (d *Device) Dispatchable() bool {
	return d.Token != "" && !d.Placeholder()
}

// Expired reports whether the device has been inactive past the TTL.
func (d *Device) Expired(now time.Time) bool {
	return now.Sub(d.LastActive) > DeviceTokenTTL
}

// ValidPlatform reports whether p is one of the known platform values.
func ValidPlatform(p string) bool {
	switch p {
	case PlatformWeb, PlatformAndroid, PlatformIOS, PlatformDesktop:
		return true
	}
	return false
}
