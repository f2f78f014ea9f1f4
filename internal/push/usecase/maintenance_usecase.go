package usecase

import (
	"fmt"
	"log"
	"time"

	pushdomain "bobalove-backend/internal/push/domain"
	"bobalove-backend/internal/push/repository"
	"bobalove-backend/pkg/webpush"

	"github.com/google/uuid"
)

// maintenanceUsecase implements MaintenanceUsecase. Every job is
// idempotent: a second run over the same data changes nothing.
type maintenanceUsecase struct {
	subRepo    repository.SubscriptionRepository
	deviceRepo repository.DeviceRepository
}

// NewMaintenanceUsecase creates a new instance of maintenanceUsecase
func NewMaintenanceUsecase(subRepo repository.SubscriptionRepository, deviceRepo repository.DeviceRepository) MaintenanceUsecase {
	return &maintenanceUsecase{
		subRepo:    subRepo,
		deviceRepo: deviceRepo,
	}
}

// FixSubscriptions re-validates the key material of every stored
// subscription. Invalid rows are deleted; if the owner still has a real
// device but no remaining valid subscription, a placeholder with
// freshly generated valid keys is created so downstream code that
// assumes "user has a subscription" keeps working until the client
// re-registers a real one.
func (u *maintenanceUsecase) FixSubscriptions() pushdomain.MaintenanceResult {
	stats := map[string]int{"scanned": 0, "invalid": 0, "deleted": 0, "regenerated": 0}

	subs, err := u.subRepo.FindAll()
	if err != nil {
		return failure("failed to load subscriptions", err, stats)
	}
	stats["scanned"] = len(subs)

	validOwners := make(map[string]bool)
	invalidByUser := make(map[string]bool)
	var invalidIDs []string

	for i := range subs {
		sub := &subs[i]
		if sub.Placeholder() {
			// Placeholders are handled by the sync job, not re-created here.
			validOwners[sub.UserID] = true
			continue
		}
		if webpush.IsValidSubscriptionKeys(sub.Endpoint, sub.P256dh, sub.Auth) {
			validOwners[sub.UserID] = true
			continue
		}
		stats["invalid"]++
		invalidIDs = append(invalidIDs, sub.ID)
		invalidByUser[sub.UserID] = true
	}

	if len(invalidIDs) > 0 {
		deleted, err := u.subRepo.DeleteByIDs(invalidIDs)
		if err != nil {
			return failure("failed to delete invalid subscriptions", err, stats)
		}
		stats["deleted"] = int(deleted)
	}

	for userID := range invalidByUser {
		if validOwners[userID] {
			continue
		}
		devices, err := u.deviceRepo.FindByUserID(userID)
		if err != nil {
			log.Printf("[Maintenance] Failed to load devices for user %s: %v", userID, err)
			continue
		}
		if !hasDispatchable(devices) {
			continue
		}

		p256dh, auth, err := webpush.GenerateSubscriptionKeys()
		if err != nil {
			log.Printf("[Maintenance] Failed to generate keys for user %s: %v", userID, err)
			continue
		}
		placeholder := &pushdomain.Subscription{
			UserID:        userID,
			Endpoint:      pushdomain.PlaceholderEndpointPrefix + uuid.New().String(),
			P256dh:        p256dh,
			Auth:          auth,
			IsPlaceholder: true,
			LastActive:    time.Now(),
		}
		if err := u.subRepo.Create(placeholder); err != nil {
			log.Printf("[Maintenance] Failed to create placeholder for user %s: %v", userID, err)
			continue
		}
		stats["regenerated"]++
	}

	msg := fmt.Sprintf("scanned %d subscriptions, deleted %d invalid, regenerated %d", stats["scanned"], stats["deleted"], stats["regenerated"])
	log.Printf("[Maintenance] fixSubscriptions: %s", msg)
	return pushdomain.MaintenanceResult{Success: true, Message: msg, Stats: stats}
}

// SyncDevicesWithSubscriptions cross-references the two collections and
// removes subscriptions that are placeholders (explicit flag or legacy
// naming pattern) - they were never real delivery targets.
func (u *maintenanceUsecase) SyncDevicesWithSubscriptions() pushdomain.MaintenanceResult {
	stats := map[string]int{"devices": 0, "users": 0, "existingSubscriptions": 0, "removedSubscriptions": 0}

	devices, err := u.deviceRepo.FindAll()
	if err != nil {
		return failure("failed to load devices", err, stats)
	}
	stats["devices"] = len(devices)

	users := make(map[string]bool)
	for i := range devices {
		users[devices[i].UserID] = true
	}
	stats["users"] = len(users)

	subs, err := u.subRepo.FindAll()
	if err != nil {
		return failure("failed to load subscriptions", err, stats)
	}
	stats["existingSubscriptions"] = len(subs)

	var placeholderIDs []string
	for i := range subs {
		if subs[i].Placeholder() {
			placeholderIDs = append(placeholderIDs, subs[i].ID)
		}
	}
	if len(placeholderIDs) > 0 {
		removed, err := u.subRepo.DeleteByIDs(placeholderIDs)
		if err != nil {
			return failure("failed to delete placeholder subscriptions", err, stats)
		}
		stats["removedSubscriptions"] = int(removed)
	}

	msg := fmt.Sprintf("%d devices across %d users, removed %d placeholder subscriptions", stats["devices"], stats["users"], stats["removedSubscriptions"])
	log.Printf("[Maintenance] syncDevicesWithSubscriptions: %s", msg)
	return pushdomain.MaintenanceResult{Success: true, Message: msg, Stats: stats}
}

// CleanupExpiredDevices enforces the device token TTL and removes rows
// that can never be dispatched to.
func (u *maintenanceUsecase) CleanupExpiredDevices() pushdomain.MaintenanceResult {
	stats := map[string]int{"expired": 0, "blank": 0, "placeholders": 0}

	blank, err := u.deviceRepo.DeleteBlankTokens()
	if err != nil {
		return failure("failed to delete blank tokens", err, stats)
	}
	stats["blank"] = int(blank)

	cutoff := time.Now().Add(-pushdomain.DeviceTokenTTL)
	expired, err := u.deviceRepo.DeleteInactiveSince(cutoff)
	if err != nil {
		return failure("failed to delete expired devices", err, stats)
	}
	stats["expired"] = int(expired)

	devices, err := u.deviceRepo.FindAll()
	if err != nil {
		return failure("failed to load devices", err, stats)
	}
	var placeholderTokens []string
	for i := range devices {
		if devices[i].Placeholder() {
			placeholderTokens = append(placeholderTokens, devices[i].Token)
		}
	}
	if len(placeholderTokens) > 0 {
		removed, err := u.deviceRepo.DeleteByTokens(placeholderTokens)
		if err != nil {
			return failure("failed to delete placeholder devices", err, stats)
		}
		stats["placeholders"] = int(removed)
	}

	msg := fmt.Sprintf("removed %d expired, %d blank, %d placeholder devices", stats["expired"], stats["blank"], stats["placeholders"])
	log.Printf("[Maintenance] cleanupExpiredDevices: %s", msg)
	return pushdomain.MaintenanceResult{Success: true, Message: msg, Stats: stats}
}

func hasDispatchable(devices []pushdomain.Device) bool {
	for i := range devices {
		if devices[i].Dispatchable() {
			return true
		}
	}
	return false
}

func failure(msg string, err error, stats map[string]int) pushdomain.MaintenanceResult {
	log.Printf("[Maintenance] %s: %v", msg, err)
	return pushdomain.MaintenanceResult{
		Success: false,
		Message: fmt.Sprintf("%s: %v", msg, err),
		Stats:   stats,
	}
}
