package usecase

import (
	"encoding/json"
	"log"
	"time"

	pushdomain "bobalove-backend/internal/push/domain"
	"bobalove-backend/internal/push/dto"
	"bobalove-backend/internal/push/repository"
	"bobalove-backend/pkg/webpush"
)

// subscriptionUsecase implements SubscriptionUsecase
type subscriptionUsecase struct {
	subRepo repository.SubscriptionRepository
}

// NewSubscriptionUsecase creates a new instance of subscriptionUsecase
func NewSubscriptionUsecase(subRepo repository.SubscriptionRepository) SubscriptionUsecase {
	return &subscriptionUsecase{
		subRepo: subRepo,
	}
}

// Register reconciles an incoming registration with the store. It is
// called on every page load / service-worker activation, so the common
// nothing-changed case must be a cheap timestamp touch, and a transient
// persistence error must never destroy a working subscription.
func (u *subscriptionUsecase) Register(userID string, raw json.RawMessage, info dto.DeviceInfo) (*pushdomain.Subscription, error) {
	payload, err := dto.ParseSubscription(raw)
	if err != nil {
		return nil, ErrInvalidSubscription
	}
	if !webpush.IsValidSubscriptionKeys(payload.Endpoint, payload.Keys.P256dh, payload.Keys.Auth) {
		log.Printf("[PUSH] Rejecting registration with malformed keys for user %s", userID)
		return nil, ErrInvalidSubscription
	}

	// Push services require base64url on the wire; persist canonically.
	p256dh := webpush.NormalizeKey(payload.Keys.P256dh)
	auth := webpush.NormalizeKey(payload.Keys.Auth)

	existing, err := u.subRepo.FindByUserAndEndpoint(userID, payload.Endpoint)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if existing == nil {
		sub := &pushdomain.Subscription{
			UserID:         userID,
			Endpoint:       payload.Endpoint,
			ExpirationTime: payload.Expiration(),
			P256dh:         p256dh,
			Auth:           auth,
			Platform:       info.Platform,
			DeviceName:     info.DeviceName,
			LastActive:     now,
		}
		if err := u.subRepo.Create(sub); err != nil {
			return nil, err
		}
		log.Printf("[PUSH] Registered new subscription for user %s", userID)
		return sub, nil
	}

	stale := *existing

	if existing.SameRegistration(payload.Endpoint, p256dh, auth) {
		// Identical material: touch only, do not rewrite keys.
		existing.LastActive = now
		if info.Platform != "" {
			existing.Platform = info.Platform
		}
		if info.DeviceName != "" {
			existing.DeviceName = info.DeviceName
		}
		if err := u.subRepo.Save(existing); err != nil {
			return u.degradeToTouch(&stale, now, err)
		}
		return existing, nil
	}

	existing.P256dh = p256dh
	existing.Auth = auth
	existing.ExpirationTime = payload.Expiration()
	existing.Platform = info.Platform
	existing.DeviceName = info.DeviceName
	existing.IsPlaceholder = false
	existing.LastActive = now
	if err := u.subRepo.Save(existing); err != nil {
		return u.degradeToTouch(&stale, now, err)
	}
	log.Printf("[PUSH] Updated subscription keys for user %s", userID)
	return existing, nil
}

// degradeToTouch handles a failed update save: the stored record is
// left intact, a smaller timestamp-only write is attempted, and the
// stale-but-working record is returned to the caller.
func (u *subscriptionUsecase) degradeToTouch(stale *pushdomain.Subscription, now time.Time, saveErr error) (*pushdomain.Subscription, error) {
	log.Printf("[PUSH] Save failed for subscription %s, keeping stored record: %v", stale.ID, saveErr)
	if err := u.subRepo.TouchLastActive(stale.ID, now); err != nil {
		log.Printf("[PUSH] Touch also failed for subscription %s: %v", stale.ID, err)
		return stale, nil
	}
	stale.LastActive = now
	return stale, nil
}

// Unregister deletes the subscription matching the body's endpoint and
// reports whether a row was removed. A miss is not an error.
func (u *subscriptionUsecase) Unregister(userID string, raw json.RawMessage) (bool, error) {
	payload, err := dto.ParseSubscription(raw)
	if err != nil || payload.Endpoint == "" {
		return false, ErrInvalidSubscription
	}

	removed, err := u.subRepo.DeleteByUserAndEndpoint(userID, payload.Endpoint)
	if err != nil {
		return false, err
	}
	if removed > 0 {
		log.Printf("[PUSH] Unregistered subscription for user %s", userID)
	}
	return removed > 0, nil
}
