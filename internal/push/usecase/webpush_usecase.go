package usecase

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	pushdomain "bobalove-backend/internal/push/domain"
	"bobalove-backend/internal/push/repository"
)

// webPushUsecase implements WebPushUsecase
type webPushUsecase struct {
	subRepo repository.SubscriptionRepository
	sender  WebPushSender
}

// NewWebPushUsecase creates a new instance of webPushUsecase
func NewWebPushUsecase(subRepo repository.SubscriptionRepository, sender WebPushSender) WebPushUsecase {
	return &webPushUsecase{
		subRepo: subRepo,
		sender:  sender,
	}
}

func (u *webPushUsecase) SendToUser(ctx context.Context, userID string, payload pushdomain.NotificationPayload) pushdomain.DispatchResult {
	subs, err := u.subRepo.FindByUserID(userID)
	if err != nil {
		log.Printf("[PUSH] Failed to load subscriptions for user %s: %v", userID, err)
		return pushdomain.DispatchResult{}
	}
	return u.dispatch(ctx, subs, payload)
}

func (u *webPushUsecase) SendToUsers(ctx context.Context, userIDs []string, payload pushdomain.NotificationPayload) pushdomain.DispatchResult {
	subs, err := u.subRepo.FindByUserIDs(userIDs)
	if err != nil {
		log.Printf("[PUSH] Failed to load subscriptions for %d users: %v", len(userIDs), err)
		return pushdomain.DispatchResult{}
	}
	return u.dispatch(ctx, subs, payload)
}

// dispatch sends one encrypted payload to every subscription. Failure
// classification is the crux: only a definitive "gone" from the push
// service (404/410) deletes a subscription. Anything else - network
// errors, 5xx, a misconfigured VAPID key - is transient and keeps the
// row, otherwise a temporary outage would mass-delete healthy
// subscriptions.
func (u *webPushUsecase) dispatch(ctx context.Context, subs []pushdomain.Subscription, payload pushdomain.NotificationPayload) pushdomain.DispatchResult {
	var result pushdomain.DispatchResult
	if len(subs) == 0 {
		return result
	}

	body, err := json.Marshal(payload.Normalized())
	if err != nil {
		log.Printf("[PUSH] Failed to marshal payload: %v", err)
		result.Failed = len(subs)
		return result
	}

	now := time.Now()
	for i := range subs {
		sub := &subs[i]

		if sub.Placeholder() {
			// Legacy auto-provisioned rows are not delivery targets;
			// clean them up as we encounter them.
			if err := u.subRepo.Delete(sub.ID); err != nil {
				log.Printf("[PUSH] Failed to delete placeholder subscription %s: %v", sub.ID, err)
			}
			result.Skipped++
			continue
		}

		if sub.Endpoint == "" || sub.P256dh == "" || sub.Auth == "" {
			// Malformed with ambiguous cause; left for the repair job.
			result.Failed++
			continue
		}

		status, err := u.sender.Send(ctx, sub.Endpoint, sub.P256dh, sub.Auth, body)
		if err != nil {
			log.Printf("[PUSH] Transient delivery failure for subscription %s: %v", sub.ID, err)
			result.Failed++
			continue
		}

		switch {
		case status == http.StatusNotFound || status == http.StatusGone:
			log.Printf("[PUSH] Push service reported subscription %s gone (%d), deleting", sub.ID, status)
			if err := u.subRepo.Delete(sub.ID); err != nil {
				log.Printf("[PUSH] Failed to delete dead subscription %s: %v", sub.ID, err)
			}
			result.Failed++
		case status >= 400:
			log.Printf("[PUSH] Push service returned %d for subscription %s, keeping", status, sub.ID)
			result.Failed++
		default:
			result.Delivered++
			if err := u.subRepo.TouchLastActive(sub.ID, now); err != nil {
				log.Printf("[PUSH] Failed to touch subscription %s: %v", sub.ID, err)
			}
		}
	}

	log.Printf("[PUSH] Web push dispatch: %d delivered, %d skipped, %d failed", result.Delivered, result.Skipped, result.Failed)
	return result
}
