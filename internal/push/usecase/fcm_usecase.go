package usecase

import (
	"context"
	"log"
	"time"

	pushdomain "bobalove-backend/internal/push/domain"
	"bobalove-backend/internal/push/repository"
	"bobalove-backend/pkg/fcm"
)

// fcmUsecase implements FCMUsecase. The client is injected once at
// startup; a nil sender together with skip=false means FCM is simply
// unavailable and every dispatch reports zero deliveries.
type fcmUsecase struct {
	deviceRepo repository.DeviceRepository
	sender     FCMSender
	skip       bool

	maxRetries   int
	retryBackoff time.Duration
	batchSize    int
	batchPause   time.Duration
}

// NewFCMUsecase creates a new instance of fcmUsecase. With skip set,
// sends are simulated and reported successful without a network call.
func NewFCMUsecase(deviceRepo repository.DeviceRepository, sender FCMSender, skip bool) FCMUsecase {
	return &fcmUsecase{
		deviceRepo:   deviceRepo,
		sender:       sender,
		skip:         skip,
		maxRetries:   2,
		retryBackoff: time.Second,
		batchSize:    500,
		batchPause:   2 * time.Second,
	}
}

func (u *fcmUsecase) SendToUser(ctx context.Context, userID string, payload pushdomain.NotificationPayload) pushdomain.DispatchResult {
	devices, err := u.deviceRepo.FindByUserID(userID)
	if err != nil {
		log.Printf("[FCM] Failed to load devices for user %s: %v", userID, err)
		return pushdomain.DispatchResult{}
	}
	return u.dispatch(ctx, devices, payload)
}

func (u *fcmUsecase) SendToUsers(ctx context.Context, userIDs []string, payload pushdomain.NotificationPayload) pushdomain.DispatchResult {
	devices, err := u.deviceRepo.FindByUserIDs(userIDs)
	if err != nil {
		log.Printf("[FCM] Failed to load devices for %d users: %v", len(userIDs), err)
		return pushdomain.DispatchResult{}
	}
	return u.dispatch(ctx, devices, payload)
}

// SendToAll broadcasts to every registered device, in batches with a
// pause between them to respect FCM rate limits.
func (u *fcmUsecase) SendToAll(ctx context.Context, payload pushdomain.NotificationPayload) pushdomain.DispatchResult {
	devices, err := u.deviceRepo.FindAll()
	if err != nil {
		log.Printf("[FCM] Failed to load devices for broadcast: %v", err)
		return pushdomain.DispatchResult{}
	}

	real, skipped := partitionDispatchable(devices)
	result := pushdomain.DispatchResult{Skipped: skipped}

	for start := 0; start < len(real); start += u.batchSize {
		end := start + u.batchSize
		if end > len(real) {
			end = len(real)
		}

		if start > 0 {
			if !sleepCtx(ctx, u.batchPause) {
				log.Printf("[FCM] Broadcast cancelled after %d devices", start)
				return result
			}
		}

		batch := u.dispatch(ctx, real[start:end], payload)
		result.Add(batch)
		log.Printf("[FCM] Broadcast batch %d-%d: %d delivered, %d failed", start, end, batch.Delivered, batch.Failed)
	}

	return result
}

// dispatch sends to each dispatchable device sequentially, retrying
// transient failures per token with linear backoff. Tokens that still
// fail after the retries are removed in bulk; the messaging SDK's own
// error classification already separates definitively-dead tokens, so
// those skip the pointless retries.
func (u *fcmUsecase) dispatch(ctx context.Context, devices []pushdomain.Device, payload pushdomain.NotificationPayload) pushdomain.DispatchResult {
	var result pushdomain.DispatchResult
	if len(devices) == 0 {
		return result
	}

	real, skipped := partitionDispatchable(devices)
	result.Skipped = skipped
	if len(real) == 0 {
		// Only placeholders: nothing to send, and nothing failed. The
		// Accepted() result keeps callers from reporting a spurious
		// error over rows that were never real targets.
		return result
	}

	if u.skip {
		log.Printf("[FCM] Skip mode: simulating %d successful sends", len(real))
		result.Delivered = len(real)
		return result
	}
	if u.sender == nil {
		log.Printf("[FCM] Client not configured, %d sends dropped", len(real))
		result.Failed = len(real)
		return result
	}

	data := toFCMNotification(payload)
	now := time.Now()
	var deadTokens []string

	for i := range real {
		device := &real[i]
		if u.sendWithRetry(ctx, device.Token, data) {
			result.Delivered++
			if err := u.deviceRepo.TouchLastActive(device.ID, now); err != nil {
				log.Printf("[FCM] Failed to touch device %s: %v", device.ID, err)
			}
		} else {
			result.Failed++
			deadTokens = append(deadTokens, device.Token)
		}
	}

	if len(deadTokens) > 0 {
		removed, err := u.deviceRepo.DeleteByTokens(deadTokens)
		if err != nil {
			log.Printf("[FCM] Failed to delete %d dead tokens: %v", len(deadTokens), err)
		} else {
			log.Printf("[FCM] Removed %d tokens that failed delivery", removed)
		}
	}

	return result
}

func (u *fcmUsecase) sendWithRetry(ctx context.Context, token string, data fcm.NotificationData) bool {
	attempts := u.maxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		err := u.sender.SendToDevice(ctx, token, data)
		if err == nil {
			return true
		}

		log.Printf("[FCM] Send attempt %d/%d failed for token %s: %v", attempt, attempts, truncateToken(token), err)
		if fcm.IsPermanentError(err) {
			return false
		}
		if attempt < attempts {
			if !sleepCtx(ctx, u.retryBackoff*time.Duration(attempt)) {
				return false
			}
		}
	}
	return false
}

func toFCMNotification(payload pushdomain.NotificationPayload) fcm.NotificationData {
	payload = payload.Normalized()

	data := make(map[string]string, len(payload.Data)+2)
	for k, v := range payload.Data {
		data[k] = v
	}
	if payload.Type != "" {
		data["type"] = payload.Type
	}
	if payload.URL != "" {
		data["url"] = payload.URL
	}

	return fcm.NotificationData{
		Title:       payload.Title,
		Body:        payload.Body,
		Icon:        payload.Icon,
		ClickAction: payload.URL,
		Data:        data,
	}
}

func partitionDispatchable(devices []pushdomain.Device) (real []pushdomain.Device, skipped int) {
	for _, d := range devices {
		if d.Dispatchable() {
			real = append(real, d)
		} else {
			skipped++
		}
	}
	return real, skipped
}

// sleepCtx waits for d or until the context is cancelled. Returns
// false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func truncateToken(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}
