package usecase

import (
	"log"
	"strings"
	"time"

	pushdomain "bobalove-backend/internal/push/domain"
	"bobalove-backend/internal/push/dto"
	"bobalove-backend/internal/push/repository"
)

// deviceUsecase implements DeviceUsecase
type deviceUsecase struct {
	deviceRepo repository.DeviceRepository
}

// NewDeviceUsecase creates a new instance of deviceUsecase
func NewDeviceUsecase(deviceRepo repository.DeviceRepository) DeviceUsecase {
	return &deviceUsecase{
		deviceRepo: deviceRepo,
	}
}

// Register stores or refreshes an FCM token. Tokens are globally
// unique; a duplicate registration by a different user only takes the
// token over when the previous owner has been inactive long enough
// (same physical device, new account).
func (u *deviceUsecase) Register(userID string, req dto.RegisterDeviceRequest) (*pushdomain.Device, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" || strings.HasPrefix(token, pushdomain.LegacyTokenPrefix) {
		return nil, ErrInvalidDeviceToken
	}

	platform := req.Platform
	if !pushdomain.ValidPlatform(platform) {
		platform = pushdomain.PlatformWeb
	}

	existing, err := u.deviceRepo.FindByToken(token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if existing == nil {
		device := &pushdomain.Device{
			UserID:     userID,
			Token:      token,
			Platform:   platform,
			DeviceName: req.DeviceName,
			LastActive: now,
		}
		if err := u.deviceRepo.Create(device); err != nil {
			return nil, err
		}
		log.Printf("[PUSH] Registered new %s device for user %s", platform, userID)
		return device, nil
	}

	if existing.UserID == userID {
		existing.Platform = platform
		if req.DeviceName != "" {
			existing.DeviceName = req.DeviceName
		}
		existing.LastActive = now
		if err := u.deviceRepo.Save(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	if now.Sub(existing.LastActive) < pushdomain.TokenTransferAfter {
		return nil, ErrTokenInUse
	}

	log.Printf("[PUSH] Transferring device token from inactive user %s to %s", existing.UserID, userID)
	existing.UserID = userID
	existing.Platform = platform
	existing.DeviceName = req.DeviceName
	existing.IsPlaceholder = false
	existing.LastActive = now
	if err := u.deviceRepo.Save(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Unregister deletes the caller's device by token. Tokens owned by
// other users are left alone.
func (u *deviceUsecase) Unregister(userID, token string) (bool, error) {
	existing, err := u.deviceRepo.FindByToken(token)
	if err != nil {
		return false, err
	}
	if existing == nil || existing.UserID != userID {
		return false, nil
	}

	removed, err := u.deviceRepo.DeleteByToken(token)
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}
