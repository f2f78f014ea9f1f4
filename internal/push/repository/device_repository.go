package repository

import (
	"errors"
	"time"

	pushdomain "bobalove-backend/internal/push/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceRepository defines the store operations for FCM device tokens.
type DeviceRepository interface {
	Create(device *pushdomain.Device) error
	Save(device *pushdomain.Device) error
	TouchLastActive(id string, at time.Time) error
	FindByToken(token string) (*pushdomain.Device, error)
	FindByUserID(userID string) ([]pushdomain.Device, error)
	FindByUserIDs(userIDs []string) ([]pushdomain.Device, error)
	FindAll() ([]pushdomain.Device, error)
	DeleteByToken(token string) (int64, error)
	DeleteByTokens(tokens []string) (int64, error)
	DeleteInactiveSince(cutoff time.Time) (int64, error)
	DeleteBlankTokens() (int64, error)
}

// deviceRepository implements DeviceRepository on gorm
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new instance of deviceRepository
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{
		db: db,
	}
}

func (r *deviceRepository) Create(device *pushdomain.Device) error {
	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now
	if device.LastActive.IsZero() {
		device.LastActive = now
	}
	return r.db.Create(device).Error
}

func (r *deviceRepository) Save(device *pushdomain.Device) error {
	device.UpdatedAt = time.Now()
	return r.db.Save(device).Error
}

func (r *deviceRepository) TouchLastActive(id string, at time.Time) error {
	return r.db.Model(&pushdomain.Device{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_active": at, "updated_at": at}).Error
}

func (r *deviceRepository) FindByToken(token string) (*pushdomain.Device, error) {
	var device pushdomain.Device
	err := r.db.Where("token = ?", token).First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepository) FindByUserID(userID string) ([]pushdomain.Device, error) {
	var devices []pushdomain.Device
	if err := r.db.Where("user_id = ?", userID).Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *deviceRepository) FindByUserIDs(userIDs []string) ([]pushdomain.Device, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var devices []pushdomain.Device
	if err := r.db.Where("user_id IN ?", userIDs).Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *deviceRepository) FindAll() ([]pushdomain.Device, error) {
	var devices []pushdomain.Device
	if err := r.db.Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *deviceRepository) DeleteByToken(token string) (int64, error) {
	result := r.db.Where("token = ?", token).Delete(&pushdomain.Device{})
	return result.RowsAffected, result.Error
}

func (r *deviceRepository) DeleteByTokens(tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	result := r.db.Where("token IN ?", tokens).Delete(&pushdomain.Device{})
	return result.RowsAffected, result.Error
}

// DeleteInactiveSince removes devices whose last activity predates the
// cutoff. Used by maintenance to enforce the token TTL.
func (r *deviceRepository) DeleteInactiveSince(cutoff time.Time) (int64, error) {
	result := r.db.Where("last_active < ?", cutoff).Delete(&pushdomain.Device{})
	return result.RowsAffected, result.Error
}

func (r *deviceRepository) DeleteBlankTokens() (int64, error) {
	result := r.db.Where("token = ''").Delete(&pushdomain.Device{})
	return result.RowsAffected, result.Error
}
