package repository

import (
	"errors"
	"time"

	pushdomain "bobalove-backend/internal/push/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionRepository defines the store operations for Web Push
// subscriptions. All lookups that can miss return (nil, nil).
type SubscriptionRepository interface {
	Create(sub *pushdomain.Subscription) error
	Save(sub *pushdomain.Subscription) error
	TouchLastActive(id string, at time.Time) error
	FindByUserAndEndpoint(userID, endpoint string) (*pushdomain.Subscription, error)
	FindByUserID(userID string) ([]pushdomain.Subscription, error)
	FindByUserIDs(userIDs []string) ([]pushdomain.Subscription, error)
	FindAll() ([]pushdomain.Subscription, error)
	Delete(id string) error
	DeleteByUserAndEndpoint(userID, endpoint string) (int64, error)
	DeleteByIDs(ids []string) (int64, error)
}

// subscriptionRepository implements SubscriptionRepository on gorm
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new instance of subscriptionRepository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{
		db: db,
	}
}

func (r *subscriptionRepository) Create(sub *pushdomain.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if sub.LastActive.IsZero() {
		sub.LastActive = now
	}
	return r.db.Create(sub).Error
}

func (r *subscriptionRepository) Save(sub *pushdomain.Subscription) error {
	sub.UpdatedAt = time.Now()
	return r.db.Save(sub).Error
}

// TouchLastActive updates only the activity timestamp, leaving the key
// material untouched. The reconciler falls back to this write when a
// full save fails.
func (r *subscriptionRepository) TouchLastActive(id string, at time.Time) error {
	return r.db.Model(&pushdomain.Subscription{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_active": at, "updated_at": at}).Error
}

func (r *subscriptionRepository) FindByUserAndEndpoint(userID, endpoint string) (*pushdomain.Subscription, error) {
	var sub pushdomain.Subscription
	err := r.db.Where("user_id = ? AND endpoint = ?", userID, endpoint).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindByUserID(userID string) ([]pushdomain.Subscription, error) {
	var subs []pushdomain.Subscription
	if err := r.db.Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepository) FindByUserIDs(userIDs []string) ([]pushdomain.Subscription, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var subs []pushdomain.Subscription
	if err := r.db.Where("user_id IN ?", userIDs).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepository) FindAll() ([]pushdomain.Subscription, error) {
	var subs []pushdomain.Subscription
	if err := r.db.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&pushdomain.Subscription{}).Error
}

func (r *subscriptionRepository) DeleteByUserAndEndpoint(userID, endpoint string) (int64, error) {
	result := r.db.Where("user_id = ? AND endpoint = ?", userID, endpoint).Delete(&pushdomain.Subscription{})
	return result.RowsAffected, result.Error
}

func (r *subscriptionRepository) DeleteByIDs(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("id IN ?", ids).Delete(&pushdomain.Subscription{})
	return result.RowsAffected, result.Error
}
