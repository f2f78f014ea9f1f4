package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pushdomain "bobalove-backend/internal/push/domain"
	"bobalove-backend/pkg/fcm"
)

// fakeSubscriptionRepo is an in-memory SubscriptionRepository with
// injectable write failures.
type fakeSubscriptionRepo struct {
	subs     map[string]pushdomain.Subscription
	saveErr  error
	touchErr error

	created int
	deleted []string
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[string]pushdomain.Subscription)}
}

func (f *fakeSubscriptionRepo) Create(sub *pushdomain.Subscription) error {
	if sub.ID == "" {
		sub.ID = fmt.Sprintf("sub-%d", len(f.subs)+1)
	}
	if sub.LastActive.IsZero() {
		sub.LastActive = time.Now()
	}
	f.created++
	f.subs[sub.ID] = *sub
	return nil
}

func (f *fakeSubscriptionRepo) Save(sub *pushdomain.Subscription) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.subs[sub.ID] = *sub
	return nil
}

func (f *fakeSubscriptionRepo) TouchLastActive(id string, at time.Time) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	sub, ok := f.subs[id]
	if !ok {
		return nil
	}
	sub.LastActive = at
	f.subs[id] = sub
	return nil
}

func (f *fakeSubscriptionRepo) FindByUserAndEndpoint(userID, endpoint string) (*pushdomain.Subscription, error) {
	for _, sub := range f.subs {
		if sub.UserID == userID && sub.Endpoint == endpoint {
			found := sub
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeSubscriptionRepo) FindByUserID(userID string) ([]pushdomain.Subscription, error) {
	return f.FindByUserIDs([]string{userID})
}

func (f *fakeSubscriptionRepo) FindByUserIDs(userIDs []string) ([]pushdomain.Subscription, error) {
	var out []pushdomain.Subscription
	for _, sub := range f.subs {
		for _, id := range userIDs {
			if sub.UserID == id {
				out = append(out, sub)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) FindAll() ([]pushdomain.Subscription, error) {
	var out []pushdomain.Subscription
	for _, sub := range f.subs {
		out = append(out, sub)
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) Delete(id string) error {
	delete(f.subs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSubscriptionRepo) DeleteByUserAndEndpoint(userID, endpoint string) (int64, error) {
	for id, sub := range f.subs {
		if sub.UserID == userID && sub.Endpoint == endpoint {
			delete(f.subs, id)
			f.deleted = append(f.deleted, id)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeSubscriptionRepo) DeleteByIDs(ids []string) (int64, error) {
	var removed int64
	for _, id := range ids {
		if _, ok := f.subs[id]; ok {
			delete(f.subs, id)
			f.deleted = append(f.deleted, id)
			removed++
		}
	}
	return removed, nil
}

// fakeDeviceRepo is an in-memory DeviceRepository.
type fakeDeviceRepo struct {
	devices map[string]pushdomain.Device
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: make(map[string]pushdomain.Device)}
}

func (f *fakeDeviceRepo) Create(device *pushdomain.Device) error {
	if device.ID == "" {
		device.ID = fmt.Sprintf("dev-%d", len(f.devices)+1)
	}
	if device.LastActive.IsZero() {
		device.LastActive = time.Now()
	}
	f.devices[device.ID] = *device
	return nil
}

func (f *fakeDeviceRepo) Save(device *pushdomain.Device) error {
	f.devices[device.ID] = *device
	return nil
}

func (f *fakeDeviceRepo) TouchLastActive(id string, at time.Time) error {
	device, ok := f.devices[id]
	if !ok {
		return nil
	}
	device.LastActive = at
	f.devices[id] = device
	return nil
}

func (f *fakeDeviceRepo) FindByToken(token string) (*pushdomain.Device, error) {
	for _, device := range f.devices {
		if device.Token == token {
			found := device
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeDeviceRepo) FindByUserID(userID string) ([]pushdomain.Device, error) {
	return f.FindByUserIDs([]string{userID})
}

func (f *fakeDeviceRepo) FindByUserIDs(userIDs []string) ([]pushdomain.Device, error) {
	var out []pushdomain.Device
	for _, device := range f.devices {
		for _, id := range userIDs {
			if device.UserID == id {
				out = append(out, device)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeDeviceRepo) FindAll() ([]pushdomain.Device, error) {
	var out []pushdomain.Device
	for _, device := range f.devices {
		out = append(out, device)
	}
	return out, nil
}

func (f *fakeDeviceRepo) DeleteByToken(token string) (int64, error) {
	return f.DeleteByTokens([]string{token})
}

func (f *fakeDeviceRepo) DeleteByTokens(tokens []string) (int64, error) {
	var removed int64
	for id, device := range f.devices {
		for _, token := range tokens {
			if device.Token == token {
				delete(f.devices, id)
				removed++
				break
			}
		}
	}
	return removed, nil
}

func (f *fakeDeviceRepo) DeleteInactiveSince(cutoff time.Time) (int64, error) {
	var removed int64
	for id, device := range f.devices {
		if device.LastActive.Before(cutoff) {
			delete(f.devices, id)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeDeviceRepo) DeleteBlankTokens() (int64, error) {
	var removed int64
	for id, device := range f.devices {
		if device.Token == "" {
			delete(f.devices, id)
			removed++
		}
	}
	return removed, nil
}

// fakeWebPushSender scripts a status code or error per endpoint;
// unscripted endpoints succeed with 201.
type fakeWebPushSender struct {
	statuses map[string]int
	errs     map[string]error
	sent     []string
}

func newFakeWebPushSender() *fakeWebPushSender {
	return &fakeWebPushSender{
		statuses: make(map[string]int),
		errs:     make(map[string]error),
	}
}

func (f *fakeWebPushSender) Send(_ context.Context, endpoint, _, _ string, _ []byte) (int, error) {
	f.sent = append(f.sent, endpoint)
	if err, ok := f.errs[endpoint]; ok {
		return 0, err
	}
	if status, ok := f.statuses[endpoint]; ok {
		return status, nil
	}
	return 201, nil
}

// fakeFCMSender scripts failures per token: failN fails the first N
// attempts, alwaysFail never succeeds.
type fakeFCMSender struct {
	mu         sync.Mutex
	failN      map[string]int
	alwaysFail map[string]bool
	sent       []string
}

func newFakeFCMSender() *fakeFCMSender {
	return &fakeFCMSender{
		failN:      make(map[string]int),
		alwaysFail: make(map[string]bool),
	}
}

func (f *fakeFCMSender) SendToDevice(_ context.Context, token string, _ fcm.NotificationData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, token)
	if f.alwaysFail[token] {
		return errors.New("unavailable")
	}
	if n := f.failN[token]; n > 0 {
		f.failN[token] = n - 1
		return errors.New("unavailable")
	}
	return nil
}

func (f *fakeFCMSender) sentCount(token string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, t := range f.sent {
		if t == token {
			count++
		}
	}
	return count
}
