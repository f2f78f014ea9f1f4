package usecase

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"bobalove-backend/internal/push/dto"
)

func validKeyPair() (p256dh, auth string) {
	p := make([]byte, 65)
	p[0] = 0x04
	for i := 1; i < len(p); i++ {
		p[i] = byte(i)
	}
	a := make([]byte, 16)
	return base64.RawURLEncoding.EncodeToString(p), base64.RawURLEncoding.EncodeToString(a)
}

func subscriptionJSON(endpoint, p256dh, auth string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"endpoint":%q,"expirationTime":null,"keys":{"p256dh":%q,"auth":%q}}`, endpoint, p256dh, auth))
}

func TestRegisterCreatesSubscription(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	uc := NewSubscriptionUsecase(repo)

	p256dh, auth := validKeyPair()
	sub, err := uc.Register("user-1", subscriptionJSON("https://push.example/abc", p256dh, auth), dto.DeviceInfo{Platform: "web"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if sub.Endpoint != "https://push.example/abc" {
		t.Fatalf("unexpected endpoint %q", sub.Endpoint)
	}
	if repo.created != 1 {
		t.Fatalf("expected 1 created record, got %d", repo.created)
	}
}

func TestRegisterAcceptsDoubleEncodedBody(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	uc := NewSubscriptionUsecase(repo)

	p256dh, auth := validKeyPair()
	inner := subscriptionJSON("https://push.example/str", p256dh, auth)
	raw, err := json.Marshal(string(inner))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	sub, err := uc.Register("user-1", raw, dto.DeviceInfo{})
	if err != nil {
		t.Fatalf("register with string body failed: %v", err)
	}
	if sub.Endpoint != "https://push.example/str" {
		t.Fatalf("unexpected endpoint %q", sub.Endpoint)
	}
}

func TestRegisterRejectsMalformedInput(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	uc := NewSubscriptionUsecase(repo)

	// 33-byte key: wrong length even though it is valid base64
	shortKey := base64.RawURLEncoding.EncodeToString(make([]byte, 33))
	_, auth := validKeyPair()

	cases := []json.RawMessage{
		json.RawMessage(`not json at all`),
		json.RawMessage(`{"endpoint":"","keys":{"p256dh":"x","auth":"y"}}`),
		subscriptionJSON("https://push.example/bad", shortKey, auth),
	}
	for i, raw := range cases {
		if _, err := uc.Register("user-1", raw, dto.DeviceInfo{}); !errors.Is(err, ErrInvalidSubscription) {
			t.Fatalf("case %d: expected ErrInvalidSubscription, got %v", i, err)
		}
	}
	if repo.created != 0 {
		t.Fatalf("nothing should be persisted for invalid input, got %d records", repo.created)
	}
}

func TestRegisterIdempotentTouch(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	uc := NewSubscriptionUsecase(repo)

	p256dh, auth := validKeyPair()
	raw := subscriptionJSON("https://push.example/same", p256dh, auth)

	first, err := uc.Register("user-1", raw, dto.DeviceInfo{Platform: "web"})
	if err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	firstActive := first.LastActive

	time.Sleep(5 * time.Millisecond)
	second, err := uc.Register("user-1", raw, dto.DeviceInfo{Platform: "web"})
	if err != nil {
		t.Fatalf("second register failed: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected the same record, got %s and %s", first.ID, second.ID)
	}
	if second.P256dh != first.P256dh || second.Auth != first.Auth {
		t.Fatalf("keys must not change on identical registration")
	}
	if !second.LastActive.After(firstActive) {
		t.Fatalf("LastActive should advance on re-registration")
	}
	if repo.created != 1 {
		t.Fatalf("second registration must not create a new record")
	}
}

func TestRegisterOverwritesChangedKeys(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	uc := NewSubscriptionUsecase(repo)

	p256dh, auth := validKeyPair()
	first, err := uc.Register("user-1", subscriptionJSON("https://push.example/rot", p256dh, auth), dto.DeviceInfo{})
	if err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	// Same endpoint, rotated keys
	rotated := make([]byte, 65)
	rotated[0] = 0x04
	rotated[1] = 0xFF
	newP256dh := base64.RawURLEncoding.EncodeToString(rotated)

	second, err := uc.Register("user-1", subscriptionJSON("https://push.example/rot", newP256dh, auth), dto.DeviceInfo{})
	if err != nil {
		t.Fatalf("second register failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("rotation must update in place, got new record %s", second.ID)
	}
	if second.P256dh != newP256dh {
		t.Fatalf("expected rotated key to be stored")
	}
}

func TestRegisterSaveFailureKeepsStoredRecord(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	uc := NewSubscriptionUsecase(repo)

	p256dh, auth := validKeyPair()
	first, err := uc.Register("user-1", subscriptionJSON("https://push.example/keep", p256dh, auth), dto.DeviceInfo{})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	repo.saveErr = errors.New("validation failed")
	rotated := base64.RawURLEncoding.EncodeToString(append([]byte{0x04}, make([]byte, 64)...))

	got, err := uc.Register("user-1", subscriptionJSON("https://push.example/keep", rotated, auth), dto.DeviceInfo{})
	if err != nil {
		t.Fatalf("degraded register must not error: %v", err)
	}
	if got.P256dh != first.P256dh {
		t.Fatalf("expected the stale stored keys back, got rotated ones")
	}

	stored := repo.subs[first.ID]
	if stored.P256dh != first.P256dh {
		t.Fatalf("stored record must be intact after failed save")
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("a failed save must never delete the record")
	}
}

func TestUnregister(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	uc := NewSubscriptionUsecase(repo)

	p256dh, auth := validKeyPair()
	raw := subscriptionJSON("https://push.example/gone", p256dh, auth)
	if _, err := uc.Register("user-1", raw, dto.DeviceInfo{}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	removed, err := uc.Unregister("user-1", raw)
	if err != nil {
		t.Fatalf("unregister failed: %v", err)
	}
	if !removed {
		t.Fatalf("expected a row to be removed")
	}

	removed, err = uc.Unregister("user-1", raw)
	if err != nil {
		t.Fatalf("second unregister must not error: %v", err)
	}
	if removed {
		t.Fatalf("nothing left to remove, expected false")
	}
}
