package dto

import (
	"encoding/json"
	"testing"

	pushdomain "bobalove-backend/internal/push/domain"
)

func TestParseSubscriptionObject(t *testing.T) {
	raw := json.RawMessage(`{"endpoint":"https://push.example/e","expirationTime":null,"keys":{"p256dh":"pk","auth":"ak"}}`)

	payload, err := ParseSubscription(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if payload.Endpoint != "https://push.example/e" || payload.Keys.P256dh != "pk" || payload.Keys.Auth != "ak" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Expiration() != nil {
		t.Fatalf("null expirationTime must map to nil")
	}
}

func TestParseSubscriptionDoubleEncoded(t *testing.T) {
	inner := `{"endpoint":"https://push.example/e","keys":{"p256dh":"pk","auth":"ak"}}`
	raw, err := json.Marshal(inner)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	payload, err := ParseSubscription(raw)
	if err != nil {
		t.Fatalf("parse of string body failed: %v", err)
	}
	if payload.Endpoint != "https://push.example/e" {
		t.Fatalf("unexpected endpoint %q", payload.Endpoint)
	}
}

func TestParseSubscriptionExpiration(t *testing.T) {
	raw := json.RawMessage(`{"endpoint":"https://push.example/e","expirationTime":1756600000000,"keys":{"p256dh":"pk","auth":"ak"}}`)

	payload, err := ParseSubscription(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	exp := payload.Expiration()
	if exp == nil {
		t.Fatalf("expected an expiration time")
	}
	if exp.UnixMilli() != 1756600000000 {
		t.Fatalf("unexpected expiration %v", exp)
	}
}

func TestParseSubscriptionRejectsGarbage(t *testing.T) {
	cases := []json.RawMessage{
		nil,
		json.RawMessage(``),
		json.RawMessage(`not json`),
		json.RawMessage(`"also not json inside"`),
		json.RawMessage(`42`),
	}
	for i, raw := range cases {
		if _, err := ParseSubscription(raw); err == nil {
			t.Fatalf("case %d: expected an error", i)
		}
	}
}

func TestToPayloadFallbackChain(t *testing.T) {
	cases := []struct {
		name string
		req  NotificationRequest
		want string
	}{
		{"body wins", NotificationRequest{Body: "b", Text: "t", Message: "m", Content: "c"}, "b"},
		{"text second", NotificationRequest{Text: "t", Message: "m", Content: "c"}, "t"},
		{"message third", NotificationRequest{Message: "m", Content: "c"}, "m"},
		{"content last", NotificationRequest{Content: "c"}, "c"},
		{"all empty defaults", NotificationRequest{}, pushdomain.DefaultBody},
	}
	for _, tc := range cases {
		payload := tc.req.ToPayload()
		if payload.Body != tc.want {
			t.Fatalf("%s: got body %q, want %q", tc.name, payload.Body, tc.want)
		}
	}
}

func TestToPayloadNormalizes(t *testing.T) {
	payload := (&NotificationRequest{
		Body:   "you have a new like",
		LinkTo: "/likes",
		Type:   "like",
	}).ToPayload()

	if payload.Title != pushdomain.DefaultTitle {
		t.Fatalf("missing title must default, got %q", payload.Title)
	}
	if payload.URL != "/likes" || payload.Type != "like" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.CreatedAt.IsZero() {
		t.Fatalf("normalization must stamp CreatedAt")
	}
}
