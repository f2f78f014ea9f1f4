package webpush

import (
	"context"
	"fmt"
	"log"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Client sends Web Push messages signed with one VAPID key pair. It is
// constructed once at startup and injected into the dispatcher.
type Client struct {
	publicKey  string
	privateKey string
	subject    string
	ttl        int
}

// NewClient creates a Web Push client. The subject is the mailto: or
// https: URI identifying this server to push services.
func NewClient(publicKey, privateKey, subject string) *Client {
	return &Client{
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
		ttl:        60,
	}
}

// GenerateVAPIDKeys produces a new VAPID key pair for deployments that
// have not configured one yet.
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}

// PublicKey returns the VAPID public key clients subscribe with.
func (c *Client) PublicKey() string {
	return c.publicKey
}

// Send encrypts payload against the subscription's keys and posts it to
// the push service. It returns the push service's HTTP status code; a
// non-nil error means the request itself failed (network, encryption),
// not that the push service rejected the subscription.
func (c *Client) Send(ctx context.Context, endpoint, p256dh, auth string, payload []byte) (int, error) {
	sub := &webpush.Subscription{
		Endpoint: endpoint,
		Keys: webpush.Keys{
			P256dh: p256dh,
			Auth:   auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
		Subscriber:      c.subject,
		VAPIDPublicKey:  c.publicKey,
		VAPIDPrivateKey: c.privateKey,
		TTL:             c.ttl,
	})
	if err != nil {
		return 0, fmt.Errorf("web push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("[PUSH] Push service returned %d for endpoint %s", resp.StatusCode, truncate(endpoint, 60))
	}
	return resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
