// Package fcm wraps Firebase Cloud Messaging for native device tokens.
package fcm

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Client wraps the Firebase messaging client. It is constructed once at
// startup and injected into the dispatcher; there is no package-level
// initialization state.
type Client struct {
	messagingClient *messaging.Client
}

// NewClient creates an FCM client from a service-account credentials
// file. With an empty path the SDK falls back to application-default
// credentials.
func NewClient(credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return newClient(opts...)
}

// NewClientFromJSON creates an FCM client from inline service-account
// JSON, for deployments that pass credentials through the environment
// instead of a mounted file.
func NewClientFromJSON(credentialsJSON []byte) (*Client, error) {
	return newClient(option.WithCredentialsJSON(credentialsJSON))
}

func newClient(opts ...option.ClientOption) (*Client, error) {
	ctx := context.Background()

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Println("[FCM] Client initialized successfully")
	return &Client{messagingClient: messagingClient}, nil
}

// NotificationData contains the data to send in a push notification.
type NotificationData struct {
	Title       string
	Body        string
	Icon        string
	ClickAction string            // URL to open when the notification is clicked
	Data        map[string]string // Custom data payload
}

// SendToDevice sends a push notification to a single device token.
func (c *Client) SendToDevice(ctx context.Context, token string, notification NotificationData) error {
	icon := notification.Icon
	if icon == "" {
		icon = "/icon-192.svg"
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data: notification.Data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: notification.Title,
				Body:  notification.Body,
				Icon:  icon,
			},
			FCMOptions: &messaging.WebpushFCMOptions{
				Link: notification.ClickAction,
			},
		},
	}

	if _, err := c.messagingClient.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}

// IsPermanentError reports whether the SDK classified the failure as a
// definitively invalid token, in which case retrying is pointless and
// the stored device should be removed.
func IsPermanentError(err error) bool {
	return messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err)
}
