package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"bobalove-backend/internal/push/dto"
	"bobalove-backend/internal/push/usecase"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// PushEvent is what the rest of the BobaLove platform publishes when
// something notification-worthy happens (new match, new message, like).
type PushEvent struct {
	EventID      string                  `json:"event_id"`
	UserID       string                  `json:"user_id"`
	UserIDs      []string                `json:"user_ids"`
	Broadcast    bool                    `json:"broadcast"`
	Notification dto.NotificationRequest `json:"notification"`
}

// Service consumes platform events from Pub/Sub and forwards them to
// both dispatchers.
type Service struct {
	pubsubClient *pubsub.Client
	webPush      usecase.WebPushUsecase
	fcm          usecase.FCMUsecase
	topicName    string
	subName      string

	// Deduplication: Pub/Sub is at-least-once, and a double push
	// notification is very visible to the user.
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewService creates the event consumer. credentialsFile may be empty
// to use application-default credentials.
func NewService(projectID, topicName string, webPush usecase.WebPushUsecase, fcm usecase.FCMUsecase, credentialsFile string) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &Service{
		pubsubClient: client,
		webPush:      webPush,
		fcm:          fcm,
		topicName:    topicName,
		subName:      topicName + "-sub", // Convention: topic-sub
		seen:         make(map[string]time.Time),
	}, nil
}

// Start blocks receiving events until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting push event consumer on topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var event PushEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Printf("[PubSub] Failed to unmarshal event: %v", err)
		return
	}

	if event.EventID != "" && s.alreadySeen(event.EventID) {
		log.Printf("[PubSub] Skipping duplicate event %s", event.EventID)
		return
	}

	payload := event.Notification.ToPayload()

	switch {
	case event.Broadcast:
		result := s.fcm.SendToAll(ctx, payload)
		log.Printf("[PubSub] Broadcast event %s: %d delivered, %d failed", event.EventID, result.Delivered, result.Failed)
	case len(event.UserIDs) > 0:
		web := s.webPush.SendToUsers(ctx, event.UserIDs, payload)
		native := s.fcm.SendToUsers(ctx, event.UserIDs, payload)
		log.Printf("[PubSub] Event %s for %d users: web %d/%d, fcm %d/%d delivered/failed",
			event.EventID, len(event.UserIDs), web.Delivered, web.Failed, native.Delivered, native.Failed)
	case event.UserID != "":
		web := s.webPush.SendToUser(ctx, event.UserID, payload)
		native := s.fcm.SendToUser(ctx, event.UserID, payload)
		if !web.Ok() && !native.Ok() {
			log.Printf("[PubSub] Event %s for user %s delivered nowhere", event.EventID, event.UserID)
		}
	default:
		log.Printf("[PubSub] Event %s has no target, dropping", event.EventID)
	}
}

func (s *Service) alreadySeen(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if t, ok := s.seen[eventID]; ok && now.Sub(t) < time.Hour {
		return true
	}
	s.seen[eventID] = now

	// Drop entries older than the dedup window so the map stays small.
	if len(s.seen) > 10000 {
		for id, t := range s.seen {
			if now.Sub(t) >= time.Hour {
				delete(s.seen, id)
			}
		}
	}
	return false
}
