package notification

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// FCMPusher publishes manager alerts to a Firebase Cloud Messaging topic.
type FCMPusher struct {
	client *messaging.Client
	topic  string
}

func NewFCMPusher(client *messaging.Client, topic string) *FCMPusher {
	return &FCMPusher{client: client, topic: topic}
}

func (p *FCMPusher) PushToManagers(ctx context.Context, title, body string, data map[string]string) error {
	if data == nil {
		data = map[string]string{}
	}
	if _, ok := data["role"]; !ok {
		data["role"] = "manager"
	}

	msg := &messaging.Message{
		Topic: p.topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	if _, err := p.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("fcm: failed to send to topic %s: %w", p.topic, err)
	}
	return nil
}
