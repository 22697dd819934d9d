package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Lifecycle event names.
const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	MemberBooked     = "booking.member_confirmed"
	OrderPlaced      = "order.placed"
	OrderPaid        = "order.paid"
	OrderCancelled   = "order.cancelled"
)

// Event is the envelope written to the event stream.
type Event struct {
	Name       string         `json:"name"`
	Key        string         `json:"key"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher emits lifecycle events for downstream consumers (reporting, audit).
// Publishing is best effort; callers log and continue on error.
type Publisher interface {
	Publish(ctx context.Context, name, key string, data map[string]any) error
	Close() error
}

// publishTimeout bounds the metadata lookup a publish may still do in the caller.
const publishTimeout = 2 * time.Second

// KafkaPublisher writes events to a single topic keyed by booking or order id.
// Writes are asynchronous; delivery failures are logged from the completion callback.
type KafkaPublisher struct {
	writer  *kafka.Writer
	logger  *zap.Logger
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{logger: logger, timeout: publishTimeout}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		MaxAttempts:            3,
		WriteTimeout:           5 * time.Second,
		Async:                  true,
		Completion:             p.completed,
	}
	return p
}

func (p *KafkaPublisher) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		p.logger.Warn("Event delivery failed", zap.ByteString("key", m.Key), zap.Int("bytes", len(m.Value)), zap.Error(err))
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, name, key string, data map[string]any) error {
	evt := Event{Name: name, Key: key, OccurredAt: time.Now().UTC(), Data: data}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", name, err)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(name)},
		},
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: publish %s: %w", name, err)
	}
	p.logger.Debug("Event queued", zap.String("event", name), zap.String("key", key))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, map[string]any) error { return nil }
func (NopPublisher) Close() error { return nil }
