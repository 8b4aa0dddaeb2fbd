// Package events publishes order and deposit lifecycle events so other
// systems (ledgers, notifiers) can follow what the CLI did.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	OrderCreated   = "order.created"
	OrderStatus    = "order.status"
	DepositCreated = "deposit.created"
	DepositStatus  = "deposit.status"
	TopupCreated   = "topup.created"
)

// Event is one published record. The message key is the entity id so all
// events for one order land on the same partition.
type Event struct {
	Type      string    `json:"type"`
	ID        int       `json:"id"`
	Status    string    `json:"status,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Profile   string    `json:"profile,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON to one topic.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewKafkaPublisher creates a synchronous publisher. Writes block until the
// leader acknowledges, since the CLI exits right after publishing.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
	return newKafkaPublisher(w, topic)
}

func newKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = p.now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.Itoa(e.ID)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Warn("failed to publish event", "topic", p.topic, "type", e.Type, "id", e.ID, "error", err)
		return fmt.Errorf("failed to publish %s event: %w", e.Type, err)
	}
	slog.Debug("event published", "topic", p.topic, "type", e.Type, "id", e.ID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}
