package eventstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	skafka "github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Publisher forwards domain events to the outside world.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// Envelope is the wire form of a forwarded event.
type Envelope struct {
	Type           string    `json:"type"`
	OrganizationID uuid.UUID `json:"organization_id"`
	OccurredAt     time.Time `json:"occurred_at"`
	Payload        any       `json:"payload"`
}

type KafkaProducer struct {
	writer Writer
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := &skafka.Writer{
		Addr:                   skafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &skafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: w}
}

func NewKafkaProducerWithWriter(w Writer) *KafkaProducer {
	return &KafkaProducer{writer: w}
}

// Publish writes env as JSON keyed by organization, so one organization's events stay ordered.
func (p *KafkaProducer) Publish(ctx context.Context, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", env.Type, err)
	}
	msg := skafka.Message{
		Key:   []byte(env.OrganizationID.String()),
		Value: b,
		Headers: []skafka.Header{
			{Key: "event-type", Value: []byte(env.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s event: %w", env.Type, err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Envelope) error { return nil }

func (Nop) Close() error { return nil }
