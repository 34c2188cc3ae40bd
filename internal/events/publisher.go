// Package events publishes payment lifecycle events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
)

const (
	TopicCheckoutCreated = "checkout.created"
	TopicPaymentApproved = "payment.approved"
)

type CheckoutCreated struct {
	ExternalReference string    `json:"external_reference"`
	PreferenceID      string    `json:"preference_id"`
	Kind              string    `json:"kind,omitempty"`
	Amount            string    `json:"amount"`
	Description       string    `json:"description"`
	PayerEmail        string    `json:"payer_email,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type PaymentApproved struct {
	PaymentID         int64     `json:"payment_id"`
	ExternalReference string    `json:"external_reference"`
	Amount            string    `json:"amount"`
	Description       string    `json:"description"`
	EmailSent         bool      `json:"email_sent"`
	LedgerUpdated     bool      `json:"ledger_updated"`
	Timestamp         time.Time `json:"timestamp"`
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher builds a writer tuned for one message per request: no
// batching delay and a single attempt, so a slow or dead broker costs the
// caller at most writeTimeout.
func NewKafkaPublisher(brokers string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchSize:              1,
			BatchTimeout:           5 * time.Millisecond,
			MaxAttempts:            1,
			WriteTimeout:           writeTimeout,
			RequiredAcks:           kafka.RequireOne,
		},
	}
}

const writeTimeout = 2 * time.Second

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("coworking-payments"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NatsPublisher{conn: nc}, nil
}

// Publish sends on subject "<topic>" with the key as a header.
func (p *NatsPublisher) Publish(_ context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	msg := nats.NewMsg(topic)
	msg.Header.Set("Key", key)
	msg.Data = data
	return p.conn.PublishMsg(msg)
}

func (p *NatsPublisher) Close() error {
	return p.conn.Drain()
}

// Noop is used when no events driver is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }

func (Noop) Close() error { return nil }
