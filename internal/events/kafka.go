// Package events publishes donation outcome events to Kafka. The email
// worker consumes them to send receipts; anything else interested in
// donation traffic can join with its own consumer group.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Event types published on the donations topic.
const (
	EventDonationCompleted = "DonationCompleted"
	EventDonationFailed    = "DonationFailed"
)

type Producer struct{ w *kafka.Writer }

// NewProducer builds a producer for the given brokers. Messages are
// partitioned by key, so events for one donor stay ordered.
func NewProducer(brokers []string) *Producer {
	return &Producer{
		w: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  brokers,
			Balancer: &kafka.Hash{},
		}),
	}
}

func (p *Producer) Close() error { return p.w.Close() }

// Envelope is the event schema. Keep it small and stable.
type Envelope struct {
	EventID      string      `json:"eventId"`
	EventType    string      `json:"eventType"`
	EventVersion string      `json:"eventVersion"`
	OccurredAt   time.Time   `json:"occurredAt"`
	AggregateID  string      `json:"aggregateId"` // attempt ID
	Data         interface{} `json:"data"`
}

// DonationData is the payload for both donation event types.
type DonationData struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	AmountUSD  int    `json:"amountUsd"`
	MaskedCard string `json:"maskedCard"`
	Reason     string `json:"reason"`
}

// Publish writes a single event. EventID and OccurredAt are stamped here.
func (p *Producer) Publish(ctx context.Context, topic, key string, evt Envelope) error {
	evt.EventID = uuid.NewString()
	evt.OccurredAt = time.Now().UTC()
	val, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: val,
	})
}
