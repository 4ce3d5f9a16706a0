// Package events publishes the outcome of each dispatch so other services can
// track notification delivery. Events never carry rendered content.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

type ChannelStatus struct {
	Channel   string `json:"channel"`
	Attempted bool   `json:"attempted"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

type Outcome struct {
	DispatchID string          `json:"dispatch_id"`
	BusinessID int64           `json:"business_id"`
	Kind       string          `json:"kind"`
	RecordID   int64           `json:"record_id"`
	Selection  string          `json:"selection"`
	Status     string          `json:"status"`
	Channels   []ChannelStatus `json:"channels"`
	EmittedAt  time.Time       `json:"emitted_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Outcome) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Outcome) error {
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal outcome event: %w", err)
	}
	key := strconv.FormatInt(event.BusinessID, 10) + ":" + event.DispatchID
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload}); err != nil {
		return fmt.Errorf("write outcome event: %w", err)
	}
	return nil
}

// NopPublisher drops events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Outcome) error { return nil }
