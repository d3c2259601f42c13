package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dispatch-service/internal/domain"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher emits domain events onto one Kafka topic. Messages are
// keyed by order id so every event of a journey lands on one partition
// in order.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(broker, topic string) (*KafkaPublisher, error) {
	if broker == "" || topic == "" {
		return nil, errors.New("kafka publisher: broker and topic are required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 5 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer}, nil
}

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(envelope{Event: event.EventName(), Data: event})
	if err != nil {
		return fmt.Errorf("publish %s: encode: %w", event.EventName(), err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.EventName())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.EventName(), err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
