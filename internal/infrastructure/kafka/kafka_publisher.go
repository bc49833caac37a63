package publisher

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type DefaultKafkaPublisher struct {
	writer *kafka.Writer
}

func NewDefaultKafkaPublisher(brokers []string, topic string) *DefaultKafkaPublisher {
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (k *DefaultKafkaPublisher) WriteMessages(ctx context.Context, msgs ...domain.Message) error {
	km := make([]kafka.Message, 0, len(msgs))
	now := time.Now()
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key:   m.Key,
			Value: m.Value,
			Time:  now,
		})
	}
	return k.writer.WriteMessages(ctx, km...)
}

func (k *DefaultKafkaPublisher) Name() string { return "kafka" }

// Publish sends one escrow event, making the publisher an event sink.
func (k *DefaultKafkaPublisher) Publish(ctx context.Context, event domain.EscrowEvent) error {
	msg, err := EncodeEscrowEvent(event)
	if err != nil {
		return err
	}
	return k.WriteMessages(ctx, msg)
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}
