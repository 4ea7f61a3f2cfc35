package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher returns an asynchronous publisher: Publish only enqueues,
// and delivery failures are reported to log once retries are exhausted.
func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			Async:                  true,
			MaxAttempts:            3,
			BatchSize:              100,
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           10 * time.Second,
			AllowAutoTopicCreation: true,
			Completion: func(msgs []kafka.Message, err error) {
				if err != nil {
					log.Error("failed to deliver events to kafka", zap.Int("count", len(msgs)), zap.Error(err))
				}
			},
		},
	}
}

// Publish writes the event keyed by e.Key so events of one order or user stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := e.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(e.Key),
		Value:   value,
		Time:    e.OccurredAt,
		Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
	})
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
