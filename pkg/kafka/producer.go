// Package kafka publishes build events to Kafka and reads them back, backed
// by segmentio/kafka-go. Values are JSON encoded.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const maxBatch = 500

// Event is one message. Key drives partition hashing.
type Event struct {
	Key   string
	Value any
}

type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Producer{
		writer: w,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

func (p *Producer) Publish(ctx context.Context, event Event) error {
	return p.PublishBatch(ctx, []Event{event})
}

// PublishBatch writes events synchronously in chunks of at most maxBatch
// messages, so a large run never builds one oversized request.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	for start := 0; start < len(events); start += maxBatch {
		end := min(start+maxBatch, len(events))
		messages := make([]kafka.Message, 0, end-start)
		for _, event := range events[start:end] {
			value, err := json.Marshal(event.Value)
			if err != nil {
				return fmt.Errorf("marshaling event %q: %w", event.Key, err)
			}
			messages = append(messages, kafka.Message{Key: []byte(event.Key), Value: value})
		}
		if err := p.writer.WriteMessages(ctx, messages...); err != nil {
			p.logger.Error("failed to publish batch", "count", len(messages), "error", err)
			return fmt.Errorf("publishing batch to kafka: %w", err)
		}
	}
	p.logger.Debug("events published", "count", len(events))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Ping dials the first reachable broker.
func Ping(ctx context.Context, brokers []string) error {
	var lastErr error
	for _, b := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err != nil {
			lastErr = err
			continue
		}
		conn.Close()
		return nil
	}
	return apperrors.Newf(apperrors.ErrUnavailable, "no kafka broker reachable: %v", lastErr)
}
